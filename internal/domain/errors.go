package domain

import "errors"

var (
	// ErrInvalidQuery signals a query that cannot be searched (too long, malformed filter).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrBackendUnavailable signals a search backend failure that no strategy could absorb.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrEmbeddingRejected signals that the backend refused the embedding payload (size class).
	ErrEmbeddingRejected = errors.New("embedding rejected by backend")
	// ErrEmbeddingRequired signals a vector search attempted without an embedding.
	ErrEmbeddingRequired = errors.New("embedding required")
	// ErrAnalyzerUnavailable signals the intent analyzer could not be reached.
	ErrAnalyzerUnavailable = errors.New("intent analyzer unavailable")
	// ErrBudgetExceeded signals the intent analyzer token budget is spent.
	ErrBudgetExceeded = errors.New("intent token budget exceeded")
	// ErrMalformedAnalysis signals an analyzer reply that failed validation.
	ErrMalformedAnalysis = errors.New("malformed intent analysis")
)
