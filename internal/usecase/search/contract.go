package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// Backend defines the search engine contract.
type Backend interface {
	TextSearch(ctx context.Context, q query.Text) ([]result.Hit, error)
	VectorSearch(ctx context.Context, q query.Vector) ([]result.Hit, error)
}

// IntentAnalyzer is an optional collaborator that classifies queries.
// Any error makes the service fall back to the rules classifier.
type IntentAnalyzer interface {
	Analyze(ctx context.Context, query string) (analysis.Analysis, error)
}

// ErrorReporter receives fatal search failures.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error)
}

// Recorder observes search outcomes.
type Recorder interface {
	ObserveSearch(strategy string, success bool, elapsed time.Duration)
	ObserveBranch(branch, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSearch(string, bool, time.Duration) {}
func (nopRecorder) ObserveBranch(string, string)              {}
