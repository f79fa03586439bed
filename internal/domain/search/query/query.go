package query

import (
	"fmt"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
)

const (
	// Wildcard matches every document; used with identifier filters.
	Wildcard = "*"
	// Relevance is the sort key for the backend text-match score.
	Relevance = "_text_match"
	// MaxPerPage bounds a single text search page.
	MaxPerPage = 250
)

// FieldWeight is a searchable field and its relative weight.
type FieldWeight struct {
	Field  string
	Weight float64
}

// SortKey orders text hits by a field, or by Relevance.
type SortKey struct {
	Field string
	Desc  bool
}

// Text is a validated full-text search request.
type Text struct {
	Collection string
	// Query holds whitespace separated terms, or Wildcard.
	Query string
	// AnyOf holds phrases of which at least one must match. Used instead of Query.
	AnyOf   []string
	Fields  []FieldWeight
	Filters filter.Expression
	Sort    []SortKey
	Page    int
	PerPage int
	// Prefix matches terms as prefixes, Infix as substrings.
	Prefix bool
	Infix  bool
	// AnyTerm ORs the query terms instead of requiring all of them.
	AnyTerm bool
}

// NewText validates a text search request. Page defaults to 1.
func NewText(t Text) (Text, error) {
	if t.Collection == "" {
		return Text{}, fmt.Errorf("%w: collection is required", domain.ErrInvalidQuery)
	}
	if t.Query == "" && len(t.AnyOf) == 0 {
		return Text{}, fmt.Errorf("%w: query or phrases required", domain.ErrInvalidQuery)
	}
	if t.Query != Wildcard && len(t.Fields) == 0 {
		return Text{}, fmt.Errorf("%w: at least one query field is required", domain.ErrInvalidQuery)
	}
	for _, f := range t.Fields {
		if f.Field == "" || f.Weight <= 0 {
			return Text{}, fmt.Errorf("%w: invalid field weight %q=%g", domain.ErrInvalidQuery, f.Field, f.Weight)
		}
	}
	if t.PerPage <= 0 || t.PerPage > MaxPerPage {
		return Text{}, fmt.Errorf("%w: per_page must be between 1 and %d", domain.ErrInvalidQuery, MaxPerPage)
	}
	if t.Page <= 0 {
		t.Page = 1
	}
	return t, nil
}

// Offset returns the zero-based index of the first hit on the page.
func (t Text) Offset() int { return (t.Page - 1) * t.PerPage }

// Vector is a validated nearest-neighbour search request.
type Vector struct {
	Collection string
	Embedding  []float32
	K          int
	Filters    filter.Expression
}

// NewVector validates a vector search request.
func NewVector(v Vector) (Vector, error) {
	if v.Collection == "" {
		return Vector{}, fmt.Errorf("%w: collection is required", domain.ErrInvalidQuery)
	}
	if len(v.Embedding) == 0 {
		return Vector{}, domain.ErrEmbeddingRequired
	}
	if v.K <= 0 {
		return Vector{}, fmt.Errorf("%w: k must be positive", domain.ErrInvalidQuery)
	}
	return v, nil
}

// Truncated returns a copy keeping the first dims components of the embedding.
// ok is false when the embedding is already that short.
func (v Vector) Truncated(dims int) (Vector, bool) {
	if dims <= 0 || len(v.Embedding) <= dims {
		return v, false
	}
	out := v
	out.Embedding = append([]float32(nil), v.Embedding[:dims]...)
	return out, true
}
