package request

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength    = 4096
	DefaultTopK       = 50
	MaxTopK           = 250
	DefaultLimit      = 20
	MaxLimit          = 100
	DefaultSalesBoost = 1.0
	MaxSalesBoost     = 2.0
)

// Params are the caller-supplied search parameters before validation.
type Params struct {
	Query         string
	Embedding     []float32
	SalesBoost    *float64
	StockPriority bool
	Collection    string
	Limit         int
	TopK          int
	Filters       filter.Expression
}

// Request is a validated search query. Read-only once built.
type Request struct {
	query         string
	embedding     []float32
	salesBoost    float64
	stockPriority bool
	collection    string
	limit         int
	topK          int
	filters       filter.Expression
}

// New validates and normalizes search parameters.
// The query is trimmed; an empty query is valid and searches nothing.
// Defaults: limit=20, topK=50, salesBoost=1. TopK is raised to the limit.
func New(p Params) (Request, error) {
	query := strings.TrimSpace(p.Query)
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}

	boost := DefaultSalesBoost
	if p.SalesBoost != nil {
		boost = clampBoost(*p.SalesBoost)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	topK := p.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if topK < limit {
		topK = limit
	}

	return Request{
		query:         query,
		embedding:     slices.Clone(p.Embedding),
		salesBoost:    boost,
		stockPriority: p.StockPriority,
		collection:    strings.TrimSpace(p.Collection),
		limit:         limit,
		topK:          topK,
		filters:       p.Filters,
	}, nil
}

func clampBoost(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return min(v, MaxSalesBoost)
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// IsEmpty reports whether there is nothing to search for.
func (r *Request) IsEmpty() bool { return r.query == "" }

// Embedding returns the query embedding, nil when absent.
func (r *Request) Embedding() []float32 { return r.embedding }

// HasEmbedding reports whether an embedding came with the request.
func (r *Request) HasEmbedding() bool { return len(r.embedding) > 0 }

// SalesBoost returns the popularity weight in [0,2].
func (r *Request) SalesBoost() float64 { return r.salesBoost }

// StockPriority reports whether out-of-stock products sort last.
func (r *Request) StockPriority() bool { return r.stockPriority }

// Collection returns the target collection, empty for the configured default.
func (r *Request) Collection() string { return r.collection }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// TopK returns the candidate depth per backend call.
func (r *Request) TopK() int { return r.topK }

// Filters returns the caller's filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }
