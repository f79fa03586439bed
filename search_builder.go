package shopdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
)

// SearchBuilder is a fluent builder for one product search.
type SearchBuilder struct {
	svc        *searchuc.Service
	collection string

	query         string
	embedding     []float32
	salesBoost    *float64
	stockPriority bool
	limit         int
	topK          int

	must    []FilterCondition
	mustNot []FilterCondition
}

// Query sets the shopper's query text.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

// Embedding supplies the query embedding. Without one, semantic queries
// are answered by keyword search.
func (b *SearchBuilder) Embedding(v []float32) *SearchBuilder {
	b.embedding = v
	return b
}

// SalesBoost sets the popularity weight, clamped to [0, 2]. Defaults to 1.
func (b *SearchBuilder) SalesBoost(w float64) *SearchBuilder {
	b.salesBoost = &w
	return b
}

// StockPriority ranks in-stock products ahead of out-of-stock ones.
func (b *SearchBuilder) StockPriority(on bool) *SearchBuilder {
	b.stockPriority = on
	return b
}

// Limit sets the maximum number of results (default 20, max 100).
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// TopK sets the candidate depth of vector and keyword branches.
func (b *SearchBuilder) TopK(n int) *SearchBuilder {
	b.topK = n
	return b
}

// Where adds a tag filter condition (exact match).
func (b *SearchBuilder) Where(key, value string) *SearchBuilder {
	b.must = append(b.must, FilterCondition{Key: key, Match: value})
	return b
}

// WhereRange adds a numeric range condition.
func (b *SearchBuilder) WhereRange(key string, r Range) *SearchBuilder {
	b.must = append(b.must, FilterCondition{Key: key, Range: &r})
	return b
}

// Exclude adds a tag condition products must not match.
func (b *SearchBuilder) Exclude(key, value string) *SearchBuilder {
	b.mustNot = append(b.mustNot, FilterCondition{Key: key, Match: value})
	return b
}

// Do executes the search. The error is non-nil only for invalid parameters;
// backend failures come back as Response.Success=false.
func (b *SearchBuilder) Do(ctx context.Context) (*Response, error) {
	filters, err := toInternalFilters(b.must, b.mustNot)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	req, err := request.New(request.Params{
		Query:         b.query,
		Embedding:     b.embedding,
		SalesBoost:    b.salesBoost,
		StockPriority: b.stockPriority,
		Collection:    b.collection,
		Limit:         b.limit,
		TopK:          b.topK,
		Filters:       filters,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	resp := fromResponse(b.svc.Search(ctx, &req))
	return &resp, nil
}
