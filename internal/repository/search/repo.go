package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/product"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Backend.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// TextSearch runs a weighted full-text search on a collection.
func (r *Repo) TextSearch(ctx context.Context, q query.Text) ([]result.Hit, error) {
	tq := &db.TextQuery{
		IndexName: domain.IndexName(q.Collection),
		Phrases:   q.AnyOf,
		Fields:    make([]db.WeightedField, 0, len(q.Fields)),
		Filters:   q.Filters,
		Sort:      make([]db.SortKey, 0, len(q.Sort)),
		Offset:    q.Offset(),
		Limit:     q.PerPage,
		Prefix:    q.Prefix,
		Infix:     q.Infix,
		AnyTerm:   q.AnyTerm,
	}
	if q.Query != "" && q.Query != query.Wildcard {
		tq.Terms = []string{q.Query}
	}
	for _, f := range q.Fields {
		tq.Fields = append(tq.Fields, db.WeightedField{Name: f.Field, Weight: f.Weight})
	}
	for _, k := range q.Sort {
		field := k.Field
		if field == query.Relevance {
			field = db.ScoreField
		}
		tq.Sort = append(tq.Sort, db.SortKey{Field: field, Desc: k.Desc})
	}

	sr, err := r.store.SearchText(ctx, tq)
	if err != nil {
		return nil, fmt.Errorf("text search %s: %w", q.Collection, err)
	}

	return parseHits(sr, q.Collection), nil
}

// VectorSearch runs a KNN search with filter pre-filtering.
// Hit scores are similarities derived from the cosine distance.
func (r *Repo) VectorSearch(ctx context.Context, q query.Vector) ([]result.Hit, error) {
	kq := &db.KNNQuery{
		IndexName:   domain.IndexName(q.Collection),
		VectorField: product.FieldVector,
		Filters:     q.Filters,
		Vector:      q.Embedding,
		K:           q.K,
	}

	sr, err := r.store.SearchKNN(ctx, kq)
	if err != nil {
		if errors.Is(err, db.ErrVectorRejected) {
			return nil, fmt.Errorf("vector search %s: %w: %w", q.Collection, domain.ErrEmbeddingRejected, err)
		}
		return nil, fmt.Errorf("vector search %s: %w", q.Collection, err)
	}

	hits := parseHits(sr, q.Collection)
	for i := range hits {
		hits[i].Score = similarity(hits[i].Distance)
	}
	return hits, nil
}

// parseHits converts db.SearchResult into hits with the key prefix stripped.
func parseHits(sr *db.SearchResult, collection string) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := domain.DocPrefix(collection)
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		p, ok := parseProduct(entry.Key, prefix, entry.Fields)
		if !ok {
			continue
		}
		hits = append(hits, result.Hit{
			Product:  p,
			Score:    entry.Score,
			Distance: entry.Distance,
		})
	}
	return hits
}

func similarity(distance float64) float64 {
	return max(0, 1-distance)
}
