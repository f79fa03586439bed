package search

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
)

// --- TextSearch ---

func TestTextSearch_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.IndexName != "shopdex:grocery:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if !slices.Equal(q.Terms, []string{"paper plates"}) {
			t.Errorf("Terms = %v", q.Terms)
		}
		if q.Offset != 20 || q.Limit != 20 {
			t.Errorf("Offset/Limit = %d/%d, want 20/20", q.Offset, q.Limit)
		}
		if len(q.Fields) != 2 || q.Fields[0].Name != "name" || q.Fields[0].Weight != 5 {
			t.Errorf("Fields = %+v", q.Fields)
		}
		wantSort := []db.SortKey{{Field: "in_stock", Desc: true}, {Field: db.ScoreField, Desc: true}}
		if !slices.Equal(q.Sort, wantSort) {
			t.Errorf("Sort = %+v, want %+v", q.Sort, wantSort)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{
					Key:   "shopdex:grocery:PLT-1",
					Score: 2.5,
					Fields: map[string]string{
						"sku":          "PLT-1",
						"name":         "Paper Plates 50ct",
						"brand":        "Chinet",
						"price":        "4.99",
						"sales_count":  "120",
						"in_stock":     "1",
						"category_l1":  "Party Supplies",
						"category_l2":  "Tableware",
						"dietary_tags": "",
					},
				},
				{
					Key:    "shopdex:grocery:PLT-2",
					Score:  1.25,
					Fields: map[string]string{"name": "Dinner Plates", "in_stock": "0"},
				},
			},
		}, nil
	}

	hits, err := repo.TextSearch(ctx, query.Text{
		Collection: "grocery",
		Query:      "paper plates",
		Fields:     []query.FieldWeight{{Field: "name", Weight: 5}, {Field: "brand", Weight: 1}},
		Sort:       []query.SortKey{{Field: "in_stock", Desc: true}, {Field: query.Relevance, Desc: true}},
		Page:       2,
		PerPage:    20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	p := hits[0].Product
	if p.SKU != "PLT-1" || p.Name != "Paper Plates 50ct" || p.Brand != "Chinet" {
		t.Errorf("product = %+v", p)
	}
	if p.Price != 4.99 || p.SalesCount != 120 || !p.InStock {
		t.Errorf("numerics = price %f sales %d stock %v", p.Price, p.SalesCount, p.InStock)
	}
	if !slices.Equal(p.CategoryPath(), []string{"Party Supplies", "Tableware"}) {
		t.Errorf("CategoryPath = %v", p.CategoryPath())
	}
	if p.DietaryTags != nil {
		t.Errorf("DietaryTags = %v, want nil", p.DietaryTags)
	}
	if hits[0].Score != 2.5 {
		t.Errorf("Score = %f", hits[0].Score)
	}

	// no sku field: identity falls back to the key suffix
	if hits[1].Product.SKU != "PLT-2" {
		t.Errorf("SKU = %q, want PLT-2", hits[1].Product.SKU)
	}
	if hits[1].Product.InStock {
		t.Error("in_stock=0 parsed as true")
	}
}

func TestTextSearch_WildcardWithFilter(t *testing.T) {
	repo, ms := newTestRepo(t)

	expr := mustExpression(t, nil, []filter.Condition{
		mustMatch(t, "sku", "ABC123"),
		mustMatch(t, "upc", "ABC123"),
	}, nil)

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if len(q.Terms) != 0 {
			t.Errorf("wildcard should send no terms, got %v", q.Terms)
		}
		if len(q.Filters.Should()) != 2 {
			t.Errorf("filters not forwarded: %+v", q.Filters)
		}
		return &db.SearchResult{}, nil
	}

	hits, err := repo.TextSearch(context.Background(), query.Text{
		Collection: "grocery",
		Query:      query.Wildcard,
		Filters:    expr,
		PerPage:    10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != nil {
		t.Errorf("expected nil hits, got %v", hits)
	}
}

func TestTextSearch_AnyOfBecomesPhrases(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if !slices.Equal(q.Phrases, []string{"tofurky", "plant-based roast"}) {
			t.Errorf("Phrases = %v", q.Phrases)
		}
		if q.Prefix || q.Infix {
			t.Error("affixes should not be set")
		}
		return &db.SearchResult{}, nil
	}

	_, err := repo.TextSearch(context.Background(), query.Text{
		Collection: "grocery",
		AnyOf:      []string{"tofurky", "plant-based roast"},
		Fields:     []query.FieldWeight{{Field: "name", Weight: 3}},
		PerPage:    10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTextSearch_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.TextSearch(context.Background(), query.Text{Collection: "grocery", Query: "x", PerPage: 1})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- VectorSearch ---

func TestVectorSearch_DistanceToScore(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "shopdex:grocery:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.VectorField != "vector" {
			t.Errorf("VectorField = %q", q.VectorField)
		}
		if q.K != 50 {
			t.Errorf("K = %d", q.K)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "shopdex:grocery:A", Distance: 0.25, Fields: map[string]string{"name": "Tofurky Roast"}},
				{Key: "shopdex:grocery:B", Distance: 1.4, Fields: map[string]string{"name": "Charcoal"}},
			},
		}, nil
	}

	hits, err := repo.VectorSearch(context.Background(), query.Vector{
		Collection: "grocery",
		Embedding:  testVector(),
		K:          50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if math.Abs(hits[0].Score-0.75) > 1e-9 || hits[0].Distance != 0.25 {
		t.Errorf("hit[0] score=%f distance=%f", hits[0].Score, hits[0].Distance)
	}
	if hits[1].Score != 0 {
		t.Errorf("distance above 1 should clamp to 0, got %f", hits[1].Score)
	}
}

func TestVectorSearch_RejectedMapsToDomain(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrVectorRejected}
	}

	_, err := repo.VectorSearch(context.Background(), query.Vector{Collection: "grocery", Embedding: testVector(), K: 5})
	if !errors.Is(err, domain.ErrEmbeddingRejected) {
		t.Fatalf("error = %v, want ErrEmbeddingRejected", err)
	}
}

func TestVectorSearch_OtherErrorsPassThrough(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: context.DeadlineExceeded}
	}

	_, err := repo.VectorSearch(context.Background(), query.Vector{Collection: "grocery", Embedding: testVector(), K: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrEmbeddingRejected) {
		t.Error("timeouts must not look like rejections")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause lost: %v", err)
	}
}

// --- parsing ---

func TestParseProduct_Tags(t *testing.T) {
	p, ok := parseProduct("shopdex:g:X1", "shopdex:g:", map[string]string{
		"dietary_tags": "Vegan, gluten-free,,",
		"in_stock":     "true",
		"sales_count":  "12.0",
		"price":        "-3",
	})
	if !ok {
		t.Fatal("expected product")
	}
	if p.SKU != "X1" {
		t.Errorf("SKU = %q", p.SKU)
	}
	if !slices.Equal(p.DietaryTags, []string{"vegan", "gluten-free"}) {
		t.Errorf("DietaryTags = %v", p.DietaryTags)
	}
	if !p.InStock || p.SalesCount != 12 || p.Price != 0 {
		t.Errorf("stock=%v sales=%d price=%f", p.InStock, p.SalesCount, p.Price)
	}
}

func TestParseProduct_NoIdentity(t *testing.T) {
	if _, ok := parseProduct("shopdex:g:", "shopdex:g:", map[string]string{"name": "x"}); ok {
		t.Error("entry without sku should be dropped")
	}
}
