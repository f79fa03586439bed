package db

import "github.com/kailas-cloud/shopdex/internal/domain/search/filter"

// ScoreField is the pseudo field that sorts by text relevance.
const ScoreField = "__score"

// WeightedField is a TEXT field searched with a relative weight.
type WeightedField struct {
	Name   string
	Weight float64
}

// SortKey orders hits by a sortable field, or by ScoreField.
type SortKey struct {
	Field string
	Desc  bool
}

// TextQuery is the input for full-text search.
// Terms are ANDed unless AnyTerm is set; Phrases are ORed exact phrases.
// With neither, the query matches every document that passes Filters.
type TextQuery struct {
	IndexName    string
	Terms        []string
	Phrases      []string
	Fields       []WeightedField
	Filters      filter.Expression
	Sort         []SortKey
	Offset       int
	Limit        int
	Prefix       bool
	Infix        bool
	AnyTerm      bool
	ReturnFields []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Score is set for text hits, Distance for KNN hits.
type SearchEntry struct {
	Key      string
	Score    float64
	Distance float64
	Fields   map[string]string
}
