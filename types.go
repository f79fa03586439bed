package shopdex

import (
	"context"
	"time"
)

// Strategy is the retrieval path a query was routed to.
type Strategy string

// Strategies reported in Response.Strategy and Analysis.Strategy.
const (
	StrategyExact    Strategy = "exact"
	StrategyFallback Strategy = "fallback"
	StrategyKeyword  Strategy = "keyword"
	StrategySemantic Strategy = "semantic"
)

// Product is a catalog item returned by a search.
type Product struct {
	SKU          string
	Name         string
	Brand        string
	Price        float64
	SalePrice    float64
	SalesCount   int64
	InStock      bool
	Categories   []string
	Description  string
	Manufacturer string
	MPN          string
	GTIN         string
	UPC          string
	DietaryTags  []string
}

// Result is a ranked product with its final score.
type Result struct {
	Product Product
	Score   float64
}

// Branch describes one semantic sub-search.
type Branch struct {
	Name    string
	Hits    int
	Failed  bool
	Retried bool
	Error   string
}

// Response is the outcome of one search. A backend failure is reported with
// Success=false and Error set, never as a Go error.
type Response struct {
	Success        bool
	Results        []Result
	Strategy       Strategy
	SuggestedChips []string
	Error          string
	SearchID       string
	AnalysisSource string
	Branches       []Branch
	Elapsed        time.Duration
}

// Analysis is the routing decision for a query.
type Analysis struct {
	Strategy       Strategy
	Confidence     float64
	IdentifierType string
	SuggestedChips []string
	QueryTerms     []string
	CleanQuery     string
	Source         string
}

// Concepts are the dietary and occasion concepts found in a query.
type Concepts struct {
	Dietary          []string
	Occasions        []string
	TraditionalFoods []string
	Modifiers        []string
	// Alternatives are substitute-product terms for the dietary/occasion pairs.
	Alternatives []string
}

// IntentAnalyzer classifies queries remotely. Strategy must be one of
// exact, keyword or semantic and Confidence in [0, 1]; anything else falls
// back to the rules classifier.
type IntentAnalyzer interface {
	Analyze(ctx context.Context, query string) (Analysis, error)
}

// FilterCondition matches a tag value or a numeric range on one field.
type FilterCondition struct {
	Key   string
	Match string
	Range *Range
}

// Range bounds a numeric field. Nil bounds are open.
type Range struct {
	GT, GTE, LT, LTE *float64
}
