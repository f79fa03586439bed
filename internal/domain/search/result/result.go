package result

import (
	"time"

	"github.com/kailas-cloud/shopdex/internal/domain/product"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
)

// Hit is a single backend match. Score is the text-match score for text
// searches and the distance-derived similarity for vector searches.
type Hit struct {
	Product  product.Product
	Score    float64
	Distance float64
}

// Scored is a product carrying a relevance score through the pipeline.
// PopularityApplied is set once the sales multiplier is folded into Score.
type Scored struct {
	Product           product.Product
	Score             float64
	PopularityApplied bool
}

// FromHits wraps hits as scored products, scaling each score by factor.
func FromHits(hits []Hit, factor float64) []Scored {
	out := make([]Scored, len(hits))
	for i := range hits {
		out[i] = Scored{Product: hits[i].Product, Score: hits[i].Score * factor}
	}
	return out
}

// BranchReport describes how one sub-search ended.
type BranchReport struct {
	Name    string `json:"name"`
	Hits    int    `json:"hits"`
	Failed  bool   `json:"failed,omitempty"`
	Retried bool   `json:"retried,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the outcome of one search. Products carry their final score.
type Response struct {
	Success        bool
	Products       []Scored
	Count          int
	Elapsed        time.Duration
	Strategy       strategy.Strategy
	SuggestedChips []string
	Error          string
	SearchID       string
	AnalysisSource string
	Branches       []BranchReport
}

// Failed builds an unsuccessful response with no products.
func Failed(err error) Response {
	return Response{Success: false, Products: []Scored{}, Error: err.Error()}
}
