package analysis

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
)

// MaxChips bounds the suggested refinement chips of one analysis.
const MaxChips = 8

// Analysis sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// Context is what the classifier recognized in a query.
type Context struct {
	Categories      []string `json:"categories"`
	Attributes      []string `json:"attributes"`
	Intents         []string `json:"intents"`
	Descriptors     []string `json:"descriptors"`
	Confidence      float64  `json:"confidence"`
	UnmatchedTokens []string `json:"unmatched_tokens"`
}

// Taxonomies returns how many distinct taxonomies matched.
func (c *Context) Taxonomies() int {
	n := 0
	for _, l := range [][]string{c.Categories, c.Attributes, c.Intents, c.Descriptors} {
		if len(l) > 0 {
			n++
		}
	}
	return n
}

// Analysis is the routing decision for one query. Treat as immutable.
type Analysis struct {
	Strategy       strategy.Strategy `json:"strategy"`
	Confidence     float64           `json:"confidence"`
	IdentifierType string            `json:"identifier_type,omitempty"`
	Context        *Context          `json:"context,omitempty"`
	SuggestedChips []string          `json:"suggested_chips"`
	QueryTerms     []string          `json:"query_terms"`
	// CleanQuery, when set, replaces the raw query for text searches.
	CleanQuery string `json:"clean_query,omitempty"`
	Source     string `json:"source"`
}

// Validate checks the invariants an analysis from an untrusted source must hold.
func (a *Analysis) Validate() error {
	if !a.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrMalformedAnalysis, a.Strategy)
	}
	if math.IsNaN(a.Confidence) || a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", domain.ErrMalformedAnalysis, a.Confidence)
	}
	if len(a.SuggestedChips) > MaxChips {
		return fmt.Errorf("%w: %d suggested terms (max %d)", domain.ErrMalformedAnalysis, len(a.SuggestedChips), MaxChips)
	}
	return nil
}

// Reply is an analyzer answer with the tokens it cost.
type Reply struct {
	Analysis         Analysis
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens returns prompt plus completion tokens.
func (r Reply) TotalTokens() int { return r.PromptTokens + r.CompletionTokens }
