package classify

import (
	"slices"

	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
)

const (
	popularityMaxQueryLen = 10
	popularityMaxScore    = 0.3
)

// suggestChips picks default refinements for the groups the query left open.
func (c *Classifier) suggestChips(query string, ctx *analysis.Context, score float64) []string {
	defaults := c.vocab.Chips()
	chips := make([]string, 0, analysis.MaxChips)

	if ctx == nil || len(ctx.Categories) == 0 {
		chips = append(chips, defaults.Category...)
	}
	if ctx == nil || len(ctx.Attributes) == 0 {
		chips = append(chips, defaults.Attribute...)
	}
	if ctx == nil || len(ctx.Intents) == 0 {
		chips = append(chips, defaults.Intent...)
	}
	chips = append(chips, defaults.Generic...)
	if len(query) < popularityMaxQueryLen && score < popularityMaxScore {
		chips = append(chips, defaults.Popularity...)
	}

	chips = dedupe(chips)
	if len(chips) > analysis.MaxChips {
		chips = chips[:analysis.MaxChips]
	}
	return chips
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
