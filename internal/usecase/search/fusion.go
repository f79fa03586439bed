package search

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
)

// agreementBonus rewards products found by several branches:
// score × (1 + agreementBonus × sources) when sources > 1.
const agreementBonus = 0.1

// Weights maps a branch label to its fusion weight.
// Labels without a weight do not contribute.
type Weights map[string]float64

// Preset names of the known weight tables.
const (
	PresetMultiConcept = "multi_concept"
	PresetDefault      = "default"
	PresetTwoSource    = "two_source"
)

// Presets are the documented weight tables. They disagree with each other,
// so which one applies to which case is configuration.
var Presets = map[string]Weights{
	PresetMultiConcept: {BranchConcept: 0.4, BranchKeyword: 0.35, BranchVector: 0.25},
	PresetDefault:      {BranchVector: 0.5, BranchKeyword: 0.35, BranchConcept: 0.15},
	PresetTwoSource:    {BranchVector: 0.6, BranchKeyword: 0.4},
}

// Policy picks the weights for a query.
type Policy struct {
	// MultiConcept applies when the query pairs a diet with an occasion.
	MultiConcept Weights
	Default      Weights
}

// DefaultPolicy returns the multi_concept/default preset pairing.
func DefaultPolicy() Policy {
	return Policy{
		MultiConcept: Presets[PresetMultiConcept],
		Default:      Presets[PresetDefault],
	}
}

// PolicyFromPresets builds a policy from preset names.
func PolicyFromPresets(multiConcept, fallback string) (Policy, error) {
	mc, ok := Presets[multiConcept]
	if !ok {
		return Policy{}, fmt.Errorf("unknown fusion preset %q", multiConcept)
	}
	def, ok := Presets[fallback]
	if !ok {
		return Policy{}, fmt.Errorf("unknown fusion preset %q", fallback)
	}
	return Policy{MultiConcept: mc, Default: def}, nil
}

// For returns the weights for the detected concepts.
func (p Policy) For(c concept.Concepts) Weights {
	if c.IsMultiConcept() {
		return p.MultiConcept
	}
	return p.Default
}

// Labeled is one branch's result set.
type Labeled struct {
	Label    string
	Products []result.Scored
}

type contribution struct {
	label string
	score float64
}

type fused struct {
	product       result.Scored
	contributions []contribution
}

// Fuse merges labeled sets into one list deduplicated by SKU.
// Each contribution carries the popularity multiplier exactly once: scores
// without it are multiplied by popularity(sales, salesBoost) before weighting,
// and every fused product is returned with PopularityApplied set.
// The result does not depend on the order of sets: contributions are summed
// in label order and ties break on SKU.
func Fuse(sets []Labeled, w Weights, salesBoost float64) []result.Scored {
	bySKU := make(map[string]*fused)
	for _, set := range sets {
		weight, ok := w[set.Label]
		if !ok {
			continue
		}
		for _, p := range set.Products {
			score := p.Score
			if !p.PopularityApplied {
				score *= popularity(p.Product.SalesCount, salesBoost)
			}
			c := contribution{label: set.Label, score: score * weight}
			f, ok := bySKU[p.Product.SKU]
			if !ok {
				bySKU[p.Product.SKU] = &fused{product: p, contributions: []contribution{c}}
				continue
			}
			f.contributions = append(f.contributions, c)
		}
	}

	out := make([]result.Scored, 0, len(bySKU))
	for _, f := range bySKU {
		slices.SortFunc(f.contributions, func(a, b contribution) int {
			if c := cmp.Compare(a.label, b.label); c != 0 {
				return c
			}
			return cmp.Compare(a.score, b.score)
		})

		var score float64
		sources := make(map[string]struct{}, len(f.contributions))
		for _, c := range f.contributions {
			score += c.score
			sources[c.label] = struct{}{}
		}
		if n := len(sources); n > 1 {
			score *= 1 + agreementBonus*float64(n)
		}

		p := f.product
		p.Score = score
		p.PopularityApplied = true
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b result.Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Product.SKU, b.Product.SKU)
	})
	return out
}
