package concept

import "github.com/kailas-cloud/shopdex/internal/domain/product"

// Concept boost multipliers.
const (
	DietaryBoost     = 1.3
	AlternativeBoost = 1.5
	BrandBoost       = 1.3
	OccasionBoost    = 1.2
)

// Boost scores how well a product reflects the query concepts.
// It starts at 1 and only ever grows.
func (e *Extractor) Boost(c Concepts, p *product.Product) float64 {
	text := normalize(p.SearchText())
	boost := 1.0

	if e.mentionsAny(text, c.Dietary) {
		boost *= DietaryBoost
		if e.hasAlternativePattern(text, c) {
			boost *= AlternativeBoost
		}
	}
	if e.vocab.IsAlternativeBrand(p.Brand) {
		boost *= BrandBoost
	}
	if e.mentionsAny(text, c.Occasions) {
		boost *= OccasionBoost
	}
	return boost
}

// mentionsAny reports whether text names any of the tags or their synonyms.
func (e *Extractor) mentionsAny(text string, tags []string) bool {
	for _, tag := range tags {
		phrases := []string{tag}
		if cpt, ok := e.vocab.Concept(tag); ok {
			phrases = cpt.Phrases()
		}
		if containsAnyPhrase(text, phrases) {
			return true
		}
	}
	return false
}

// hasAlternativePattern looks for "<diet> <food>" or "<prefix> <food>"
// where food is one of the occasion's traditional foods.
func (e *Extractor) hasAlternativePattern(text string, c Concepts) bool {
	prefixes := e.vocab.AlternativePrefixes()
	for _, tag := range c.Dietary {
		if cpt, ok := e.vocab.Concept(tag); ok {
			prefixes = append(prefixes, cpt.Phrases()...)
		} else {
			prefixes = append(prefixes, tag)
		}
	}
	for _, food := range c.TraditionalFoods {
		for _, p := range prefixes {
			if containsPhrase(text, p+" "+food) {
				return true
			}
		}
	}
	return false
}
