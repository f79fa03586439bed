package concept

import (
	"slices"
	"strings"
	"unicode"

	"github.com/kailas-cloud/shopdex/internal/domain/vocabulary"
)

// Concepts are the dietary and occasion tags recognized in a query.
// Lists are ordered by vocabulary declaration and free of duplicates.
type Concepts struct {
	Dietary          []string `json:"dietary"`
	Occasions        []string `json:"occasions"`
	TraditionalFoods []string `json:"traditional_foods"`
	Modifiers        []string `json:"modifiers"`
}

// HasDietary reports whether any dietary tag was found.
func (c Concepts) HasDietary() bool { return len(c.Dietary) > 0 }

// HasOccasion reports whether any occasion tag was found.
func (c Concepts) HasOccasion() bool { return len(c.Occasions) > 0 }

// IsMultiConcept reports whether the query pairs a diet with an occasion.
func (c Concepts) IsMultiConcept() bool { return c.HasDietary() && c.HasOccasion() }

// Extractor matches queries against the dietary and occasion dictionaries.
// Safe for concurrent use.
type Extractor struct {
	vocab *vocabulary.Vocabulary
}

// New creates an Extractor over a vocabulary.
func New(v *vocabulary.Vocabulary) *Extractor {
	return &Extractor{vocab: v}
}

// Extract finds the concepts in a query. Pure and total.
func (e *Extractor) Extract(query string) Concepts {
	text := normalize(query)
	var c Concepts

	for _, d := range e.vocab.Dietary() {
		if containsAnyPhrase(text, d.Phrases()) {
			c.Dietary = append(c.Dietary, d.Tag())
		}
	}
	for _, o := range e.vocab.Occasions() {
		if !containsAnyPhrase(text, o.Phrases()) {
			continue
		}
		c.Occasions = append(c.Occasions, o.Tag())
		for _, f := range o.Foods() {
			if !slices.Contains(c.TraditionalFoods, f) {
				c.TraditionalFoods = append(c.TraditionalFoods, f)
			}
		}
	}
	for _, m := range e.vocab.Modifiers() {
		if containsPhrase(text, m) {
			c.Modifiers = append(c.Modifiers, m)
		}
	}
	return c
}

// AlternativeTerms returns the curated substitute-product terms for the
// extracted pairs, then the generic terms for diets that have them.
// Pairs missing from the table contribute nothing.
func (e *Extractor) AlternativeTerms(c Concepts) []string {
	var terms []string
	add := func(ts []string) {
		for _, t := range ts {
			if !slices.Contains(terms, t) {
				terms = append(terms, t)
			}
		}
	}
	for _, d := range c.Dietary {
		for _, o := range c.Occasions {
			add(e.vocab.AlternativesFor(d, o))
		}
	}
	for _, d := range c.Dietary {
		add(e.vocab.GenericAlternatives(d))
	}
	return terms
}

// normalize lower-cases s, drops apostrophes and turns other punctuation
// into spaces so phrases can be matched on word boundaries.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '&':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsPhrase reports whether phrase occurs in normalized text as whole words.
func containsPhrase(text, phrase string) bool {
	p := normalize(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+p+" ")
}

func containsAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}
