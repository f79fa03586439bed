package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultData []byte

// Taxonomy names.
const (
	Categories  = "categories"
	Attributes  = "attributes"
	Intents     = "intents"
	Descriptors = "descriptors"
)

// TaxonomyOrder is the fixed order taxonomies are tested in.
var TaxonomyOrder = []string{Categories, Attributes, Intents, Descriptors}

// Concept is a canonical tag with the phrases that denote it.
type Concept struct {
	tag      string
	synonyms []string
	foods    []string
}

// Tag returns the canonical tag.
func (c Concept) Tag() string { return c.tag }

// Phrases returns the tag followed by its synonyms.
func (c Concept) Phrases() []string {
	return append([]string{c.tag}, c.synonyms...)
}

// Foods returns the traditional foods of an occasion.
func (c Concept) Foods() []string { return slices.Clone(c.foods) }

// Chips are the default refinement suggestions per group.
type Chips struct {
	Category   []string
	Attribute  []string
	Intent     []string
	Generic    []string
	Popularity []string
}

// Vocabulary is immutable lookup data. Safe for concurrent use.
type Vocabulary struct {
	taxonomies      map[string][]string
	questionPhrases []string
	semanticPhrases []string
	stopwords       map[string]struct{}
	chips           Chips
	dietary         []Concept
	occasions       []Concept
	modifiers       []string
	alternatives    map[pairKey][]string
	genericDiets    map[string]struct{}
	genericTerms    []string
	altBrands       []string
	altPrefixes     []string
}

type pairKey struct{ dietary, occasion string }

type concept struct {
	Tag      string   `yaml:"tag"`
	Synonyms []string `yaml:"synonyms"`
	Foods    []string `yaml:"foods"`
}

type file struct {
	Taxonomies      map[string][]string `yaml:"taxonomies"`
	QuestionPhrases []string            `yaml:"question_phrases"`
	SemanticPhrases []string            `yaml:"semantic_phrases"`
	Stopwords       []string            `yaml:"stopwords"`
	Chips           struct {
		Category   []string `yaml:"category"`
		Attribute  []string `yaml:"attribute"`
		Intent     []string `yaml:"intent"`
		Generic    []string `yaml:"generic"`
		Popularity []string `yaml:"popularity"`
	} `yaml:"chips"`
	Dietary      []concept `yaml:"dietary"`
	Occasions    []concept `yaml:"occasions"`
	Modifiers    []string  `yaml:"modifiers"`
	Alternatives []struct {
		Dietary  string   `yaml:"dietary"`
		Occasion string   `yaml:"occasion"`
		Terms    []string `yaml:"terms"`
	} `yaml:"alternatives"`
	GenericAlternatives struct {
		Dietary []string `yaml:"dietary"`
		Terms   []string `yaml:"terms"`
	} `yaml:"generic_alternatives"`
	AlternativeBrands   []string `yaml:"alternative_brands"`
	AlternativePrefixes []string `yaml:"alternative_prefixes"`
}

var defaultVocabulary = sync.OnceValue(func() *Vocabulary {
	v, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
})

// Default returns the built-in vocabulary, parsed on first use.
func Default() *Vocabulary { return defaultVocabulary() }

// LoadFile reads a vocabulary from a YAML file.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data)
}

// Parse builds a vocabulary from YAML.
func Parse(data []byte) (*Vocabulary, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	v := &Vocabulary{
		taxonomies:      make(map[string][]string, len(TaxonomyOrder)),
		questionPhrases: lowerAll(f.QuestionPhrases),
		semanticPhrases: lowerAll(f.SemanticPhrases),
		stopwords:       toSet(f.Stopwords),
		chips: Chips{
			Category:   f.Chips.Category,
			Attribute:  f.Chips.Attribute,
			Intent:     f.Chips.Intent,
			Generic:    f.Chips.Generic,
			Popularity: f.Chips.Popularity,
		},
		modifiers:    lowerAll(f.Modifiers),
		alternatives: make(map[pairKey][]string, len(f.Alternatives)),
		genericDiets: toSet(f.GenericAlternatives.Dietary),
		genericTerms: lowerAll(f.GenericAlternatives.Terms),
		altBrands:    lowerAll(f.AlternativeBrands),
		altPrefixes:  lowerAll(f.AlternativePrefixes),
	}

	for _, name := range TaxonomyOrder {
		words := lowerAll(f.Taxonomies[name])
		if len(words) == 0 {
			return nil, fmt.Errorf("parse vocabulary: taxonomy %q is empty", name)
		}
		v.taxonomies[name] = words
	}
	for _, c := range f.Dietary {
		if c.Tag == "" {
			return nil, fmt.Errorf("parse vocabulary: dietary entry without tag")
		}
		v.dietary = append(v.dietary, toConcept(c))
	}
	for _, c := range f.Occasions {
		if c.Tag == "" {
			return nil, fmt.Errorf("parse vocabulary: occasion entry without tag")
		}
		v.occasions = append(v.occasions, toConcept(c))
	}
	for _, a := range f.Alternatives {
		k := pairKey{strings.ToLower(a.Dietary), strings.ToLower(a.Occasion)}
		v.alternatives[k] = lowerAll(a.Terms)
	}

	return v, nil
}

// Taxonomy returns the keywords of a taxonomy.
func (v *Vocabulary) Taxonomy(name string) []string {
	return slices.Clone(v.taxonomies[name])
}

// QuestionPhrases returns the substrings that signal a question.
func (v *Vocabulary) QuestionPhrases() []string { return slices.Clone(v.questionPhrases) }

// SemanticPhrases returns the substrings that signal a descriptive request.
func (v *Vocabulary) SemanticPhrases() []string { return slices.Clone(v.semanticPhrases) }

// IsStopword reports whether a single-token query is too common to be an identifier.
func (v *Vocabulary) IsStopword(token string) bool {
	_, ok := v.stopwords[strings.ToLower(token)]
	return ok
}

// Chips returns the default refinement chips.
func (v *Vocabulary) Chips() Chips {
	return Chips{
		Category:   slices.Clone(v.chips.Category),
		Attribute:  slices.Clone(v.chips.Attribute),
		Intent:     slices.Clone(v.chips.Intent),
		Generic:    slices.Clone(v.chips.Generic),
		Popularity: slices.Clone(v.chips.Popularity),
	}
}

// Dietary returns the dietary concepts in declaration order.
func (v *Vocabulary) Dietary() []Concept { return slices.Clone(v.dietary) }

// Occasions returns the occasion concepts in declaration order.
func (v *Vocabulary) Occasions() []Concept { return slices.Clone(v.occasions) }

// Modifiers returns the intent modifier words.
func (v *Vocabulary) Modifiers() []string { return slices.Clone(v.modifiers) }

// Concept looks up a dietary or occasion concept by tag.
func (v *Vocabulary) Concept(tag string) (Concept, bool) {
	for _, c := range v.dietary {
		if c.tag == tag {
			return c, true
		}
	}
	for _, c := range v.occasions {
		if c.tag == tag {
			return c, true
		}
	}
	return Concept{}, false
}

// AlternativesFor returns the curated terms for a dietary and occasion pair.
func (v *Vocabulary) AlternativesFor(dietary, occasion string) []string {
	return slices.Clone(v.alternatives[pairKey{dietary, occasion}])
}

// GenericAlternatives returns the catch-all terms for a dietary tag, if any.
func (v *Vocabulary) GenericAlternatives(dietary string) []string {
	if _, ok := v.genericDiets[dietary]; !ok {
		return nil
	}
	return slices.Clone(v.genericTerms)
}

// IsAlternativeBrand reports whether brand names a known alternative-product maker.
func (v *Vocabulary) IsAlternativeBrand(brand string) bool {
	b := " " + strings.ToLower(strings.TrimSpace(brand)) + " "
	for _, name := range v.altBrands {
		if strings.Contains(b, " "+name+" ") {
			return true
		}
	}
	return false
}

// AlternativePrefixes returns the prefixes that mark a substitute food ("meatless turkey").
func (v *Vocabulary) AlternativePrefixes() []string { return slices.Clone(v.altPrefixes) }

func toConcept(c concept) Concept {
	return Concept{
		tag:      strings.ToLower(c.Tag),
		synonyms: lowerAll(c.Synonyms),
		foods:    lowerAll(c.Foods),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	m := make(map[string]struct{}, len(in))
	for _, s := range lowerAll(in) {
		m[s] = struct{}{}
	}
	return m
}
