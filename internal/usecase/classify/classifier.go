package classify

import (
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/strategy"
	"github.com/kailas-cloud/shopdex/internal/domain/vocabulary"
)

// Scoring constants of the context extraction.
const (
	taxonomyHitScore   = 0.2
	questionScore      = 0.15
	semanticScore      = 0.1
	multiTaxonomyBoost = 1.3
	questionBoost      = 1.2
	semanticThreshold  = 0.4
	minKeywordConf     = 0.3
)

const tokenTrimSet = `?!.,;:"'()`

// Classifier routes queries to a strategy without touching the backend.
// Safe for concurrent use.
type Classifier struct {
	vocab      *vocabulary.Vocabulary
	taxonomies [][]string
}

// New creates a Classifier over a vocabulary.
func New(v *vocabulary.Vocabulary) *Classifier {
	tx := make([][]string, len(vocabulary.TaxonomyOrder))
	for i, name := range vocabulary.TaxonomyOrder {
		tx[i] = v.Taxonomy(name)
	}
	return &Classifier{vocab: v, taxonomies: tx}
}

// Classify decides how a query should be searched. Total and deterministic.
func (c *Classifier) Classify(query string) analysis.Analysis {
	query = strings.TrimSpace(query)

	if idType, ok := c.identifier(query); ok {
		return analysis.Analysis{
			Strategy:       strategy.Exact,
			Confidence:     1.0,
			IdentifierType: idType,
			SuggestedChips: []string{},
			QueryTerms:     []string{query},
			Source:         analysis.SourceRules,
		}
	}

	ctx, terms := c.extractContext(query)
	score := ctx.Confidence

	if score > semanticThreshold {
		return analysis.Analysis{
			Strategy:       strategy.Semantic,
			Confidence:     score,
			Context:        ctx,
			SuggestedChips: []string{},
			QueryTerms:     terms,
			Source:         analysis.SourceRules,
		}
	}

	a := analysis.Analysis{
		Strategy:   strategy.Keyword,
		Confidence: max(minKeywordConf, score),
		QueryTerms: terms,
		Source:     analysis.SourceRules,
	}
	if score > 0 {
		a.Context = ctx
	}
	a.SuggestedChips = c.suggestChips(query, a.Context, score)
	return a
}

// identifier reports whether a single-token query looks like a product identifier.
func (c *Classifier) identifier(query string) (string, bool) {
	if query == "" || strings.ContainsFunc(query, isSpace) {
		return "", false
	}
	if c.vocab.IsStopword(query) {
		return "", false
	}
	return matchIdentifier(query)
}

func (c *Classifier) extractContext(query string) (*analysis.Context, []string) {
	lq := strings.ToLower(query)
	ctx := &analysis.Context{}
	lists := []*[]string{&ctx.Categories, &ctx.Attributes, &ctx.Intents, &ctx.Descriptors}

	var score float64
	var terms []string
	for _, raw := range strings.Fields(lq) {
		token := strings.Trim(raw, tokenTrimSet)
		if token == "" {
			continue
		}
		terms = append(terms, token)
		matched := false
		for i, keywords := range c.taxonomies {
			if !matchesAny(token, keywords) {
				continue
			}
			score += taxonomyHitScore
			*lists[i] = append(*lists[i], token)
			matched = true
		}
		if !matched {
			ctx.UnmatchedTokens = append(ctx.UnmatchedTokens, token)
		}
	}

	for _, p := range c.vocab.QuestionPhrases() {
		score += questionScore * float64(strings.Count(lq, p))
	}
	for _, p := range c.vocab.SemanticPhrases() {
		score += semanticScore * float64(strings.Count(lq, p))
	}

	if ctx.Taxonomies() >= 2 {
		score *= multiTaxonomyBoost
	}
	if looksLikeQuestion(lq) {
		score *= questionBoost
	}
	ctx.Confidence = min(1, max(0, score))

	return ctx, terms
}

func looksLikeQuestion(lq string) bool {
	return strings.Contains(lq, "?") ||
		strings.HasPrefix(lq, "what") ||
		strings.HasPrefix(lq, "where") ||
		strings.HasPrefix(lq, "how")
}

func matchesAny(token string, keywords []string) bool {
	for _, kw := range keywords {
		if matchKeyword(token, kw) {
			return true
		}
	}
	return false
}

// matchKeyword applies the lenient token-to-keyword rules.
// Tokens shorter than three characters only match on equality. Longer tokens
// match a keyword they contain, a keyword of four or more letters containing
// them ("veg" / "vegan"), or a near spelling ("diner" / "dinner").
func matchKeyword(token, kw string) bool {
	switch {
	case token == kw:
		return true
	case len(token) < 3:
		return false
	case strings.Contains(token, kw):
		return true
	case len(kw) > 3 && strings.Contains(kw, token):
		return true
	}
	return nearMatch(token, kw)
}

// nearMatch accepts words one letter apart in length where one is a prefix
// of the other or one letter was dropped ("diner" / "dinner").
func nearMatch(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > 1 {
		return false
	}
	if strings.HasPrefix(b, a) {
		return true
	}
	if len(b) == len(a) {
		return false
	}
	for i := range len(a) {
		if a[i] != b[i] {
			return a[i:] == b[i+1:]
		}
	}
	return true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
