package strategy

// Strategy is the retrieval path chosen for a query.
type Strategy string

// Strategy constants.
const (
	// Exact looks a product up by identifier.
	Exact    Strategy = "exact"
	Semantic Strategy = "semantic"
	Keyword  Strategy = "keyword"
	// Fallback is the lenient text search behind a failed exact lookup.
	// The classifier never selects it.
	Fallback Strategy = "fallback"
)

// IsValid reports whether s is a strategy the classifier can select.
func (s Strategy) IsValid() bool {
	return s == Exact || s == Semantic || s == Keyword
}
