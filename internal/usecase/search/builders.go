package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain/product"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
)

const (
	// exactScore marks identifier hits as certain.
	exactScore = 100
	// maxConceptFoods caps the traditional foods appended to a concept query.
	maxConceptFoods = 3
	// combinationLimit caps the concept-combination branch.
	combinationLimit = 10
	// combinationBoost marks direct concept matches.
	combinationBoost = 1.5
)

var keywordFields = []query.FieldWeight{
	{Field: product.FieldName, Weight: 5},
	{Field: product.FieldCategoryL1, Weight: 4},
	{Field: product.FieldCategoryL2, Weight: 3},
	{Field: product.FieldCategoryL3, Weight: 2},
	{Field: product.FieldCategoryL4, Weight: 1},
	{Field: product.FieldDescription, Weight: 1},
	{Field: product.FieldManufacturer, Weight: 1},
	{Field: product.FieldBrand, Weight: 2},
	{Field: product.FieldSKUText, Weight: 2},
}

var keywordSort = []query.SortKey{
	{Field: product.FieldInStock, Desc: true},
	{Field: product.FieldSalesCount, Desc: true},
	{Field: query.Relevance, Desc: true},
}

var fallbackFields = []query.FieldWeight{
	{Field: product.FieldName, Weight: 3},
	{Field: product.FieldSKUText, Weight: 2},
	{Field: product.FieldMPNText, Weight: 2},
	{Field: product.FieldManufacturer, Weight: 1},
	{Field: product.FieldBrand, Weight: 1},
}

// conceptFields bias toward name and brand.
var conceptFields = []query.FieldWeight{
	{Field: product.FieldName, Weight: 6},
	{Field: product.FieldBrand, Weight: 4},
	{Field: product.FieldDescription, Weight: 2},
	{Field: product.FieldCategoryL1, Weight: 1},
	{Field: product.FieldCategoryL2, Weight: 1},
}

var combinationFields = []query.FieldWeight{
	{Field: product.FieldName, Weight: 5},
	{Field: product.FieldBrand, Weight: 3},
	{Field: product.FieldDescription, Weight: 1},
}

// exactQuery matches the upper-cased identifier against every identifier field.
func exactQuery(collection, raw string, perPage int) (query.Text, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	conds := make([]filter.Condition, 0, len(product.IdentifierFields))
	for _, f := range product.IdentifierFields {
		c, err := filter.NewMatch(f, id)
		if err != nil {
			return query.Text{}, fmt.Errorf("exact filter: %w", err)
		}
		conds = append(conds, c)
	}
	expr, err := filter.AnyOf(conds...)
	if err != nil {
		return query.Text{}, fmt.Errorf("exact filter: %w", err)
	}
	return query.NewText(query.Text{
		Collection: collection,
		Query:      query.Wildcard,
		Filters:    expr,
		PerPage:    perPage,
	})
}

func fallbackQuery(collection, text string, perPage int) (query.Text, error) {
	return query.NewText(query.Text{
		Collection: collection,
		Query:      text,
		Fields:     fallbackFields,
		PerPage:    perPage,
		Prefix:     true,
		Infix:      true,
	})
}

func keywordQuery(collection, text string, f filter.Expression, perPage int) (query.Text, error) {
	return query.NewText(query.Text{
		Collection: collection,
		Query:      text,
		Fields:     keywordFields,
		Filters:    f,
		Sort:       keywordSort,
		PerPage:    perPage,
	})
}

// conceptQuery searches with the query plus a few traditional foods, restricted
// to products carrying every detected dietary tag.
func conceptQuery(collection, text string, c concept.Concepts, f filter.Expression, perPage int) (query.Text, error) {
	dietary := make([]filter.Condition, 0, len(c.Dietary))
	for _, tag := range c.Dietary {
		cond, err := filter.NewMatch(product.FieldDietaryTags, tag)
		if err != nil {
			return query.Text{}, fmt.Errorf("dietary filter: %w", err)
		}
		dietary = append(dietary, cond)
	}
	expr, err := f.WithMust(dietary...)
	if err != nil {
		return query.Text{}, fmt.Errorf("dietary filter: %w", err)
	}

	return query.NewText(query.Text{
		Collection: collection,
		Query:      augmentQuery(text, c),
		Fields:     conceptFields,
		Filters:    expr,
		PerPage:    perPage,
		Prefix:     true,
		AnyTerm:    true,
	})
}

func augmentQuery(text string, c concept.Concepts) string {
	if !c.HasDietary() || len(c.TraditionalFoods) == 0 {
		return text
	}
	foods := c.TraditionalFoods[:min(maxConceptFoods, len(c.TraditionalFoods))]
	return text + " " + strings.Join(foods, " ")
}

func combinationQuery(collection string, terms []string, f filter.Expression) (query.Text, error) {
	return query.NewText(query.Text{
		Collection: collection,
		AnyOf:      terms,
		Fields:     combinationFields,
		Filters:    f,
		PerPage:    combinationLimit,
	})
}

func vectorQuery(collection string, embedding []float32, k int, f filter.Expression) (query.Vector, error) {
	return query.NewVector(query.Vector{
		Collection: collection,
		Embedding:  embedding,
		K:          k,
		Filters:    f,
	})
}
