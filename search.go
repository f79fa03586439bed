package shopdex

import (
	"fmt"

	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

func toInternalFilters(must, mustNot []FilterCondition) (filter.Expression, error) {
	m, err := toConditions(must)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter must: %w", err)
	}
	mn, err := toConditions(mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter must_not: %w", err)
	}
	expr, err := filter.NewExpression(m, nil, mn)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter expression: %w", err)
	}
	return expr, nil
}

func toConditions(conds []FilterCondition) ([]filter.Condition, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	out := make([]filter.Condition, len(conds))
	for i, c := range conds {
		var err error
		if c.Range != nil {
			r, rerr := filter.NewRangeFilter(c.Range.GT, c.Range.GTE, c.Range.LT, c.Range.LTE)
			if rerr != nil {
				return nil, fmt.Errorf("filter %q: %w", c.Key, rerr)
			}
			out[i], err = filter.NewRange(c.Key, r)
		} else {
			out[i], err = filter.NewMatch(c.Key, c.Match)
		}
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", c.Key, err)
		}
	}
	return out, nil
}

func fromResponse(r result.Response) Response {
	out := Response{
		Success:        r.Success,
		Results:        make([]Result, len(r.Products)),
		Strategy:       Strategy(r.Strategy),
		SuggestedChips: r.SuggestedChips,
		Error:          r.Error,
		SearchID:       r.SearchID,
		AnalysisSource: r.AnalysisSource,
		Elapsed:        r.Elapsed,
	}
	for i := range r.Products {
		p := &r.Products[i].Product
		out.Results[i] = Result{
			Product: Product{
				SKU:          p.SKU,
				Name:         p.Name,
				Brand:        p.Brand,
				Price:        p.Price,
				SalePrice:    p.SalePrice,
				SalesCount:   p.SalesCount,
				InStock:      p.InStock,
				Categories:   p.CategoryPath(),
				Description:  p.Description,
				Manufacturer: p.Manufacturer,
				MPN:          p.MPN,
				GTIN:         p.GTIN,
				UPC:          p.UPC,
				DietaryTags:  p.DietaryTags,
			},
			Score: r.Products[i].Score,
		}
	}
	for _, b := range r.Branches {
		out.Branches = append(out.Branches, Branch{
			Name:    b.Name,
			Hits:    b.Hits,
			Failed:  b.Failed,
			Retried: b.Retried,
			Error:   b.Error,
		})
	}
	return out
}
