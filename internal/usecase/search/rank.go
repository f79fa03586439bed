package search

import (
	"cmp"
	"math"
	"slices"

	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// Rank applies the popularity multiplier where no executor did and orders
// products by score. With stockPriority, in-stock products always come first.
// The sort is stable; the input is not modified.
func Rank(products []result.Scored, salesBoost float64, stockPriority bool) []result.Scored {
	out := make([]result.Scored, len(products))
	copy(out, products)

	for i := range out {
		if out[i].PopularityApplied {
			continue
		}
		out[i].Score *= popularity(out[i].Product.SalesCount, salesBoost)
		out[i].PopularityApplied = true
	}

	slices.SortStableFunc(out, func(a, b result.Scored) int {
		if stockPriority && a.Product.InStock != b.Product.InStock {
			if a.Product.InStock {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// popularity is 1 + log10(sales + 1) × boost.
func popularity(sales int64, boost float64) float64 {
	return 1 + math.Log10(float64(max(sales, 0))+1)*boost
}
