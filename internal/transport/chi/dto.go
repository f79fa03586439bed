package chi

import (
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/shopdex/internal/domain/product"
	"github.com/kailas-cloud/shopdex/internal/domain/search/analysis"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeInternalError    = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the POST /v1/search body.
type SearchRequest struct {
	Query         string            `json:"query"`
	Embedding     []float32         `json:"embedding,omitempty"`
	SalesBoost    *float64          `json:"sales_boost,omitempty"`
	StockPriority bool              `json:"stock_priority"`
	Collection    string            `json:"collection,omitempty"`
	Limit         *int              `json:"limit,omitempty"`
	TopK          *int              `json:"top_k,omitempty"`
	Filters       *FilterExpression `json:"filters,omitempty"`
}

// FilterExpression is a boolean filter over product fields.
type FilterExpression struct {
	Must    []FilterCondition `json:"must,omitempty"`
	Should  []FilterCondition `json:"should,omitempty"`
	MustNot []FilterCondition `json:"must_not,omitempty"`
}

// FilterCondition matches a tag value or a numeric range on one field.
type FilterCondition struct {
	Key   string       `json:"key"`
	Match *string      `json:"match,omitempty"`
	Range *RangeFilter `json:"range,omitempty"`
}

// RangeFilter bounds a numeric field.
type RangeFilter struct {
	Gt  *float64 `json:"gt,omitempty"`
	Gte *float64 `json:"gte,omitempty"`
	Lt  *float64 `json:"lt,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
}

// ProductResponse is one ranked product.
type ProductResponse struct {
	SKU          string   `json:"sku"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand,omitempty"`
	Price        float64  `json:"price"`
	SalePrice    float64  `json:"sale_price,omitempty"`
	SalesCount   int64    `json:"sales_count"`
	InStock      bool     `json:"in_stock"`
	Categories   []string `json:"categories"`
	Description  string   `json:"description,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	MPN          string   `json:"mpn,omitempty"`
	GTIN         string   `json:"gtin,omitempty"`
	UPC          string   `json:"upc,omitempty"`
	DietaryTags  []string `json:"dietary_tags,omitempty"`
	Score        float64  `json:"score"`
}

// SearchResponse is the search envelope. It is returned with 200 even when
// success is false.
type SearchResponse struct {
	Success        bool                  `json:"success"`
	Results        []ProductResponse     `json:"results"`
	Count          int                   `json:"count"`
	SearchTimeMS   float64               `json:"search_time_ms"`
	Strategy       string                `json:"strategy"`
	SuggestedChips []string              `json:"suggested_chips"`
	Error          string                `json:"error,omitempty"`
	SearchID       string                `json:"search_id"`
	AnalysisSource string                `json:"analysis_source,omitempty"`
	Branches       []result.BranchReport `json:"branches,omitempty"`
}

// ClassifyResponse explains how a query would be routed.
type ClassifyResponse struct {
	Query        string            `json:"query"`
	Analysis     analysis.Analysis `json:"analysis"`
	Concepts     concept.Concepts  `json:"concepts"`
	Alternatives []string          `json:"alternatives"`
}

// UsageResponse reports intent analyzer token usage for one period.
type UsageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt time.Time    `json:"period_start_at"`
	PeriodEndAt   time.Time    `json:"period_end_at"`
	TokensUsed    int64        `json:"tokens_used"`
	Budget        BudgetStatus `json:"budget"`
}

// BudgetStatus is the token budget of a period. A zero limit is unlimited
// and then tokens_remaining is -1.
type BudgetStatus struct {
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
	ResetsAt        time.Time `json:"resets_at"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (req *SearchRequest) params() (request.Params, error) {
	filters, err := filtersFromDTO(req.Filters)
	if err != nil {
		return request.Params{}, fmt.Errorf("parse filters: %w", err)
	}

	// Explicit values must be in range; absent ones take the defaults.
	if req.TopK != nil && (*req.TopK <= 0 || *req.TopK > request.MaxTopK) {
		return request.Params{}, fmt.Errorf("top_k must be between 1 and %d", request.MaxTopK)
	}
	if req.Limit != nil && (*req.Limit <= 0 || *req.Limit > request.MaxLimit) {
		return request.Params{}, fmt.Errorf("limit must be between 1 and %d", request.MaxLimit)
	}

	return request.Params{
		Query:         req.Query,
		Embedding:     req.Embedding,
		SalesBoost:    req.SalesBoost,
		StockPriority: req.StockPriority,
		Collection:    req.Collection,
		Limit:         derefInt(req.Limit),
		TopK:          derefInt(req.TopK),
		Filters:       filters,
	}, nil
}

func filtersFromDTO(f *FilterExpression) (filter.Expression, error) {
	if f == nil {
		return filter.Expression{}, nil
	}

	must, err := conditionsFromDTO(f.Must)
	if err != nil {
		return filter.Expression{}, err
	}
	should, err := conditionsFromDTO(f.Should)
	if err != nil {
		return filter.Expression{}, err
	}
	mustNot, err := conditionsFromDTO(f.MustNot)
	if err != nil {
		return filter.Expression{}, err
	}

	expr, err := filter.NewExpression(must, should, mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("new expression: %w", err)
	}
	return expr, nil
}

func conditionsFromDTO(cs []FilterCondition) ([]filter.Condition, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	out := make([]filter.Condition, 0, len(cs))
	for _, c := range cs {
		cond, err := conditionFromDTO(c)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func conditionFromDTO(c FilterCondition) (filter.Condition, error) {
	if c.Match != nil && c.Range != nil {
		return filter.Condition{},
			fmt.Errorf("filter condition for %q must have match or range, not both", c.Key)
	}
	if c.Match != nil {
		cond, err := filter.NewMatch(c.Key, *c.Match)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("match filter: %w", err)
		}
		return cond, nil
	}
	if c.Range != nil {
		rf, err := filter.NewRangeFilter(c.Range.Gt, c.Range.Gte, c.Range.Lt, c.Range.Lte)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("range filter: %w", err)
		}
		cond, err := filter.NewRange(c.Key, rf)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("range condition: %w", err)
		}
		return cond, nil
	}
	return filter.Condition{}, errors.New("filter condition must have either match or range")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func searchResponseFromDomain(r *result.Response) SearchResponse {
	items := make([]ProductResponse, len(r.Products))
	for i := range r.Products {
		items[i] = productToDTO(&r.Products[i].Product, r.Products[i].Score)
	}
	chips := r.SuggestedChips
	if chips == nil {
		chips = []string{}
	}
	return SearchResponse{
		Success:        r.Success,
		Results:        items,
		Count:          len(items),
		SearchTimeMS:   float64(r.Elapsed.Microseconds()) / 1000,
		Strategy:       string(r.Strategy),
		SuggestedChips: chips,
		Error:          r.Error,
		SearchID:       r.SearchID,
		AnalysisSource: r.AnalysisSource,
		Branches:       r.Branches,
	}
}

func productToDTO(p *product.Product, score float64) ProductResponse {
	return ProductResponse{
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
		Score:        score,
	}
}
