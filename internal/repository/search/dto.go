package search

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain/product"
)

// tagSeparator is the TAG field separator the index is created with.
const tagSeparator = ","

// parseProduct converts flat hash fields into a Product.
// The sku field wins over the key suffix; entries with neither are dropped.
func parseProduct(key, prefix string, m map[string]string) (product.Product, bool) {
	p := product.Product{
		SKU:          strings.TrimSpace(m[product.FieldSKU]),
		Name:         m[product.FieldName],
		Brand:        m[product.FieldBrand],
		Description:  m[product.FieldDescription],
		Manufacturer: m[product.FieldManufacturer],
		MPN:          m[product.FieldMPN],
		GTIN:         m[product.FieldGTIN],
		UPC:          m[product.FieldUPC],
		ProductID:    m[product.FieldProductID],
		Price:        parseFloat(m[product.FieldPrice]),
		SalePrice:    parseFloat(m[product.FieldSalePrice]),
		SalesCount:   int64(parseFloat(m[product.FieldSalesCount])),
		InStock:      parseBool(m[product.FieldInStock]),
		Categories: [4]string{
			m[product.FieldCategoryL1],
			m[product.FieldCategoryL2],
			m[product.FieldCategoryL3],
			m[product.FieldCategoryL4],
		},
		DietaryTags: splitTags(m[product.FieldDietaryTags]),
	}
	if p.SKU == "" {
		p.SKU = strings.TrimPrefix(key, prefix)
	}
	return p, p.SKU != ""
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, tagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, strings.ToLower(t))
		}
	}
	return tags
}
