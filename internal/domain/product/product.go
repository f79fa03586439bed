package product

import "strings"

// Backend field names of a product document.
const (
	FieldSKU          = "sku"
	FieldSKUText      = "sku_text"
	FieldMPN          = "mpn"
	FieldMPNText      = "mpn_text"
	FieldGTIN         = "gtin"
	FieldUPC          = "upc"
	FieldProductID    = "product_id"
	FieldName         = "name"
	FieldBrand        = "brand"
	FieldDescription  = "description"
	FieldManufacturer = "manufacturer"
	FieldCategoryL1   = "category_l1"
	FieldCategoryL2   = "category_l2"
	FieldCategoryL3   = "category_l3"
	FieldCategoryL4   = "category_l4"
	FieldPrice        = "price"
	FieldSalePrice    = "sale_price"
	FieldSalesCount   = "sales_count"
	FieldInStock      = "in_stock"
	FieldDietaryTags  = "dietary_tags"
	FieldVector       = "vector"
)

// IdentifierFields are the tag fields an exact lookup matches against.
var IdentifierFields = []string{FieldSKU, FieldMPN, FieldGTIN, FieldUPC, FieldProductID}

// Product is a catalog document as read from the search backend.
// The core only reads and annotates copies; SKU is the identity.
type Product struct {
	SKU          string
	Name         string
	Brand        string
	Price        float64
	SalePrice    float64
	SalesCount   int64
	InStock      bool
	Categories   [4]string
	Description  string
	Manufacturer string
	MPN          string
	GTIN         string
	UPC          string
	ProductID    string
	DietaryTags  []string
}

// CategoryPath returns the non-empty category levels, most general first.
func (p *Product) CategoryPath() []string {
	path := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		if c != "" {
			path = append(path, c)
		}
	}
	return path
}

// SearchText is the lower-cased name, description and brand used for concept matching.
func (p *Product) SearchText() string {
	return strings.ToLower(p.Name + " " + p.Description + " " + p.Brand)
}
