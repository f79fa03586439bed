package classify

import (
	"regexp"
	"strings"
	"unicode"
)

// Identifier pattern names, in evaluation order.
const (
	IdentifierUPC       = "upc"
	IdentifierGTIN      = "gtin"
	IdentifierProductID = "product_id"
	IdentifierSKU       = "sku"
	IdentifierMPN       = "mpn"
	IdentifierCode      = "code"
)

type identifierPattern struct {
	name        string
	re          *regexp.Regexp
	needsLetter bool
	needsDigit  bool
	needsSep    bool
}

// Narrow patterns come first so each one stays reachable.
var identifierPatterns = []identifierPattern{
	{name: IdentifierUPC, re: regexp.MustCompile(`^\d{12}$`)},
	{name: IdentifierGTIN, re: regexp.MustCompile(`^\d{8,14}$`)},
	{name: IdentifierProductID, re: regexp.MustCompile(`^(?i:PROD|ID|P)[-_]?\d+$`)},
	{name: IdentifierSKU, re: regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`), needsLetter: true, needsDigit: true},
	{name: IdentifierMPN, re: regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9./-]{4,18}[A-Za-z0-9]$`), needsDigit: true, needsSep: true},
	{name: IdentifierCode, re: regexp.MustCompile(`^[A-Za-z0-9]{4,15}$`), needsDigit: true},
}

// matchIdentifier returns the first pattern the token satisfies.
func matchIdentifier(token string) (string, bool) {
	hasLetter := strings.IndexFunc(token, unicode.IsLetter) >= 0
	hasDigit := strings.IndexFunc(token, unicode.IsDigit) >= 0
	hasSep := strings.ContainsAny(token, "-./")
	for _, p := range identifierPatterns {
		if p.needsLetter && !hasLetter {
			continue
		}
		if p.needsDigit && !hasDigit {
			continue
		}
		if p.needsSep && !hasSep {
			continue
		}
		if p.re.MatchString(token) {
			return p.name, true
		}
	}
	return "", false
}
