package enums

import (
	"fmt"
	"strings"
)

// TaxType describes whether a product price includes tax.
type TaxType string

const (
	TaxTypeExclusive TaxType = "exclusive"
	TaxTypeInclusive TaxType = "inclusive"
)

var validTaxTypes = []TaxType{
	TaxTypeExclusive,
	TaxTypeInclusive,
}

// String implements fmt.Stringer.
func (t TaxType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxType.
func (t TaxType) IsValid() bool {
	for _, candidate := range validTaxTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxType converts raw input into a TaxType.
func ParseTaxType(value string) (TaxType, error) {
	for _, candidate := range validTaxTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax type %q", value)
}

// ResolveTaxType maps spreadsheet cell values onto a TaxType. Legacy exports
// encode the type as a numeric code (0 exclusive, 1 inclusive); newer ones use
// the label. Anything unresolvable falls back to exclusive.
func ResolveTaxType(value string) TaxType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "inclusive":
		return TaxTypeInclusive
	case "0", "exclusive":
		return TaxTypeExclusive
	default:
		return TaxTypeExclusive
	}
}
