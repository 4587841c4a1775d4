package enums

import "fmt"

// ProductType determines how a paid order is fulfilled.
type ProductType string

const (
	ProductTypeCreditPack      ProductType = "credit_pack"
	ProductTypeBrandingService ProductType = "branding_service"
	ProductTypeSubscription    ProductType = "subscription"
)

var validProductTypes = []ProductType{
	ProductTypeCreditPack,
	ProductTypeBrandingService,
	ProductTypeSubscription,
}

// String implements fmt.Stringer.
func (t ProductType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
