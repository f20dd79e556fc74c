package model

import (
	"fmt"
	"strings"
)

// Dimension identifies a categorical column of the dataset.
type Dimension int

const (
	DimSKU Dimension = iota + 1
	DimCategory
	DimProductFamily
	DimSupplier
	DimCustomer
	DimWarehouse
)

func (d Dimension) String() string {
	switch d {
	case DimSKU:
		return "SKU"
	case DimCategory:
		return "Category"
	case DimProductFamily:
		return "Product Family"
	case DimSupplier:
		return "Supplier"
	case DimCustomer:
		return "Customer ID"
	case DimWarehouse:
		return "Warehouse"
	default:
		return "unknown"
	}
}

// ParseDimension maps a user supplied name to a Dimension.
func ParseDimension(s string) (Dimension, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	switch key {
	case "sku":
		return DimSKU, nil
	case "category":
		return DimCategory, nil
	case "productfamily", "family", "productfamilyname":
		return DimProductFamily, nil
	case "supplier":
		return DimSupplier, nil
	case "customer", "customerid":
		return DimCustomer, nil
	case "warehouse", "warehouselocation":
		return DimWarehouse, nil
	default:
		return 0, fmt.Errorf("unknown dimension %q", s)
	}
}

// MarshalText encodes the dimension by its display name.
func (d Dimension) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts any spelling ParseDimension understands.
func (d *Dimension) UnmarshalText(b []byte) error {
	v, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
