package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one order line of the supply-chain dataset.
type Record struct {
	Date           time.Time       `json:"date"`
	SKU            string          `json:"sku"`
	Category       string          `json:"category"`
	ProductFamily  string          `json:"product_family"`
	Supplier       string          `json:"supplier"`
	CustomerID     string          `json:"customer_id"`
	Revenue        decimal.Decimal `json:"revenue"`
	SalesQuantity  float64         `json:"sales_quantity"`
	StockLevel     float64         `json:"stock_level"`
	LeadTimeDays   float64         `json:"lead_time_days"`
	ReturnQuantity float64         `json:"return_quantity"`
	Warehouse      string          `json:"warehouse"`
}

// RevenueFloat returns the revenue as float64 for statistical use.
func (r Record) RevenueFloat() float64 { return r.Revenue.InexactFloat64() }

// Value returns the value of a categorical dimension.
func (r Record) Value(d Dimension) string {
	switch d {
	case DimSKU:
		return r.SKU
	case DimCategory:
		return r.Category
	case DimProductFamily:
		return r.ProductFamily
	case DimSupplier:
		return r.Supplier
	case DimCustomer:
		return r.CustomerID
	case DimWarehouse:
		return r.Warehouse
	default:
		return ""
	}
}
