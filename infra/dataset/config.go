package dataset

import (
	"fmt"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/auth"
)

// Columns maps dataset fields to CSV header names.
type Columns struct {
	Date           string `json:"date"`
	SKU            string `json:"sku"`
	Category       string `json:"category"`
	ProductFamily  string `json:"product_family"`
	Supplier       string `json:"supplier"`
	CustomerID     string `json:"customer_id"`
	Revenue        string `json:"revenue"`
	SalesQuantity  string `json:"sales_quantity"`
	StockLevel     string `json:"stock_level"`
	LeadTimeDays   string `json:"lead_time_days"`
	ReturnQuantity string `json:"return_quantity"`
	Warehouse      string `json:"warehouse"`
}

// DefaultColumns returns the headers of the e-commerce supply chain export.
func DefaultColumns() Columns {
	return Columns{
		Date:           "Date",
		SKU:            "SKU",
		Category:       "Category",
		ProductFamily:  "Product_Family_Name",
		Supplier:       "Supplier",
		CustomerID:     "Customer ID",
		Revenue:        "Revenue (USD)",
		SalesQuantity:  "Sales Quantity",
		StockLevel:     "Stock Level",
		LeadTimeDays:   "Lead Time (days)",
		ReturnQuantity: "Return Quantity",
		Warehouse:      "Warehouse Location",
	}
}

// Config describes where the dataset lives and how it is laid out. A URL
// takes precedence over Path and is fetched with the optional OAuth2 client
// credentials.
type Config struct {
	Path           string    `json:"path"`
	URL            string    `json:"url"`
	Auth           auth.Conf `json:"auth"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Delimiter      string    `json:"delimiter"`
	Columns        Columns   `json:"columns"`
}

// Source names the dataset location for logs and metrics.
func (c Config) Source() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Path
}

// SetDefaults fills empty header names with the defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" && c.URL == "" {
		c.Path = "ecommerce_supply_chain.csv"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	def := DefaultColumns()
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.Columns.Date, def.Date)
	fill(&c.Columns.SKU, def.SKU)
	fill(&c.Columns.Category, def.Category)
	fill(&c.Columns.ProductFamily, def.ProductFamily)
	fill(&c.Columns.Supplier, def.Supplier)
	fill(&c.Columns.CustomerID, def.CustomerID)
	fill(&c.Columns.Revenue, def.Revenue)
	fill(&c.Columns.SalesQuantity, def.SalesQuantity)
	fill(&c.Columns.StockLevel, def.StockLevel)
	fill(&c.Columns.LeadTimeDays, def.LeadTimeDays)
	fill(&c.Columns.ReturnQuantity, def.ReturnQuantity)
	fill(&c.Columns.Warehouse, def.Warehouse)
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Path == "" && c.URL == "" {
		return fmt.Errorf("dataset path or url is required")
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return nil
}
