package segmentation

import (
	"errors"
	"fmt"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

// ErrUnknownView is returned by Lookup for unregistered identifiers.
var ErrUnknownView = errors.New("unknown view")

const (
	topCustomers = 15
	topSKUs      = 20
)

// View is a named visualisation over the dataset.
type View struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	build func(ds *model.Dataset, period string) []Panel
}

// Build renders the view panels for ds.
func (v View) Build(ds *model.Dataset) ([]Panel, error) {
	if ds.Len() == 0 {
		return nil, model.ErrEmptyDataset
	}
	return v.build(ds, ds.RangeLabel()), nil
}

var views = []View{
	{ID: "supplier-sales", Name: "Sales by Supplier", build: salesBy(model.DimSupplier)},
	{ID: "family-sales", Name: "Sales by Product Family", build: salesBy(model.DimProductFamily)},
	{ID: "category-sales", Name: "Sales by Category", build: salesBy(model.DimCategory)},
	{ID: "customer-revenue", Name: "Top & Bottom Customers by Revenue", build: customersByRevenue},
	{ID: "sku-sales", Name: "Top & Bottom SKUs by Sales Quantity", build: skusBySales},
	{ID: "stock-turnover", Name: "Stock Turnover Ratio (Top & Bottom SKUs)", build: stockTurnover},
}

// Views lists the available views in menu order.
func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

// Lookup returns the view with the given id.
func Lookup(id string) (View, error) {
	for _, v := range views {
		if v.ID == id {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("%w: %s", ErrUnknownView, id)
}

func salesBy(dim model.Dimension) func(*model.Dataset, string) []Panel {
	return func(ds *model.Dataset, period string) []Panel {
		return []Panel{{
			Title:  fmt.Sprintf("Total Sales Quantity by %s (%s)", dim, period),
			XLabel: dim.String(),
			YLabel: "Total Sales Quantity",
			Bars:   SumBy(ds, dim, model.SalesQuantity),
		}}
	}
}

func customersByRevenue(ds *model.Dataset, period string) []Panel {
	rev := RevenueBy(ds, model.DimCustomer)
	return []Panel{
		{
			Title:  fmt.Sprintf("Top %d Customers by Revenue (USD) (%s)", topCustomers, period),
			XLabel: "Customer ID",
			YLabel: "Total Revenue (USD)",
			Bars:   Top(rev, topCustomers),
		},
		{
			Title:  fmt.Sprintf("Bottom %d Customers by Revenue (USD) (%s)", topCustomers, period),
			XLabel: "Customer ID",
			YLabel: "Total Revenue (USD)",
			Bars:   Bottom(rev, topCustomers),
		},
	}
}

func skusBySales(ds *model.Dataset, period string) []Panel {
	sales := SumBy(ds, model.DimSKU, model.SalesQuantity)
	return []Panel{
		{
			Title:  fmt.Sprintf("Top %d Best-Selling SKUs (%s)", topSKUs, period),
			XLabel: "SKU",
			YLabel: "Total Sales Quantity",
			Bars:   Top(sales, topSKUs),
		},
		{
			Title:  fmt.Sprintf("Bottom %d Least-Selling SKUs (%s)", topSKUs, period),
			XLabel: "SKU",
			YLabel: "Total Sales Quantity",
			Bars:   Bottom(sales, topSKUs),
		},
	}
}

func stockTurnover(ds *model.Dataset, period string) []Panel {
	ratio := TurnoverRatio(ds)
	return []Panel{
		{
			Title:  fmt.Sprintf("Top %d SKUs by Stock Turnover Ratio (%s)", topSKUs, period),
			XLabel: "SKU",
			YLabel: "Stock Turnover Ratio",
			Bars:   Top(ratio, topSKUs),
		},
		{
			Title:  fmt.Sprintf("Bottom %d SKUs by Stock Turnover Ratio (%s)", topSKUs, period),
			XLabel: "SKU",
			YLabel: "Stock Turnover Ratio",
			Bars:   Bottom(ratio, topSKUs),
		},
	}
}
