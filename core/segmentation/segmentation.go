// Package segmentation ranks suppliers, product families, categories,
// customers and SKUs by sales and revenue.
package segmentation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

// Bar is one labelled value of a ranking.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Panel is a titled ranking ready to be charted.
type Panel struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
	Bars   []Bar  `json:"bars"`
}

// SumBy totals value per dim and returns the groups sorted descending.
// Ties keep first-seen order.
func SumBy(ds *model.Dataset, dim model.Dimension, value func(model.Record) float64) []Bar {
	keys, groups := ds.GroupBy(dim)
	out := make([]Bar, len(keys))
	for i, k := range keys {
		var s float64
		for _, r := range groups[k] {
			s += value(r)
		}
		out[i] = Bar{Label: k, Value: s}
	}
	sortDesc(out)
	return out
}

// RevenueBy totals revenue per dim using exact decimal arithmetic.
func RevenueBy(ds *model.Dataset, dim model.Dimension) []Bar {
	keys, groups := ds.GroupBy(dim)
	out := make([]Bar, len(keys))
	for i, k := range keys {
		total := decimal.Zero
		for _, r := range groups[k] {
			total = total.Add(r.Revenue)
		}
		out[i] = Bar{Label: k, Value: total.InexactFloat64()}
	}
	sortDesc(out)
	return out
}

// TurnoverRatio computes Σ sales / mean stock level per SKU. A zero mean
// stock level counts as 1 and non-finite ratios are dropped.
func TurnoverRatio(ds *model.Dataset) []Bar {
	keys, groups := ds.GroupBy(model.DimSKU)
	out := make([]Bar, 0, len(keys))
	for _, k := range keys {
		var sales, stock float64
		for _, r := range groups[k] {
			sales += r.SalesQuantity
			stock += r.StockLevel
		}
		mean := stock / float64(len(groups[k]))
		if mean == 0 || math.IsNaN(mean) {
			mean = 1
		}
		ratio := sales / mean
		if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
			continue
		}
		out = append(out, Bar{Label: k, Value: ratio})
	}
	sortDesc(out)
	return out
}

// Top returns the first n bars.
func Top(bars []Bar, n int) []Bar {
	if n >= len(bars) {
		return bars
	}
	return bars[:n]
}

// Bottom returns the last n bars, keeping descending order.
func Bottom(bars []Bar, n int) []Bar {
	if n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}

func sortDesc(b []Bar) {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Value > b[j].Value })
}
