package segmentation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

func rec(sku, supplier, customer string, sales, stock float64, revenue string) model.Record {
	return model.Record{
		Date:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SKU:           sku,
		Supplier:      supplier,
		Category:      "C",
		ProductFamily: "F",
		CustomerID:    customer,
		SalesQuantity: sales,
		StockLevel:    stock,
		Revenue:       decimal.RequireFromString(revenue),
	}
}

func TestSumBySortsDescendingStable(t *testing.T) {
	ds := model.NewDataset([]model.Record{
		rec("A", "S1", "c1", 5, 1, "1"),
		rec("B", "S2", "c1", 7, 1, "1"),
		rec("C", "S3", "c1", 5, 1, "1"),
		rec("A", "S1", "c1", 2, 1, "1"),
	})
	got := SumBy(ds, model.DimSupplier, model.SalesQuantity)
	want := []Bar{{"S1", 7}, {"S2", 7}, {"S3", 5}}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestRevenueByExactSums(t *testing.T) {
	ds := model.NewDataset([]model.Record{
		rec("A", "S", "c1", 1, 1, "0.1"),
		rec("A", "S", "c1", 1, 1, "0.2"),
		rec("A", "S", "c2", 1, 1, "0.3"),
	})
	got := RevenueBy(ds, model.DimCustomer)
	if got[0].Label != "c1" || got[0].Value != 0.3 {
		t.Fatalf("unexpected %v", got)
	}
}

func TestTurnoverRatioZeroStock(t *testing.T) {
	ds := model.NewDataset([]model.Record{
		rec("A", "S", "c", 10, 0, "1"),
		rec("B", "S", "c", 10, 4, "1"),
		rec("B", "S", "c", 10, 6, "1"),
	})
	got := TurnoverRatio(ds)
	if len(got) != 2 || got[0].Label != "A" || got[0].Value != 10 || got[1].Value != 4 {
		t.Fatalf("unexpected %v", got)
	}
}

func TestTopBottom(t *testing.T) {
	bars := []Bar{{"a", 5}, {"b", 4}, {"c", 3}, {"d", 2}}
	if top := Top(bars, 2); len(top) != 2 || top[0].Label != "a" {
		t.Fatalf("top %v", top)
	}
	if bot := Bottom(bars, 2); len(bot) != 2 || bot[0].Label != "c" || bot[1].Label != "d" {
		t.Fatalf("bottom %v", bot)
	}
	if len(Top(bars, 10)) != 4 || len(Bottom(bars, 10)) != 4 {
		t.Fatalf("short list should be returned whole")
	}
}

func TestViewsBuild(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 30; i++ {
		recs = append(recs, rec(fmt.Sprintf("SKU%02d", i), "S", fmt.Sprintf("c%02d", i), float64(i), 2, "10"))
	}
	ds := model.NewDataset(recs)
	for _, v := range Views() {
		panels, err := v.Build(ds)
		if err != nil {
			t.Fatalf("%s: %v", v.ID, err)
		}
		if len(panels) == 0 || !strings.Contains(panels[0].Title, "01-01-2024 to 01-01-2024") {
			t.Fatalf("%s: unexpected panels %v", v.ID, panels)
		}
	}
	v, err := Lookup("customer-revenue")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	panels, _ := v.Build(ds)
	if len(panels) != 2 || len(panels[0].Bars) != 15 || len(panels[1].Bars) != 15 {
		t.Fatalf("expected 15 customers per panel")
	}
	v, _ = Lookup("sku-sales")
	panels, _ = v.Build(ds)
	if panels[0].Bars[0].Label != "SKU29" || panels[1].Bars[19].Label != "SKU00" {
		t.Fatalf("unexpected sku ranking %v", panels)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("nope"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView got %v", err)
	}
	v, _ := Lookup("supplier-sales")
	if _, err := v.Build(model.NewDataset(nil)); !errors.Is(err, model.ErrEmptyDataset) {
		t.Fatalf("expected empty dataset error")
	}
}
