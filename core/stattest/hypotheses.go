package stattest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

// ErrUnknownHypothesis is returned for unregistered hypothesis ids.
var ErrUnknownHypothesis = errors.New("unknown hypothesis")

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.05

const (
	Reject     = "Reject H₀"
	FailReject = "Fail to Reject H₀"
)

// Decide maps a p-value to the decision at level alpha.
func Decide(p, alpha float64) string {
	if p < alpha {
		return Reject
	}
	return FailReject
}

// Statistic is a named value reported by a test.
type Statistic struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MarshalJSON encodes non-finite values, such as the F statistic of groups
// without within-group variance, as null.
func (s Statistic) MarshalJSON() ([]byte, error) {
	type plain struct {
		Name  string   `json:"name"`
		Value *float64 `json:"value"`
	}
	out := plain{Name: s.Name}
	if !math.IsInf(s.Value, 0) && !math.IsNaN(s.Value) {
		v := s.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// Result is the outcome of a named hypothesis on the dataset.
type Result struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Statistics []Statistic    `json:"statistics"`
	PValue     float64        `json:"p_value"`
	Alpha      float64        `json:"alpha"`
	Decision   string         `json:"decision"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Hypothesis is a business question answered by one statistical test.
type Hypothesis struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	run   func(ds *model.Dataset) (Result, error)
}

// Run evaluates the hypothesis on ds at significance alpha.
func (h Hypothesis) Run(ds *model.Dataset, alpha float64) (Result, error) {
	if ds.Len() == 0 {
		return Result{}, model.ErrEmptyDataset
	}
	if alpha <= 0 || alpha >= 1 {
		return Result{}, fmt.Errorf("%w: alpha must be in (0,1), got %v", validate.ErrInvalid, alpha)
	}
	res, err := h.run(ds)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", h.ID, err)
	}
	res.ID = h.ID
	res.Title = h.Title
	res.Alpha = alpha
	res.Decision = Decide(res.PValue, alpha)
	return res, nil
}

var hypotheses = []Hypothesis{
	{
		ID:    "stockouts-sales",
		Name:  "Stockouts reduce sales (Pearson Correlation)",
		Title: "Stockouts Reduce Sales (Pearson Correlation)",
		run:   stockoutsSales,
	},
	{
		ID:    "leadtime-sales",
		Name:  "Longer lead times lower sales (Linear Regression)",
		Title: "Longer Lead Times Lower Sales (Linear Regression)",
		run:   leadTimeSales,
	},
	{
		ID:    "supplier-revenue",
		Name:  "Supplier revenue distribution (Kruskal-Wallis Test)",
		Title: "Supplier Revenue Distribution (Kruskal-Wallis Test)",
		run:   supplierRevenue,
	},
	{
		ID:    "frequency-revenue",
		Name:  "Frequent buyers generate higher revenue (Spearman Correlation)",
		Title: "Frequent Buyers Generate Higher Revenue (Spearman Correlation)",
		run:   frequencyRevenue,
	},
	{
		ID:    "category-revenue",
		Name:  "Certain categories generate higher revenue (ANOVA)",
		Title: "Certain Categories Generate Higher Revenue (ANOVA)",
		run:   categoryRevenue,
	},
	{
		ID:    "category-returns",
		Name:  "Category vs Returns (Chi-Square Test)",
		Title: "Category vs Returns (Chi-Square Test)",
		run:   categoryReturns,
	},
	{
		ID:    "warehouse-revenue",
		Name:  "Warehouse revenue difference (Mann-Whitney U Test)",
		Title: "Warehouse Revenue Difference (Mann-Whitney U Test)",
		run:   warehouseRevenue,
	},
	{
		ID:    "sales-normality",
		Name:  "Sales distribution normality (Kolmogorov-Smirnov Test)",
		Title: "Sales Distribution Normality (Kolmogorov-Smirnov Test)",
		run:   salesNormality,
	},
	{
		ID:    "supplier-leadtime",
		Name:  "Lead time difference between two suppliers (T-Test)",
		Title: "Lead Time Difference Between Two Suppliers (T-Test)",
		run:   supplierLeadTime,
	},
}

// Hypotheses lists the registered hypotheses in menu order.
func Hypotheses() []Hypothesis {
	out := make([]Hypothesis, len(hypotheses))
	copy(out, hypotheses)
	return out
}

// Lookup finds a hypothesis by id.
func Lookup(id string) (Hypothesis, bool) {
	for _, h := range hypotheses {
		if h.ID == id {
			return h, true
		}
	}
	return Hypothesis{}, false
}

// RunAll evaluates every hypothesis concurrently. Results keep registry
// order. A failed hypothesis keeps only ID, Title and Alpha, and its error is
// returned keyed by ID.
func RunAll(ctx context.Context, ds *model.Dataset, alpha float64) ([]Result, map[string]error) {
	results := make([]Result, len(hypotheses))
	errs := make([]error, len(hypotheses))
	g, ctx := errgroup.WithContext(ctx)
	for i, h := range hypotheses {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			res, err := h.Run(ds, alpha)
			if err != nil {
				errs[i] = err
				res = Result{ID: h.ID, Title: h.Title, Alpha: alpha}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	failed := make(map[string]error)
	for i, err := range errs {
		if err != nil {
			failed[hypotheses[i].ID] = err
		}
	}
	return results, failed
}

func outcomeResult(statName string, o Outcome) Result {
	return Result{Statistics: []Statistic{{Name: statName, Value: o.Statistic}}, PValue: o.PValue}
}

func groupValues(ds *model.Dataset, dim model.Dimension, value func(model.Record) float64) [][]float64 {
	keys, groups := ds.GroupBy(dim)
	out := make([][]float64, len(keys))
	for i, k := range keys {
		vals := make([]float64, len(groups[k]))
		for j, r := range groups[k] {
			vals[j] = value(r)
		}
		out[i] = vals
	}
	return out
}

func stockoutsSales(ds *model.Dataset) (Result, error) {
	o, err := Pearson(ds.Column(model.StockLevel), ds.Column(model.SalesQuantity))
	if err != nil {
		return Result{}, err
	}
	return outcomeResult("Correlation Coefficient (r)", o), nil
}

func leadTimeSales(ds *model.Dataset) (Result, error) {
	reg, err := LinearRegression(ds.Column(model.LeadTime), ds.Column(model.SalesQuantity))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Statistics: []Statistic{
			{Name: "R²", Value: reg.RSquared},
			{Name: "Slope", Value: reg.Slope},
			{Name: "Intercept", Value: reg.Intercept},
		},
		PValue: reg.PValue,
	}, nil
}

func supplierRevenue(ds *model.Dataset) (Result, error) {
	o, err := KruskalWallis(groupValues(ds, model.DimSupplier, model.Revenue)...)
	if err != nil {
		return Result{}, err
	}
	return outcomeResult("Kruskal-Wallis Statistic", o), nil
}

func frequencyRevenue(ds *model.Dataset) (Result, error) {
	keys, groups := ds.GroupBy(model.DimCustomer)
	freq := make([]float64, len(keys))
	monetary := make([]float64, len(keys))
	for i, k := range keys {
		freq[i] = float64(len(groups[k]))
		for _, r := range groups[k] {
			monetary[i] += r.RevenueFloat()
		}
	}
	o, err := Spearman(freq, monetary)
	if err != nil {
		return Result{}, err
	}
	return outcomeResult("Spearman Correlation (ρ)", o), nil
}

func categoryRevenue(ds *model.Dataset) (Result, error) {
	o, err := OneWayANOVA(groupValues(ds, model.DimCategory, model.Revenue)...)
	if err != nil {
		return Result{}, err
	}
	return outcomeResult("F-Statistic", o), nil
}

// categoryReturns crosses category with "has returns". Only outcomes that
// occur in the data become columns.
func categoryReturns(ds *model.Dataset) (Result, error) {
	keys, groups := ds.GroupBy(model.DimCategory)
	var seenFalse, seenTrue bool
	counts := make([][2]float64, len(keys))
	for i, k := range keys {
		for _, r := range groups[k] {
			if r.ReturnQuantity > 0 {
				counts[i][1]++
				seenTrue = true
			} else {
				counts[i][0]++
				seenFalse = true
			}
		}
	}
	table := make([][]float64, len(keys))
	for i, c := range counts {
		var row []float64
		if seenFalse {
			row = append(row, c[0])
		}
		if seenTrue {
			row = append(row, c[1])
		}
		table[i] = row
	}
	res, err := ChiSquareContingency(table)
	if err != nil {
		return Result{}, err
	}
	out := outcomeResult("Chi-Square Statistic", res.Outcome)
	out.Statistics = append(out.Statistics, Statistic{Name: "Degrees of Freedom", Value: res.DF})
	out.Extra = map[string]any{"categories": keys, "observed": table, "expected": res.Expected}
	return out, nil
}

func firstTwo(ds *model.Dataset, dim model.Dimension, value func(model.Record) float64) ([]float64, []float64, []string, error) {
	keys := ds.Unique(dim)
	if len(keys) < 2 {
		return nil, nil, nil, ErrNotEnoughGroups
	}
	a := ds.Filter(dim, keys[0]).Column(value)
	b := ds.Filter(dim, keys[1]).Column(value)
	return a, b, keys[:2], nil
}

func warehouseRevenue(ds *model.Dataset) (Result, error) {
	a, b, keys, err := firstTwo(ds, model.DimWarehouse, model.Revenue)
	if err != nil {
		return Result{}, fmt.Errorf("not enough warehouse locations for comparison: %w", err)
	}
	o, err := MannWhitneyU(a, b)
	if err != nil {
		return Result{}, err
	}
	res := outcomeResult("Mann-Whitney U Statistic", o)
	res.Extra = map[string]any{"groups": keys}
	return res, nil
}

func salesNormality(ds *model.Dataset) (Result, error) {
	o, err := KSNormal(ds.Column(model.SalesQuantity))
	if err != nil {
		return Result{}, err
	}
	return outcomeResult("KS Statistic", o), nil
}

func supplierLeadTime(ds *model.Dataset) (Result, error) {
	a, b, keys, err := firstTwo(ds, model.DimSupplier, model.LeadTime)
	if err != nil {
		return Result{}, fmt.Errorf("not enough suppliers for comparison: %w", err)
	}
	o, err := WelchTTest(a, b)
	if err != nil {
		return Result{}, err
	}
	res := outcomeResult("T-Statistic", o)
	res.Extra = map[string]any{"groups": keys}
	return res, nil
}
