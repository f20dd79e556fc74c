package inventory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

func TestEOQ(t *testing.T) {
	assert.Equal(t, 50.0, EOQ(50, 50, 2))
	assert.Equal(t, 0.0, EOQ(0, 50, 2))
	assert.Equal(t, 0.0, EOQ(-3, 50, 2))
	assert.Equal(t, 0.0, EOQ(10, 50, 0))
	assert.Equal(t, 22.36, EOQ(10, 50, 2))
}

func TestSafetyStock(t *testing.T) {
	// z(0.95) = 1.6448536
	assert.Equal(t, 6.58, SafetyStock(2, 4, 0.95))
	assert.Equal(t, 0.0, SafetyStock(0, 4, 0.95))
	assert.Equal(t, 0.0, SafetyStock(2, 0, 0.95))
}

func TestReorderPoint(t *testing.T) {
	assert.Equal(t, 46.58, ReorderPoint(10, 4, 6.58))
	assert.Equal(t, 1.5, ReorderPoint(0, 4, 1.5))
}

func TestPlan(t *testing.T) {
	ds := model.NewDataset([]model.Record{
		{SKU: "A", Category: "X", SalesQuantity: 10, LeadTimeDays: 4},
		{SKU: "A", Category: "X", SalesQuantity: 14, LeadTimeDays: 6},
		{SKU: "B", Category: "X", SalesQuantity: 5, LeadTimeDays: 2},
	})
	lines, err := Plan(ds, model.DimSKU, DefaultParams())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	a := lines[0]
	assert.Equal(t, "A", a.Key)
	assert.Equal(t, 12.0, a.AvgDemand)
	assert.InDelta(t, math.Sqrt(8), a.StdDemand, 1e-12)
	assert.Equal(t, 5.0, a.AvgLeadTime)
	assert.Equal(t, EOQ(12, 50, 2), a.EOQ)
	assert.Equal(t, SafetyStock(math.Sqrt(8), 5, 0.95), a.SafetyStock)

	b, ok := Find(lines, "B")
	require.True(t, ok)
	assert.Zero(t, b.StdDemand)
	assert.Zero(t, b.SafetyStock)

	cats, err := Plan(ds, model.DimCategory, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestPlanValidation(t *testing.T) {
	ds := model.NewDataset([]model.Record{{SKU: "A"}})
	p := DefaultParams()
	p.ServiceLevel = 0.5
	_, err := Plan(ds, model.DimSKU, p)
	assert.Error(t, err)

	_, err = Plan(model.NewDataset(nil), model.DimSKU, DefaultParams())
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
}

func TestSimulate(t *testing.T) {
	line := Line{Key: "A", AvgDemand: 20, StdDemand: 4}
	sim, err := Simulate(line, DefaultSimulationParams())
	require.NoError(t, err)
	assert.Len(t, sim.Means, 1000)
	assert.InDelta(t, 20, sim.Mean, 0.5)
	assert.Less(t, sim.P05, sim.Mean)
	assert.Greater(t, sim.P95, sim.Mean)
	total := 0
	for _, b := range sim.Histogram {
		total += b.Count
	}
	assert.Equal(t, 1000, total)
	assert.Len(t, sim.Histogram, 30)

	again, err := Simulate(line, DefaultSimulationParams())
	require.NoError(t, err)
	assert.Equal(t, sim.Means, again.Means)
}

func TestSimulateDrawsFromNormal(t *testing.T) {
	line := Line{Key: "B", AvgDemand: 8, StdDemand: 3}
	p := SimulationParams{Days: 7, Sims: 100, Bins: 5, Seed: 11}
	sim, err := Simulate(line, p)
	require.NoError(t, err)

	demand := distuv.Normal{Mu: 8, Sigma: 3, Src: simulationSource(11)}
	var sum float64
	for d := 0; d < 7; d++ {
		sum += math.Max(demand.Rand(), 0)
	}
	assert.Equal(t, sum/7, sim.Means[0])

	p.Seed = 12
	other, err := Simulate(line, p)
	require.NoError(t, err)
	assert.NotEqual(t, sim.Means, other.Means)
}

func TestSimulateClipsAtZero(t *testing.T) {
	sim, err := Simulate(Line{AvgDemand: -5, StdDemand: 0}, DefaultSimulationParams())
	require.NoError(t, err)
	for _, m := range sim.Means {
		if m != 0 {
			t.Fatalf("expected clipped mean 0 got %v", m)
		}
	}
	assert.Len(t, sim.Histogram, 1)
}

func TestSimulateValidation(t *testing.T) {
	p := DefaultSimulationParams()
	p.Days = 3
	_, err := Simulate(Line{}, p)
	assert.Error(t, err)
}
