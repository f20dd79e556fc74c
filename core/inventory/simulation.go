package inventory

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

// SimulationParams controls a Monte Carlo demand run.
type SimulationParams struct {
	Days int    `json:"days" validate:"gte=7,lte=90"`
	Sims int    `json:"sims" validate:"gte=100,lte=10000"`
	Bins int    `json:"bins" validate:"gte=1,lte=200"`
	Seed uint64 `json:"seed"`
}

// DefaultSimulationParams returns 30 days, 1000 runs and 30 histogram bins.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{Days: 30, Sims: 1000, Bins: 30, Seed: 1}
}

// Validate checks parameter ranges.
func (p SimulationParams) Validate() error { return validate.Struct(p) }

// Bin is one histogram bucket [Low, High).
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Simulation holds the distribution of simulated average daily demand.
type Simulation struct {
	Key       string    `json:"key"`
	Means     []float64 `json:"means"`
	Mean      float64   `json:"mean"`
	P05       float64   `json:"p05"`
	P95       float64   `json:"p95"`
	Histogram []Bin     `json:"histogram"`
}

func simulationSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Simulate draws Sims paths of Days normal demands clipped at zero and
// reports the per-path means.
func Simulate(line Line, p SimulationParams) (Simulation, error) {
	if err := p.Validate(); err != nil {
		return Simulation{}, err
	}
	demand := distuv.Normal{Mu: line.AvgDemand, Sigma: line.StdDemand, Src: simulationSource(p.Seed)}
	means := make([]float64, p.Sims)
	for i := range means {
		var sum float64
		for d := 0; d < p.Days; d++ {
			sum += math.Max(demand.Rand(), 0)
		}
		means[i] = sum / float64(p.Days)
	}
	sorted := make([]float64, len(means))
	copy(sorted, means)
	sort.Float64s(sorted)
	return Simulation{
		Key:       line.Key,
		Means:     means,
		Mean:      stat.Mean(means, nil),
		P05:       stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:       stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Histogram: Histogram(sorted, p.Bins),
	}, nil
}

// Histogram buckets sorted values into n equal-width bins spanning
// [min, max]. The last bin is closed.
func Histogram(sorted []float64, n int) []Bin {
	if len(sorted) == 0 || n <= 0 {
		return nil
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Low: lo, High: hi, Count: len(sorted)}}
	}
	edges := make([]float64, n+1)
	floats.Span(edges, lo, hi)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Low: edges[i], High: edges[i+1]}
	}
	width := (hi - lo) / float64(n)
	for _, v := range sorted {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}
