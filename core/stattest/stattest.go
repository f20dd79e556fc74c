// Package stattest implements the classical hypothesis tests used to probe
// the supply-chain dataset, and a registry of named business hypotheses
// built on top of them.
package stattest

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrTooFewObservations is returned when a sample is too small for the test.
	ErrTooFewObservations = errors.New("too few observations")
	// ErrConstantInput is returned when a sample has no variance.
	ErrConstantInput = errors.New("input is constant")
	// ErrNotEnoughGroups is returned when fewer than two groups exist.
	ErrNotEnoughGroups = errors.New("not enough groups for comparison")
	// ErrLengthMismatch is returned when paired samples differ in length.
	ErrLengthMismatch = errors.New("samples must have equal length")
)

// Outcome is the statistic and two-sided p-value of a test.
type Outcome struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	DF        float64 `json:"df,omitempty"`
}

// tTwoSided returns the two-sided tail probability of t under Student's t.
func tTwoSided(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*d.Survival(math.Abs(t)))
}

// correlationPValue tests r against zero with n-2 degrees of freedom.
func correlationPValue(r float64, n int) float64 {
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/((1-r)*(1+r)))
	return tTwoSided(t, df)
}

// Pearson returns the Pearson correlation coefficient of x and y.
func Pearson(x, y []float64) (Outcome, error) {
	if len(x) != len(y) {
		return Outcome{}, fmt.Errorf("pearson: %w", ErrLengthMismatch)
	}
	if len(x) < 2 {
		return Outcome{}, fmt.Errorf("pearson: %w", ErrTooFewObservations)
	}
	if isConstant(x) || isConstant(y) {
		return Outcome{}, fmt.Errorf("pearson: %w", ErrConstantInput)
	}
	if len(x) == 2 {
		// Two points always lie on a line; nothing is left to test.
		r := math.Copysign(1, (x[1]-x[0])*(y[1]-y[0]))
		return Outcome{Statistic: r, PValue: 1}, nil
	}
	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	return Outcome{Statistic: r, PValue: correlationPValue(r, len(x)), DF: float64(len(x) - 2)}, nil
}

// Spearman returns the rank correlation of x and y. Ties get average ranks.
func Spearman(x, y []float64) (Outcome, error) {
	if len(x) != len(y) {
		return Outcome{}, fmt.Errorf("spearman: %w", ErrLengthMismatch)
	}
	rx, _ := rankData(x)
	ry, _ := rankData(y)
	out, err := Pearson(rx, ry)
	if err != nil {
		return Outcome{}, fmt.Errorf("spearman: %w", errors.Unwrap(err))
	}
	return out, nil
}

// Regression is an ordinary least squares fit y = Intercept + Slope*x.
type Regression struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	PValue    float64 `json:"p_value"`
}

// LinearRegression fits y on x. The p-value tests a zero slope, which is the
// Pearson correlation test.
func LinearRegression(x, y []float64) (Regression, error) {
	corr, err := Pearson(x, y)
	if err != nil {
		return Regression{}, fmt.Errorf("regression: %w", errors.Unwrap(err))
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Regression{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(x, y, nil, alpha, beta),
		PValue:    corr.PValue,
	}, nil
}

// KruskalWallis tests whether the groups come from the same distribution.
// H is corrected for ties.
func KruskalWallis(groups ...[]float64) (Outcome, error) {
	if len(groups) < 2 {
		return Outcome{}, fmt.Errorf("kruskal: %w", ErrNotEnoughGroups)
	}
	var all []float64
	for _, g := range groups {
		if len(g) == 0 {
			return Outcome{}, fmt.Errorf("kruskal: empty group: %w", ErrTooFewObservations)
		}
		all = append(all, g...)
	}
	ranks, ties := rankData(all)
	n := float64(len(all))
	var h float64
	off := 0
	for _, g := range groups {
		var rs float64
		for i := range g {
			rs += ranks[off+i]
		}
		off += len(g)
		h += rs * rs / float64(len(g))
	}
	h = 12/(n*(n+1))*h - 3*(n+1)
	c := 1 - tieSum(ties)/(n*n*n-n)
	if c == 0 {
		return Outcome{}, fmt.Errorf("kruskal: %w", ErrConstantInput)
	}
	h /= c
	df := float64(len(groups) - 1)
	return Outcome{Statistic: h, PValue: distuv.ChiSquared{K: df}.Survival(h), DF: df}, nil
}

// OneWayANOVA returns the F statistic of a one-way analysis of variance.
func OneWayANOVA(groups ...[]float64) (Outcome, error) {
	if len(groups) < 2 {
		return Outcome{}, fmt.Errorf("anova: %w", ErrNotEnoughGroups)
	}
	var total, n float64
	for _, g := range groups {
		if len(g) == 0 {
			return Outcome{}, fmt.Errorf("anova: empty group: %w", ErrTooFewObservations)
		}
		for _, v := range g {
			total += v
		}
		n += float64(len(g))
	}
	k := float64(len(groups))
	if n <= k {
		return Outcome{}, fmt.Errorf("anova: %w", ErrTooFewObservations)
	}
	grand := total / n
	var ssb, ssw float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	d1, d2 := k-1, n-k
	if ssw == 0 {
		if ssb == 0 {
			return Outcome{}, fmt.Errorf("anova: %w", ErrConstantInput)
		}
		return Outcome{Statistic: math.Inf(1), PValue: 0, DF: d1}, nil
	}
	f := (ssb / d1) / (ssw / d2)
	return Outcome{Statistic: f, PValue: distuv.F{D1: d1, D2: d2}.Survival(f), DF: d1}, nil
}

// WelchTTest compares the means of two samples without assuming equal
// variances.
func WelchTTest(a, b []float64) (Outcome, error) {
	if len(a) < 2 || len(b) < 2 {
		return Outcome{}, fmt.Errorf("t-test: %w", ErrTooFewObservations)
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	sa, sb := va/float64(len(a)), vb/float64(len(b))
	if sa+sb == 0 {
		return Outcome{}, fmt.Errorf("t-test: %w", ErrConstantInput)
	}
	t := (ma - mb) / math.Sqrt(sa+sb)
	df := (sa + sb) * (sa + sb) / (sa*sa/float64(len(a)-1) + sb*sb/float64(len(b)-1))
	return Outcome{Statistic: t, PValue: tTwoSided(t, df), DF: df}, nil
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
