package stattest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactLimit is the largest smaller-sample size for which the exact null
// distribution of U is used when there are no ties.
const exactLimit = 8

// MannWhitneyU returns U for the first sample and the two-sided p-value.
func MannWhitneyU(a, b []float64) (Outcome, error) {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return Outcome{}, fmt.Errorf("mann-whitney: %w", ErrTooFewObservations)
	}
	all := append(append(make([]float64, 0, n1+n2), a...), b...)
	ranks, ties := rankData(all)
	var r1 float64
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	fn1, fn2 := float64(n1), float64(n2)
	u1 := r1 - fn1*(fn1+1)/2
	u2 := fn1*fn2 - u1
	big := math.Max(u1, u2)

	var p float64
	if len(ties) == 0 && min(n1, n2) <= exactLimit {
		p = 2 * exactUpperTail(n1, n2, big)
	} else {
		n := fn1 + fn2
		mu := fn1 * fn2 / 2
		sigma := math.Sqrt(fn1 * fn2 / 12 * ((n + 1) - tieSum(ties)/(n*(n-1))))
		if sigma == 0 {
			return Outcome{}, fmt.Errorf("mann-whitney: %w", ErrConstantInput)
		}
		z := (big - mu - 0.5) / sigma
		p = 2 * distuv.UnitNormal.Survival(z)
	}
	return Outcome{Statistic: u1, PValue: math.Min(1, p)}, nil
}

// exactUpperTail returns P(U >= u) under the null for sample sizes m and n.
// The counts are the coefficients of the Gaussian binomial [m+n choose m]_q.
func exactUpperTail(m, n int, u float64) float64 {
	if m > n {
		m, n = n, m
	}
	deg := m * n
	c := make([]float64, deg+1)
	c[0] = 1
	for i := 1; i <= m; i++ {
		// multiply by (1 - q^(n+i))
		shift := n + i
		for k := deg; k >= shift; k-- {
			c[k] -= c[k-shift]
		}
		// divide by (1 - q^i)
		for k := i; k <= deg; k++ {
			c[k] += c[k-i]
		}
	}
	var total, tail float64
	start := int(math.Ceil(u - 1e-9))
	for k, v := range c {
		total += v
		if k >= start {
			tail += v
		}
	}
	return tail / total
}
