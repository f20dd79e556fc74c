package stattest

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Limits of the exact p-value. Beyond them the matrix grows too large and
// the p-value is far below any usable alpha anyway.
const (
	ksExactMaxN   = 10000
	ksExactMaxDim = 401
)

// KSNormal runs a one-sample Kolmogorov-Smirnov test of x against a normal
// distribution with the sample mean and standard deviation.
func KSNormal(x []float64) (Outcome, error) {
	if len(x) < 3 {
		return Outcome{}, fmt.Errorf("ks: %w", ErrTooFewObservations)
	}
	mean, std := stat.MeanStdDev(x, nil)
	if std == 0 {
		return Outcome{}, fmt.Errorf("ks: %w", ErrConstantInput)
	}
	return KSTest(x, distuv.Normal{Mu: mean, Sigma: std}.CDF)
}

// KSTest runs a one-sample Kolmogorov-Smirnov test of x against cdf. The
// p-value comes from the exact distribution of D when that is tractable and
// from the limiting distribution with Stephens' correction otherwise.
func KSTest(x []float64, cdf func(float64) float64) (Outcome, error) {
	if len(x) == 0 {
		return Outcome{}, fmt.Errorf("ks: %w", ErrTooFewObservations)
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	n := float64(len(s))
	var d float64
	for i, v := range s {
		f := cdf(v)
		d = math.Max(d, math.Max(float64(i+1)/n-f, f-float64(i)/n))
	}
	return Outcome{Statistic: d, PValue: ksSurvival(len(s), d)}, nil
}

// ksSurvival returns P(D_n > d).
func ksSurvival(n int, d float64) float64 {
	if n <= ksExactMaxN && 2*int(float64(n)*d)+1 <= ksExactMaxDim {
		return math.Max(0, math.Min(1, 1-kolmogorovCDF(n, d)))
	}
	sqrtN := math.Sqrt(float64(n))
	return kolmogorovQ((sqrtN + 0.12 + 0.11/sqrtN) * d)
}

// kolmogorovCDF returns P(D_n <= d) following Marsaglia, Tsang and Wang,
// "Evaluating Kolmogorov's Distribution" (2003).
func kolmogorovCDF(n int, d float64) float64 {
	nd := float64(n) * d
	switch {
	case nd <= 0.5:
		return 0
	case d >= 1:
		return 1
	}
	k := int(nd) + 1
	m := 2*k - 1
	h := float64(k) - nd

	hm := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m && j <= i+1; j++ {
			hm.Set(i, j, 1)
		}
	}
	for i := 0; i < m; i++ {
		hm.Set(i, 0, hm.At(i, 0)-math.Pow(h, float64(i+1)))
		hm.Set(m-1, i, hm.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		hm.Set(m-1, 0, hm.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m && j <= i; j++ {
			v := hm.At(i, j)
			for g := 2; g <= i-j+1; g++ {
				v /= float64(g)
			}
			hm.Set(i, j, v)
		}
	}

	q, exp := scaledPow(hm, n, k-1)
	s := q.At(k-1, k-1)
	for i := 1; i <= n; i++ {
		s *= float64(i) / float64(n)
		if s < 1e-140 {
			s *= 1e140
			exp -= 140
		}
	}
	return s * math.Pow(10, float64(exp))
}

// scaledPow returns a^n as a matrix and a power of ten, rescaling whenever
// the centre element overflows 1e140.
func scaledPow(a *mat.Dense, n, centre int) (*mat.Dense, int) {
	if n == 1 {
		return mat.DenseCopyOf(a), 0
	}
	half, exp := scaledPow(a, n/2, centre)
	var out mat.Dense
	out.Mul(half, half)
	exp *= 2
	if n%2 == 1 {
		out.Mul(a, &out)
	}
	if out.At(centre, centre) > 1e140 {
		out.Scale(1e-140, &out)
		exp += 140
	}
	return &out, exp
}

// kolmogorovQ is the survival function of the Kolmogorov distribution.
func kolmogorovQ(lambda float64) float64 {
	if lambda < 0.2 {
		return 1
	}
	var sum float64
	sign := 1.0
	for j := 1; j <= 100; j++ {
		fj := float64(j)
		term := sign * math.Exp(-2*fj*fj*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	return math.Max(0, math.Min(1, 2*sum))
}
