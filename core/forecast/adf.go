package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrSeriesTooShort is returned when a series cannot support the test.
var ErrSeriesTooShort = errors.New("series too short")

// ADFResult is the outcome of an augmented Dickey-Fuller test with a
// constant term.
type ADFResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	UsedLag   int     `json:"used_lag"`
	NObs      int     `json:"nobs"`
}

// ADF tests x for a unit root. The number of lagged differences is chosen
// by AIC from 0 up to 12*(n/100)^(1/4).
func ADF(x []float64) (ADFResult, error) {
	n := len(x)
	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	maxlag = min(n/2-2, maxlag)
	if maxlag < 0 {
		return ADFResult{}, fmt.Errorf("adf: %d observations: %w", n, ErrSeriesTooShort)
	}
	dx := make([]float64, n-1)
	for i := range dx {
		dx[i] = x[i+1] - x[i]
	}

	// Select the lag on a common sample trimmed for maxlag.
	y, design := adfDesign(x, dx, maxlag)
	best, bestAIC := 0, math.Inf(1)
	for lag := 0; lag <= maxlag; lag++ {
		fit, err := ols(y, design, 2+lag)
		if err != nil {
			continue
		}
		if fit.aic < bestAIC {
			best, bestAIC = lag, fit.aic
		}
	}
	if math.IsInf(bestAIC, 1) {
		return ADFResult{}, fmt.Errorf("adf: regression is singular")
	}

	y, design = adfDesign(x, dx, best)
	fit, err := ols(y, design, 2+best)
	if err != nil {
		return ADFResult{}, fmt.Errorf("adf: %w", err)
	}
	stat := fit.tvalue(1)
	return ADFResult{Statistic: stat, PValue: mackinnonP(stat), UsedLag: best, NObs: len(y)}, nil
}

// adfDesign builds the regression of dx_t on [1, x_{t-1}, dx_{t-1}..dx_{t-lag}].
func adfDesign(x, dx []float64, lag int) ([]float64, *mat.Dense) {
	nobs := len(dx) - lag
	y := make([]float64, nobs)
	design := mat.NewDense(nobs, 2+lag, nil)
	for r := 0; r < nobs; r++ {
		t := r + lag
		y[r] = dx[t]
		design.Set(r, 0, 1)
		design.Set(r, 1, x[t])
		for j := 1; j <= lag; j++ {
			design.Set(r, 1+j, dx[t-j])
		}
	}
	return y, design
}

type olsFit struct {
	beta []float64
	cov  *mat.SymDense
	aic  float64
}

func (f olsFit) tvalue(j int) float64 {
	return f.beta[j] / math.Sqrt(f.cov.At(j, j))
}

// ols regresses y on the first k columns of design.
func ols(y []float64, design *mat.Dense, k int) (olsFit, error) {
	n, _ := design.Dims()
	if n <= k {
		return olsFit{}, ErrSeriesTooShort
	}
	xk := design.Slice(0, n, 0, k)
	var xtx mat.SymDense
	xtx.SymOuterK(1, xk.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return olsFit{}, errors.New("design matrix is not positive definite")
	}
	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(xk.T(), yv)
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return olsFit{}, err
	}
	var fitted mat.VecDense
	fitted.MulVec(xk, &beta)
	var ssr float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}
	if ssr == 0 {
		return olsFit{}, errors.New("perfect fit")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return olsFit{}, err
	}
	sigma2 := ssr / float64(n-k)
	inv.ScaleSym(sigma2, &inv)
	fn := float64(n)
	llf := -fn / 2 * (math.Log(2*math.Pi) + math.Log(ssr/fn) + 1)
	b := make([]float64, k)
	for i := range b {
		b[i] = beta.AtVec(i)
	}
	return olsFit{beta: b, cov: &inv, aic: -2*llf + 2*float64(k)}, nil
}

// MacKinnon (1994) response surface for the constant-only, single series
// case.
var (
	tauMax   = 2.74
	tauMin   = -18.83
	tauStar  = -1.61
	tauSmall = [3]float64{2.1659, 1.4412, 0.038269}
	tauLarge = [4]float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// mackinnonP returns the approximate p-value of an ADF statistic.
func mackinnonP(stat float64) float64 {
	if stat > tauMax {
		return 1
	}
	if stat < tauMin {
		return 0
	}
	var z float64
	if stat <= tauStar {
		z = tauSmall[0] + tauSmall[1]*stat + tauSmall[2]*stat*stat
	} else {
		z = tauLarge[0] + tauLarge[1]*stat + tauLarge[2]*stat*stat + tauLarge[3]*stat*stat*stat
	}
	return distuv.UnitNormal.CDF(z)
}
