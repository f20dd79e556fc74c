package stattest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareResult extends Outcome with the expected frequencies.
type ChiSquareResult struct {
	Outcome
	Expected [][]float64 `json:"expected"`
}

// ChiSquareContingency tests independence of the rows and columns of an
// observed frequency table. Yates' continuity correction is applied when the
// table has one degree of freedom.
func ChiSquareContingency(observed [][]float64) (ChiSquareResult, error) {
	rows := len(observed)
	if rows == 0 || len(observed[0]) == 0 {
		return ChiSquareResult{}, fmt.Errorf("chi-square: %w", ErrTooFewObservations)
	}
	cols := len(observed[0])
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	var total float64
	for i, row := range observed {
		if len(row) != cols {
			return ChiSquareResult{}, fmt.Errorf("chi-square: ragged table: %w", ErrLengthMismatch)
		}
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total == 0 {
		return ChiSquareResult{}, fmt.Errorf("chi-square: %w", ErrTooFewObservations)
	}
	expected := make([][]float64, rows)
	for i := range expected {
		expected[i] = make([]float64, cols)
		for j := range expected[i] {
			expected[i][j] = rowSum[i] * colSum[j] / total
			if expected[i][j] == 0 {
				return ChiSquareResult{}, fmt.Errorf("chi-square: zero expected frequency at (%d,%d)", i, j)
			}
		}
	}
	dof := (rows - 1) * (cols - 1)
	res := ChiSquareResult{Expected: expected}
	res.DF = float64(dof)
	if dof == 0 {
		res.PValue = 1
		return res, nil
	}
	var chi2 float64
	for i := range observed {
		for j, o := range observed[i] {
			e := expected[i][j]
			diff := e - o
			if dof == 1 {
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			chi2 += (o - e) * (o - e) / e
		}
	}
	res.Statistic = chi2
	res.PValue = distuv.ChiSquared{K: float64(dof)}.Survival(chi2)
	return res, nil
}
