package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

// Point is one observation of a dated series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Values extracts the values of pts.
func Values(pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}

// DailyTotals sums value per calendar day and returns the days in order.
func DailyTotals(ds *model.Dataset, value func(model.Record) float64) []Point {
	sums := make(map[time.Time]float64)
	for _, r := range ds.Records {
		y, m, d := r.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		sums[day] += value(r)
	}
	out := make([]Point, 0, len(sums))
	for d, v := range sums {
		out = append(out, Point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Difference replaces each value with its change from the previous
// observation. The first observation has no predecessor and becomes zero so
// it adds nothing to later aggregation.
func Difference(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i].Date = p.Date
		if i > 0 {
			out[i].Value = p.Value - pts[i-1].Value
		}
	}
	return out
}

// weekEnd returns the Sunday closing the Monday-Sunday week containing t.
func weekEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, (7-int(day.Weekday()))%7)
}

// WeeklySum resamples a daily series into weeks ending on Sunday. Weeks
// without observations are zero.
func WeeklySum(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}
	first := weekEnd(pts[0].Date)
	last := weekEnd(pts[len(pts)-1].Date)
	n := int(last.Sub(first).Hours()/(24*7)) + 1
	out := make([]Point, n)
	for i := range out {
		out[i].Date = first.AddDate(0, 0, 7*i)
	}
	for _, p := range pts {
		i := int(weekEnd(p.Date).Sub(first).Hours() / (24 * 7))
		out[i].Value += p.Value
	}
	return out
}

// RollingMean averages each value with up to window-1 predecessors.
func RollingMean(pts []Point, window int) []Point {
	out := make([]Point, len(pts))
	var sum float64
	for i, p := range pts {
		sum += p.Value
		if i >= window {
			sum -= pts[i-window].Value
		}
		n := min(i+1, window)
		out[i] = Point{Date: p.Date, Value: sum / float64(n)}
	}
	return out
}

// Scaler maps values linearly onto [0, 1].
type Scaler struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	scale float64
}

// FitScaler learns the range of x. A constant series maps to zero.
func FitScaler(x []float64) Scaler {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	s := Scaler{Min: lo, Max: hi, scale: hi - lo}
	if s.scale == 0 {
		s.scale = 1
	}
	return s
}

// Transform scales x.
func (s Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Min) / s.scale
	}
	return out
}

// Inverse maps one scaled value back to the original units.
func (s Scaler) Inverse(v float64) float64 { return v*s.scale + s.Min }

// Windows cuts s into input sequences of length steps and next-value
// targets.
func Windows(s []float64, steps int) ([][]float64, []float64) {
	if steps <= 0 || len(s) <= steps {
		return nil, nil
	}
	n := len(s) - steps
	xs := make([][]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = s[i : i+steps]
		ys[i] = s[i+steps]
	}
	return xs, ys
}

// MAPE is the mean absolute percentage error, as a fraction. Zero actuals
// are guarded by machine epsilon.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	eps := math.Nextafter(1, 2) - 1
	var s float64
	for i, a := range actual {
		s += math.Abs(a-predicted[i]) / math.Max(math.Abs(a), eps)
	}
	return s / float64(len(actual))
}
