package model

import (
	"errors"
	"time"
)

// ErrEmptyDataset is returned when no usable records are available.
var ErrEmptyDataset = errors.New("dataset is empty")

// DateLayout is the day-first format used in chart titles.
const DateLayout = "02-01-2006"

// Dataset is an immutable, ordered set of records.
type Dataset struct {
	Records []Record
}

// NewDataset wraps records. The slice is not copied.
func NewDataset(records []Record) *Dataset { return &Dataset{Records: records} }

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// DateRange returns the earliest and latest record dates.
func (d *Dataset) DateRange() (time.Time, time.Time) {
	var minD, maxD time.Time
	for i, r := range d.Records {
		if i == 0 || r.Date.Before(minD) {
			minD = r.Date
		}
		if i == 0 || r.Date.After(maxD) {
			maxD = r.Date
		}
	}
	return minD, maxD
}

// RangeLabel renders the date range as "dd-mm-yyyy to dd-mm-yyyy".
func (d *Dataset) RangeLabel() string {
	start, end := d.DateRange()
	return start.Format(DateLayout) + " to " + end.Format(DateLayout)
}

// Unique returns the distinct values of dim in first-seen order.
func (d *Dataset) Unique(dim Dimension) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.Records {
		v := r.Value(dim)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Filter returns the records whose dim equals value.
func (d *Dataset) Filter(dim Dimension, value string) *Dataset {
	var out []Record
	for _, r := range d.Records {
		if r.Value(dim) == value {
			out = append(out, r)
		}
	}
	return &Dataset{Records: out}
}

// GroupBy partitions records by dim. Keys are returned in first-seen order.
func (d *Dataset) GroupBy(dim Dimension) ([]string, map[string][]Record) {
	groups := make(map[string][]Record)
	var keys []string
	for _, r := range d.Records {
		v := r.Value(dim)
		if _, ok := groups[v]; !ok {
			keys = append(keys, v)
		}
		groups[v] = append(groups[v], r)
	}
	return keys, groups
}

// Column extracts a numeric column.
func (d *Dataset) Column(f func(Record) float64) []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		out[i] = f(r)
	}
	return out
}

// Common column accessors.
func SalesQuantity(r Record) float64 { return r.SalesQuantity }
func StockLevel(r Record) float64    { return r.StockLevel }
func LeadTime(r Record) float64      { return r.LeadTimeDays }
func Revenue(r Record) float64       { return r.RevenueFloat() }
