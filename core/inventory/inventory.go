// Package inventory derives order quantities, safety stock and reorder points
// from historical demand and lead times.
package inventory

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

// Params are the cost and service inputs of the optimisation.
type Params struct {
	OrderingCost float64 `json:"ordering_cost" validate:"gte=0"`
	HoldingCost  float64 `json:"holding_cost" validate:"gte=0"`
	ServiceLevel float64 `json:"service_level" validate:"gte=0.8,lte=0.99"`
}

// DefaultParams returns 50 per order, 2 per unit-year and 95% service.
func DefaultParams() Params {
	return Params{OrderingCost: 50, HoldingCost: 2, ServiceLevel: 0.95}
}

// Validate checks parameter ranges.
func (p Params) Validate() error { return validate.Struct(p) }

// Line is the inventory policy of one SKU or category.
type Line struct {
	Key          string  `json:"key"`
	AvgDemand    float64 `json:"avg_demand"`
	StdDemand    float64 `json:"std_demand"`
	AvgLeadTime  float64 `json:"avg_lead_time"`
	EOQ          float64 `json:"eoq"`
	SafetyStock  float64 `json:"safety_stock"`
	ReorderPoint float64 `json:"reorder_point"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// EOQ returns the economic order quantity sqrt(2DS/H), or 0 when demand is
// not positive or holding is free.
func EOQ(demand, orderingCost, holdingCost float64) float64 {
	if demand <= 0 || holdingCost == 0 {
		return 0
	}
	return round2(math.Sqrt(2 * demand * orderingCost / holdingCost))
}

// SafetyStock returns z*sigma*sqrt(L) with z the normal quantile of the
// service level.
func SafetyStock(stdDemand, leadTimeDays, serviceLevel float64) float64 {
	if stdDemand <= 0 || leadTimeDays <= 0 {
		return 0
	}
	z := distuv.UnitNormal.Quantile(serviceLevel)
	return round2(z * stdDemand * math.Sqrt(leadTimeDays))
}

// ReorderPoint is the expected lead-time demand plus safety stock.
func ReorderPoint(avgDemand, leadTimeDays, safetyStock float64) float64 {
	if avgDemand <= 0 || leadTimeDays <= 0 {
		return round2(safetyStock)
	}
	return round2(avgDemand*leadTimeDays + safetyStock)
}

// DemandStats returns mean and sample standard deviation of demand and mean
// lead time for a group of records. A single observation has zero spread.
func DemandStats(recs []model.Record) (avg, std, lead float64) {
	if len(recs) == 0 {
		return 0, 0, 0
	}
	demand := make([]float64, len(recs))
	leads := make([]float64, len(recs))
	for i, r := range recs {
		demand[i] = r.SalesQuantity
		leads[i] = r.LeadTimeDays
	}
	avg = stat.Mean(demand, nil)
	lead = stat.Mean(leads, nil)
	if len(recs) > 1 {
		std = stat.StdDev(demand, nil)
	}
	if math.IsNaN(std) {
		std = 0
	}
	return avg, std, lead
}

// Plan computes one policy line per value of dim, in first-seen order.
func Plan(ds *model.Dataset, dim model.Dimension, p Params) ([]Line, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, model.ErrEmptyDataset
	}
	keys, groups := ds.GroupBy(dim)
	out := make([]Line, len(keys))
	for i, k := range keys {
		avg, std, lead := DemandStats(groups[k])
		ss := SafetyStock(std, lead, p.ServiceLevel)
		out[i] = Line{
			Key:          k,
			AvgDemand:    avg,
			StdDemand:    std,
			AvgLeadTime:  lead,
			EOQ:          EOQ(avg, p.OrderingCost, p.HoldingCost),
			SafetyStock:  ss,
			ReorderPoint: ReorderPoint(avg, lead, ss),
		}
	}
	return out, nil
}

// ErrUnknownKey is returned when no policy line exists for a key.
var ErrUnknownKey = errors.New("unknown key")

// Find returns the line with the given key.
func Find(lines []Line, key string) (Line, bool) {
	for _, l := range lines {
		if l.Key == key {
			return l, true
		}
	}
	return Line{}, false
}
