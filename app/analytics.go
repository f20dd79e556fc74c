package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	coremon "github.com/CodeRockstar24/SCM-PredictiveModelling/core/monitoring"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/logger"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

// Analytics runs the analyses over a loaded dataset and records every run
// in the metrics sink and the run log.
type Analytics struct {
	ds         *model.Dataset
	forecaster *forecast.Forecaster
	inventory  inventory.Params
	simulation inventory.SimulationParams
	alpha      float64
	sink       coremetrics.MetricsSink
	runs       runlog.Store
	log        logger.Logger
}

// AnalyticsOptions holds the collaborators of Analytics. Nil sink, store and
// logger fall back to no-op implementations.
type AnalyticsOptions struct {
	Forecaster *forecast.Forecaster
	Inventory  inventory.Params
	Simulation inventory.SimulationParams
	Alpha      float64
	Sink       coremetrics.MetricsSink
	Runs       runlog.Store
	Log        logger.Logger
}

// NewAnalytics binds opts to the dataset.
func NewAnalytics(ds *model.Dataset, opts AnalyticsOptions) *Analytics {
	a := &Analytics{
		ds:         ds,
		forecaster: opts.Forecaster,
		inventory:  opts.Inventory,
		simulation: opts.Simulation,
		alpha:      opts.Alpha,
		sink:       opts.Sink,
		runs:       opts.Runs,
		log:        opts.Log,
	}
	if a.forecaster == nil {
		a.forecaster = forecast.New(forecast.Config{}, nil, nil)
	}
	if a.inventory == (inventory.Params{}) {
		a.inventory = inventory.DefaultParams()
	}
	if a.simulation == (inventory.SimulationParams{}) {
		a.simulation = inventory.DefaultSimulationParams()
	}
	if a.alpha == 0 {
		a.alpha = stattest.DefaultAlpha
	}
	if a.sink == nil {
		a.sink = coremetrics.NopSink{}
	}
	if a.runs == nil {
		a.runs = runlog.NopStore{}
	}
	if a.log == nil {
		a.log = logger.NopLogger{}
	}
	return a
}

// Dataset returns the analysed dataset.
func (a *Analytics) Dataset() *model.Dataset { return a.ds }

// InventoryParams returns the configured cost and service parameters.
func (a *Analytics) InventoryParams() inventory.Params { return a.inventory }

// SimulationParams returns the configured Monte Carlo parameters.
func (a *Analytics) SimulationParams() inventory.SimulationParams { return a.simulation }

// Alpha returns the configured significance level.
func (a *Analytics) Alpha() float64 { return a.alpha }

// Forecaster exposes the forecasting pipeline.
func (a *Analytics) Forecaster() *forecast.Forecaster { return a.forecaster }

// Inventory computes the SKU and category policy tables.
func (a *Analytics) Inventory(p inventory.Params) (sku, category []inventory.Line, err error) {
	sku, err = inventory.Plan(a.ds, model.DimSKU, p)
	if err != nil {
		return nil, nil, err
	}
	category, err = inventory.Plan(a.ds, model.DimCategory, p)
	if err != nil {
		return nil, nil, err
	}
	return sku, category, nil
}

// Simulate runs the Monte Carlo demand simulation for one SKU.
func (a *Analytics) Simulate(ctx context.Context, sku string, p inventory.SimulationParams) (inventory.Simulation, error) {
	started := time.Now()
	lines, err := inventory.Plan(a.ds, model.DimSKU, a.inventory)
	if err != nil {
		return inventory.Simulation{}, err
	}
	line, ok := inventory.Find(lines, sku)
	if !ok {
		return inventory.Simulation{}, fmt.Errorf("sku %q: %w", sku, inventory.ErrUnknownKey)
	}
	sim, err := inventory.Simulate(line, p)
	rec := runlog.Record{
		ID:       uuid.NewString(),
		Kind:     runlog.KindSimulate,
		Level:    model.DimSKU.String(),
		Item:     sku,
		Params:   map[string]any{"days": p.Days, "sims": p.Sims, "seed": p.Seed},
		Started:  started,
		Duration: time.Since(started),
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Summary = fmt.Sprintf("mean %.2f, p05 %.2f, p95 %.2f", sim.Mean, sim.P05, sim.P95)
	}
	a.appendRun(ctx, rec)
	return sim, err
}

// Forecast runs one forecast and records it.
func (a *Analytics) Forecast(ctx context.Context, req forecast.Request) (forecast.Result, error) {
	res, err := a.forecaster.Run(ctx, a.ds, req)
	a.recordForecast(ctx, req, res, err)
	return res, err
}

// ForecastBatch runs several forecasts concurrently and records each.
func (a *Analytics) ForecastBatch(ctx context.Context, reqs []forecast.Request) ([]forecast.BatchItem, error) {
	items, err := a.forecaster.RunBatch(ctx, a.ds, reqs)
	for _, it := range items {
		a.recordForecast(ctx, it.Request, it.Result, it.Err)
	}
	return items, err
}

func (a *Analytics) recordForecast(ctx context.Context, req forecast.Request, res forecast.Result, err error) {
	if res.Started.IsZero() {
		res.Started = time.Now()
	}
	id := res.RunID
	if id == "" {
		id = uuid.NewString()
	}
	ev := coremetrics.ForecastEvent{
		RunID:    id,
		Level:    req.Level,
		Item:     req.Item,
		MAPE:     res.MAPE,
		Duration: res.Duration,
		Time:     res.Started,
	}
	rec := runlog.Record{
		ID:       id,
		Kind:     runlog.KindForecast,
		Level:    req.Level,
		Item:     req.Item,
		Params:   map[string]any{"time_steps": res.TimeSteps, "horizon": len(res.Future)},
		Started:  res.Started,
		Duration: res.Duration,
	}
	if err != nil {
		ev.Error = err.Error()
		rec.Error = err.Error()
		if isServerError(err) {
			coremon.CaptureException(err, map[string]string{"module": "forecast", "item": req.Item})
		}
	} else {
		ev.Future = make([]coremetrics.ForecastPoint, len(res.Future))
		for i, p := range res.Future {
			ev.Future[i] = coremetrics.ForecastPoint{Date: p.Date, Value: p.Value}
		}
		mape := res.MAPE
		rec.MAPE = &mape
		rec.Summary = fmt.Sprintf("%d weeks forecast, final loss %.5f", len(res.Future), res.FinalLoss)
	}
	if serr := a.sink.RecordForecast(ev); serr != nil {
		a.log.Warnf("record forecast %s: %v", id, serr)
	}
	a.appendRun(ctx, rec)
}

// Tests evaluates every hypothesis at alpha.
func (a *Analytics) Tests(ctx context.Context, alpha float64) ([]stattest.Result, map[string]error) {
	started := time.Now()
	results, failed := stattest.RunAll(ctx, a.ds, alpha)
	for _, r := range results {
		a.recordTest(r, failed[r.ID])
	}
	rejected := 0
	for _, r := range results {
		if r.Decision == stattest.Reject {
			rejected++
		}
	}
	rec := runlog.Record{
		ID:       uuid.NewString(),
		Kind:     runlog.KindTests,
		Params:   map[string]any{"alpha": alpha},
		Summary:  fmt.Sprintf("%d tests, %d rejected, %d failed", len(results), rejected, len(failed)),
		Started:  started,
		Duration: time.Since(started),
	}
	if len(failed) > 0 {
		errs := make([]error, 0, len(failed))
		for id, err := range failed {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
		rec.Error = errors.Join(errs...).Error()
	}
	a.appendRun(ctx, rec)
	return results, failed
}

// Test evaluates a single hypothesis.
func (a *Analytics) Test(ctx context.Context, id string, alpha float64) (stattest.Result, error) {
	h, ok := stattest.Lookup(id)
	if !ok {
		return stattest.Result{}, fmt.Errorf("%w: %s", stattest.ErrUnknownHypothesis, id)
	}
	started := time.Now()
	res, err := h.Run(a.ds, alpha)
	if res.ID == "" {
		res = stattest.Result{ID: h.ID, Title: h.Title, Alpha: alpha}
	}
	a.recordTest(res, err)
	rec := runlog.Record{
		ID:       uuid.NewString(),
		Kind:     runlog.KindTests,
		Item:     id,
		Params:   map[string]any{"alpha": alpha},
		Started:  started,
		Duration: time.Since(started),
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Summary = fmt.Sprintf("p=%.4g: %s", res.PValue, res.Decision)
	}
	a.appendRun(ctx, rec)
	return res, err
}

func (a *Analytics) recordTest(r stattest.Result, err error) {
	rec, ok := a.sink.(coremetrics.TestRunRecorder)
	if !ok {
		return
	}
	ev := coremetrics.TestRunEvent{
		ID:       r.ID,
		PValue:   r.PValue,
		Alpha:    r.Alpha,
		Rejected: r.Decision == stattest.Reject,
		Time:     time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if serr := rec.RecordTestRun(ev); serr != nil {
		a.log.Warnf("record test %s: %v", r.ID, serr)
	}
}

// Runs queries the run history.
func (a *Analytics) Runs(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return a.runs.Query(ctx, q)
}

func (a *Analytics) appendRun(ctx context.Context, rec runlog.Record) {
	if err := a.runs.Append(ctx, rec); err != nil {
		a.log.Errorf("append run %s: %v", rec.ID, err)
	}
}

// isServerError reports errors that do not stem from the request or the
// data, such as training failures.
func isServerError(err error) bool {
	var insufficient *forecast.InsufficientDataError
	switch {
	case errors.As(err, &insufficient),
		errors.Is(err, forecast.ErrTimeStepsTooLarge),
		errors.Is(err, forecast.ErrUnsupportedLevel),
		errors.Is(err, forecast.ErrNoData),
		errors.Is(err, context.Canceled),
		errors.Is(err, validate.ErrInvalid):
		return false
	}
	return true
}
