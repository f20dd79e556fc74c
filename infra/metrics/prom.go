package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
)

// PromSink exposes pipeline activity as Prometheus metrics.
type PromSink struct {
	forecasts    *prometheus.CounterVec
	forecastTime *prometheus.HistogramVec
	mape         *prometheus.GaugeVec
	trainLoss    *prometheus.GaugeVec
	datasetRows  *prometheus.GaugeVec
	tests        *prometheus.CounterVec
	pValue       *prometheus.GaugeVec
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.forecasts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scm_forecast_runs_total",
		Help: "Forecast runs by level and outcome",
	}, []string{"level", "status"})); err != nil {
		return nil, err
	}
	if s.forecastTime, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scm_forecast_duration_seconds",
		Help:    "Wall time of forecast runs including training",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"level"})); err != nil {
		return nil, err
	}
	if s.mape, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scm_forecast_mape",
		Help: "Mean absolute percentage error of the latest forecast per item",
	}, []string{"level", "item"})); err != nil {
		return nil, err
	}
	if s.trainLoss, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scm_training_loss",
		Help: "Training loss after the latest epoch per item",
	}, []string{"item"})); err != nil {
		return nil, err
	}
	if s.datasetRows, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scm_dataset_rows",
		Help: "Rows of the latest dataset load by kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.tests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scm_hypothesis_tests_total",
		Help: "Hypothesis test runs by test and decision",
	}, []string{"test", "decision"})); err != nil {
		return nil, err
	}
	if s.pValue, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scm_hypothesis_p_value",
		Help: "Latest p-value per hypothesis test",
	}, []string{"test"})); err != nil {
		return nil, err
	}
	if s.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scm_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scm_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordForecast counts the run and tracks its error and duration.
func (s *PromSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	if ev.Failed() {
		s.forecasts.WithLabelValues(ev.Level, "error").Inc()
		return nil
	}
	s.forecasts.WithLabelValues(ev.Level, "ok").Inc()
	s.forecastTime.WithLabelValues(ev.Level).Observe(ev.Duration.Seconds())
	s.mape.WithLabelValues(ev.Level, ev.Item).Set(ev.MAPE)
	return nil
}

// RecordTrainingEpoch sets the loss gauge for the item.
func (s *PromSink) RecordTrainingEpoch(ev coremetrics.TrainingEpochEvent) error {
	s.trainLoss.WithLabelValues(ev.Item).Set(ev.Loss)
	return nil
}

// RecordDatasetLoad sets the loaded and skipped row gauges.
func (s *PromSink) RecordDatasetLoad(ev coremetrics.DatasetLoadEvent) error {
	s.datasetRows.WithLabelValues("loaded").Set(float64(ev.Rows))
	s.datasetRows.WithLabelValues("skipped").Set(float64(ev.Skipped))
	s.datasetRows.WithLabelValues("bad_cells").Set(float64(ev.BadCells))
	return nil
}

// RecordTestRun counts the decision and keeps the latest p-value.
func (s *PromSink) RecordTestRun(ev coremetrics.TestRunEvent) error {
	decision := "fail_to_reject"
	switch {
	case ev.Error != "":
		decision = "error"
	case ev.Rejected:
		decision = "reject"
	}
	s.tests.WithLabelValues(ev.ID, decision).Inc()
	if ev.Error == "" {
		s.pValue.WithLabelValues(ev.ID).Set(ev.PValue)
	}
	return nil
}

// RecordRequest counts the request and observes its latency.
func (s *PromSink) RecordRequest(ev coremetrics.RequestEvent) error {
	s.requests.WithLabelValues(ev.Route, ev.Method, strconv.Itoa(ev.Status)).Inc()
	s.latency.WithLabelValues(ev.Route).Observe(ev.Duration.Seconds())
	return nil
}
