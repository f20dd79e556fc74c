package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/api"
	analyticsapi "github.com/CodeRockstar24/SCM-PredictiveModelling/api/analytics"
	forecastapi "github.com/CodeRockstar24/SCM-PredictiveModelling/api/forecast"
	runsapi "github.com/CodeRockstar24/SCM-PredictiveModelling/api/runs"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/config"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	coremon "github.com/CodeRockstar24/SCM-PredictiveModelling/core/monitoring"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/dataset"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/logger"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/monitoring"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/eventbus"
)

// Service owns the loaded dataset and everything recording its analyses.
type Service struct {
	Analytics *Analytics
	cfg       *config.Config
	sink      coremetrics.MetricsSink
	runs      runlog.Store
	bus       *eventbus.Bus[forecast.Event]
	collector <-chan struct{}
	stop      context.CancelFunc
	log       logger.Logger
}

// New loads the configured dataset and builds a Service around it.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	ds, err := loadDataset(context.Background(), cfg.Dataset, sink, logger.New("dataset"))
	if err != nil {
		closeSink(sink)
		return nil, err
	}
	return NewWithDataset(cfg, ds, sink)
}

func loadDataset(ctx context.Context, cfg dataset.Config, sink coremetrics.MetricsSink, log logger.Logger) (*model.Dataset, error) {
	start := time.Now()
	ds, stats, err := dataset.Open(ctx, cfg)
	if err != nil {
		return nil, coremon.Report(fmt.Errorf("load dataset: %w", err), "dataset", "source", cfg.Source())
	}
	log.Infow("dataset loaded", map[string]any{
		"source": cfg.Source(), "rows": stats.Rows, "skipped": stats.Skipped, "bad_cells": stats.BadCells,
		"range": ds.RangeLabel(),
	})
	if rec, ok := sink.(coremetrics.DatasetLoadRecorder); ok {
		if err := rec.RecordDatasetLoad(coremetrics.DatasetLoadEvent{
			Source:   cfg.Source(),
			Rows:     stats.Rows,
			Skipped:  stats.Skipped,
			BadCells: stats.BadCells,
			Duration: time.Since(start),
			Time:     time.Now(),
		}); err != nil {
			log.Warnf("record dataset load: %v", err)
		}
	}
	return ds, nil
}

// NewWithDataset builds a Service over an already loaded dataset. A nil sink
// records nothing.
func NewWithDataset(cfg *config.Config, ds *model.Dataset, sink coremetrics.MetricsSink) (*Service, error) {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	runs, err := runlog.Open(cfg.RunLog)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("run log: %w", err)
	}
	bus := eventbus.New[forecast.Event](64)
	ctx, stop := context.WithCancel(context.Background())
	log := logger.New("service")
	s := &Service{
		cfg:       cfg,
		sink:      sink,
		runs:      runs,
		bus:       bus,
		collector: metrics.StartEventCollector(ctx, bus, sink),
		stop:      stop,
		log:       log,
	}
	s.Analytics = NewAnalytics(ds, AnalyticsOptions{
		Forecaster: forecast.New(cfg.Forecast, bus, logger.New("forecast")),
		Inventory:  cfg.Inventory.Params(),
		Simulation: cfg.Inventory.Simulation,
		Alpha:      cfg.Stats.Alpha,
		Sink:       sink,
		Runs:       runs,
		Log:        log,
	})
	return s, nil
}

// Handler returns the HTTP routes of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	analyticsapi.Register(mux, s.Analytics, s.sink)
	forecastapi.Register(mux, s.Analytics, s.sink)
	runsapi.Register(mux, s.Analytics, s.sink)
	if s.cfg.Server.MetricsAddr == "" {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": s.Analytics.Dataset().Len()})
	})
	return mux
}

// Run serves HTTP until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Duration(s.cfg.Server.HeaderTimeoutSeconds) * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	if addr := s.cfg.Server.MetricsAddr; addr != "" {
		s.log.Infof("metrics listening on %s", addr)
		g.Go(func() error { return metrics.StartPromServer(ctx, addr) })
	}
	g.Go(func() error {
		<-ctx.Done()
		timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return coremon.Report(err, "server")
	}
	return nil
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
}

// Close stops the event collector and releases sinks and the run log.
func (s *Service) Close() error {
	s.bus.Close()
	s.stop()
	<-s.collector
	closeSink(s.sink)
	coremon.Flush(2 * time.Second)
	return s.runs.Close()
}
