package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes forecasts, dataset loads and test outcomes to InfluxDB
// so predicted weeks can be charted next to observed sales.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordForecast writes a run summary and one point per predicted week.
func (s *InfluxSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	run := write.NewPointWithMeasurement("forecast_run").
		AddTag("level", ev.Level).
		AddTag("item", ev.Item).
		AddTag("run_id", ev.RunID).
		AddField("duration_s", round3(ev.Duration.Seconds())).
		SetTime(ev.Time)
	if ev.Failed() {
		run = run.AddField("error", ev.Error)
	} else {
		run = run.AddField("mape", round3(ev.MAPE))
	}
	points := []*write.Point{run}
	for _, f := range ev.Future {
		points = append(points, write.NewPointWithMeasurement("sales_forecast").
			AddTag("level", ev.Level).
			AddTag("item", ev.Item).
			AddTag("run_id", ev.RunID).
			AddField("predicted", round3(f.Value)).
			SetTime(f.Date))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordDatasetLoad persists the row counts of a load.
func (s *InfluxSink) RecordDatasetLoad(ev coremetrics.DatasetLoadEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dataset_load").
		AddTag("source", ev.Source).
		AddField("rows", ev.Rows).
		AddField("skipped", ev.Skipped).
		AddField("bad_cells", ev.BadCells).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTestRun persists a hypothesis test outcome.
func (s *InfluxSink) RecordTestRun(ev coremetrics.TestRunEvent) error {
	if ev.Error != "" || math.IsNaN(ev.PValue) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("hypothesis_test").
		AddTag("test", ev.ID).
		AddField("p_value", ev.PValue).
		AddField("alpha", ev.Alpha).
		AddField("rejected", ev.Rejected).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
