// Package metrics defines the observability events emitted by the analytics
// pipelines and the sinks that record them. A sink must record forecast
// runs; the other recorder interfaces are optional and discovered by type
// assertion, so MultiSink forwards each event only to sinks supporting it.
package metrics

import "time"

// ForecastPoint is one predicted week.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ForecastEvent summarises a finished forecast run.
type ForecastEvent struct {
	RunID    string          `json:"run_id"`
	Level    string          `json:"level"`
	Item     string          `json:"item"`
	MAPE     float64         `json:"mape"`
	Duration time.Duration   `json:"duration"`
	Future   []ForecastPoint `json:"future,omitempty"`
	Error    string          `json:"error,omitempty"`
	Time     time.Time       `json:"time"`
}

// Failed reports whether the run ended in error.
func (e ForecastEvent) Failed() bool { return e.Error != "" }

// MetricsSink records forecast runs.
type MetricsSink interface {
	RecordForecast(ev ForecastEvent) error
}

// DatasetLoadEvent describes one dataset load.
type DatasetLoadEvent struct {
	Source   string
	Rows     int
	Skipped  int
	BadCells int
	Duration time.Duration
	Time     time.Time
}

// DatasetLoadRecorder records dataset loads.
type DatasetLoadRecorder interface {
	RecordDatasetLoad(ev DatasetLoadEvent) error
}

// TestRunEvent is the outcome of one hypothesis test.
type TestRunEvent struct {
	ID       string    `json:"id"`
	PValue   float64   `json:"p_value"`
	Alpha    float64   `json:"alpha"`
	Rejected bool      `json:"rejected"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// TestRunRecorder records hypothesis test outcomes.
type TestRunRecorder interface {
	RecordTestRun(ev TestRunEvent) error
}

// TrainingEpochEvent reports the loss after one training epoch.
type TrainingEpochEvent struct {
	RunID  string
	Item   string
	Epoch  int
	Epochs int
	Loss   float64
}

// TrainingRecorder records training progress.
type TrainingRecorder interface {
	RecordTrainingEpoch(ev TrainingEpochEvent) error
}

// RequestEvent describes one served HTTP request.
type RequestEvent struct {
	Route    string
	Method   string
	Status   int
	Duration time.Duration
}

// RequestRecorder records HTTP requests.
type RequestRecorder interface {
	RecordRequest(ev RequestEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordForecast(ForecastEvent) error           { return nil }
func (NopSink) RecordDatasetLoad(DatasetLoadEvent) error     { return nil }
func (NopSink) RecordTestRun(TestRunEvent) error             { return nil }
func (NopSink) RecordTrainingEpoch(TrainingEpochEvent) error { return nil }
func (NopSink) RecordRequest(RequestEvent) error             { return nil }
