package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	forecasts int
	tests     int
	err       error
}

func (r *recordSink) RecordForecast(ForecastEvent) error {
	r.forecasts++
	return r.err
}

func (r *recordSink) RecordTestRun(TestRunEvent) error {
	r.tests++
	return nil
}

type forecastOnly struct{ n int }

func (f *forecastOnly) RecordForecast(ForecastEvent) error {
	f.n++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordForecast(ForecastEvent{Item: "SKU-1"}); err != nil {
		t.Fatalf("record forecast: %v", err)
	}
	if err := m.RecordTestRun(TestRunEvent{ID: "sales-normality"}); err != nil {
		t.Fatalf("record test: %v", err)
	}
	if s1.forecasts != 1 || s2.forecasts != 1 || s1.tests != 1 || s2.tests != 1 {
		t.Fatalf("events not forwarded")
	}
}

func TestMultiSinkSkipsUnsupported(t *testing.T) {
	f := &forecastOnly{}
	m := NewMultiSink(f, NopSink{})
	if err := m.RecordDatasetLoad(DatasetLoadEvent{Rows: 3}); err != nil {
		t.Fatalf("record load: %v", err)
	}
	if err := m.RecordForecast(ForecastEvent{}); err != nil {
		t.Fatalf("record forecast: %v", err)
	}
	if f.n != 1 {
		t.Fatalf("expected one forecast, got %d", f.n)
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordSink{}
	m := NewMultiSink(&recordSink{err: boom}, ok)
	err := m.RecordForecast(ForecastEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ok.forecasts != 1 {
		t.Fatalf("later sinks must still receive the event")
	}
}

func TestForecastEventFailed(t *testing.T) {
	if (ForecastEvent{}).Failed() {
		t.Fatalf("empty error must not be a failure")
	}
	if !(ForecastEvent{Error: "x"}).Failed() {
		t.Fatalf("expected failure")
	}
}
