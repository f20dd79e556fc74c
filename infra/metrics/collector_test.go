package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/eventbus"
)

type epochSink struct {
	coremetrics.NopSink
	mu     sync.Mutex
	epochs []coremetrics.TrainingEpochEvent
}

func (s *epochSink) RecordTrainingEpoch(ev coremetrics.TrainingEpochEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs = append(s.epochs, ev)
	return nil
}

func (s *epochSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.epochs)
}

func TestEventCollectorRecordsEpochs(t *testing.T) {
	bus := eventbus.New[forecast.Event](8)
	sink := &epochSink{}
	done := StartEventCollector(context.Background(), bus, sink)

	deadline := time.Now().Add(time.Second)
	for bus.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	bus.Publish(forecast.Event{RunID: "r", Item: "SKU-1", Epoch: 1, Epochs: 2, Loss: 0.3})
	bus.Publish(forecast.Event{RunID: "r", Item: "SKU-1", Epoch: 2, Epochs: 2, Loss: 0.2})
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	bus.Close()
	<-done

	if sink.count() != 2 {
		t.Fatalf("expected 2 epochs, got %d", sink.count())
	}
	if sink.epochs[1].Loss != 0.2 || sink.epochs[1].Item != "SKU-1" {
		t.Fatalf("unexpected event %+v", sink.epochs[1])
	}
}

func TestEventCollectorStopsOnCancel(t *testing.T) {
	bus := eventbus.New[forecast.Event](1)
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, &epochSink{})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("collector did not stop")
	}
}

func TestEventCollectorWithoutRecorder(t *testing.T) {
	done := StartEventCollector(context.Background(), eventbus.New[forecast.Event](1), &fakeForecastSink{})
	select {
	case <-done:
	default:
		t.Fatalf("expected immediate return for sinks without training support")
	}
}

type fakeForecastSink struct{}

func (fakeForecastSink) RecordForecast(coremetrics.ForecastEvent) error { return nil }
