package metrics

import (
	"context"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	coremon "github.com/CodeRockstar24/SCM-PredictiveModelling/core/monitoring"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/eventbus"
)

// StartEventCollector subscribes to training progress and records it on
// sinks implementing TrainingRecorder. It stops when the context is
// canceled or the bus is closed. The returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[forecast.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.TrainingRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		defer coremon.Recover()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordTrainingEpoch(coremetrics.TrainingEpochEvent{
					RunID:  ev.RunID,
					Item:   ev.Item,
					Epoch:  ev.Epoch,
					Epochs: ev.Epochs,
					Loss:   ev.Loss,
				})
			}
		}
	}()
	return done
}
