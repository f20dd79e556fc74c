package metrics

import (
	"testing"

	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
)

type fakePublisher struct {
	topics []string
	values []any
	closed bool
}

func (f *fakePublisher) PublishJSON(topic string, v any) error {
	f.topics = append(f.topics, topic)
	f.values = append(f.values, v)
	return nil
}

func (f *fakePublisher) Close() { f.closed = true }

func TestMQTTSinkTopics(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub)
	if err := sink.RecordForecast(coremetrics.ForecastEvent{Level: "Category", Item: "Home/Garden"}); err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if err := sink.RecordTestRun(coremetrics.TestRunEvent{ID: "sales-normality"}); err != nil {
		t.Fatalf("test run: %v", err)
	}
	want := []string{"forecast/category/Home_Garden", "tests/sales-normality"}
	if len(pub.topics) != 2 || pub.topics[0] != want[0] || pub.topics[1] != want[1] {
		t.Fatalf("unexpected topics %v", pub.topics)
	}
	if ev, ok := pub.values[0].(coremetrics.ForecastEvent); !ok || ev.Item != "Home/Garden" {
		t.Fatalf("unexpected payload %#v", pub.values[0])
	}
	sink.Close()
	if !pub.closed {
		t.Fatalf("expected publisher closed")
	}
}
