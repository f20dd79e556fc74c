package metrics

import (
	"strings"

	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	coremqtt "github.com/CodeRockstar24/SCM-PredictiveModelling/core/mqtt"
)

// MQTTSink publishes finished forecasts and test outcomes as JSON so
// downstream planning tools can react to them.
type MQTTSink struct {
	pub coremqtt.Publisher
}

// NewMQTTSink wraps a connected publisher.
func NewMQTTSink(pub coremqtt.Publisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

func topicPart(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_").Replace(s)
}

// RecordForecast publishes to forecast/<level>/<item>.
func (s *MQTTSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	return s.pub.PublishJSON("forecast/"+topicPart(strings.ToLower(ev.Level))+"/"+topicPart(ev.Item), ev)
}

// RecordTestRun publishes to tests/<id>.
func (s *MQTTSink) RecordTestRun(ev coremetrics.TestRunEvent) error {
	return s.pub.PublishJSON("tests/"+topicPart(ev.ID), ev)
}

// Close disconnects the publisher.
func (s *MQTTSink) Close() { s.pub.Close() }
