package metrics

import "github.com/CodeRockstar24/SCM-PredictiveModelling/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
