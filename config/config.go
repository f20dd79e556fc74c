package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/infra/dataset"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

func errInvalid(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalid, field, msg)
}

type Config struct {
	Dataset   dataset.Config  `json:"dataset"`
	Inventory InventoryConfig `json:"inventory"`
	Stats     StatsConfig     `json:"stats"`
	Forecast  forecast.Config `json:"forecast"`
	Server    ServerConfig    `json:"server"`
	Metrics   metrics.Config  `json:"metrics"`
	RunLog    runlog.Config   `json:"runlog"`
	Sentry    SentryConfig    `json:"sentry"`
	Logging   LoggingConfig   `json:"logging"`
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Dataset.SetDefaults()
	c.Inventory.SetDefaults()
	c.Stats.SetDefaults()
	c.Forecast.SetDefaults()
	c.Server.SetDefaults()
	c.RunLog.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	var errs []error
	if err := c.Dataset.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dataset: %w", err))
	}
	errs = append(errs,
		c.Inventory.Validate(),
		c.Stats.Validate(),
		c.Forecast.Validate(),
		c.Server.Validate(),
		c.RunLog.Validate(),
		c.Sentry.Validate(),
		c.Logging.Validate(),
	)
	for _, m := range c.Metrics.Sinks {
		if m.Type == "" {
			errs = append(errs, errInvalid("metrics.sinks", "entry without type"))
		}
	}
	return errors.Join(errs...)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads the YAML or JSON file at path, applies K_SECTION__KEY
// environment overrides, then defaults and validation. An empty path uses
// the environment and defaults only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
