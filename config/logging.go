package config

import "fmt"

// LoggingConfig selects the application log level and output format.
type LoggingConfig struct {
	// Level is a zerolog level name such as "debug" or "warn".
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
}

// SetDefaults applies info level JSON output.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks the level and format names.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return errInvalid("logging.level", fmt.Sprintf("unknown level %q", c.Level))
	}
	if c.Format != "json" && c.Format != "console" {
		return errInvalid("logging.format", "must be json or console")
	}
	return nil
}
