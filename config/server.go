package config

// ServerConfig configures the HTTP listener. MetricsAddr, when set, moves
// /metrics to a second listener.
type ServerConfig struct {
	Addr                   string `json:"addr"`
	MetricsAddr            string `json:"metrics_addr"`
	HeaderTimeoutSeconds   int    `json:"header_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
}

// SetDefaults listens on :8080 with 5 second timeouts.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.HeaderTimeoutSeconds <= 0 {
		c.HeaderTimeoutSeconds = 5
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

// Validate checks the listen address.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errInvalid("server.addr", "is required")
	}
	if c.MetricsAddr != "" && c.MetricsAddr == c.Addr {
		return errInvalid("server.metrics_addr", "must differ from server.addr")
	}
	return nil
}
