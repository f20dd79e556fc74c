package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `dataset:
  path: "data/sales.csv"
  columns:
    sku: "Item"
inventory:
  ordering_cost: 80
  service_level: 0.9
  simulation:
    days: 14
stats:
  alpha: 0.01
forecast:
  time_steps: 12
  epochs: 20
  layers: [32, 16]
server:
  addr: ":9000"
metrics:
  sinks:
    - type: "nop"
runlog:
  backend: "sqlite"
sentry:
  environment: "test"
logging:
  level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"dataset.path", cfg.Dataset.Path, "data/sales.csv"},
		{"dataset.columns.sku", cfg.Dataset.Columns.SKU, "Item"},
		{"dataset.columns.date default", cfg.Dataset.Columns.Date, "Date"},
		{"inventory.ordering_cost", cfg.Inventory.OrderingCost, 80.0},
		{"inventory.holding_cost default", cfg.Inventory.HoldingCost, 2.0},
		{"inventory.service_level", cfg.Inventory.ServiceLevel, 0.9},
		{"inventory.simulation.days", cfg.Inventory.Simulation.Days, 14},
		{"inventory.simulation.sims default", cfg.Inventory.Simulation.Sims, 1000},
		{"stats.alpha", cfg.Stats.Alpha, 0.01},
		{"forecast.time_steps", cfg.Forecast.TimeSteps, 12},
		{"forecast.epochs", cfg.Forecast.Epochs, 20},
		{"forecast.layers", len(cfg.Forecast.Layers), 2},
		{"forecast.horizon default", cfg.Forecast.Horizon, 52},
		{"server.addr", cfg.Server.Addr, ":9000"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"runlog.backend", cfg.RunLog.Backend, "sqlite"},
		{"runlog.path default", cfg.RunLog.Path, "runs.db"},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.format default", cfg.Logging.Format, "json"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"server":{"addr":":7000"},"stats":{"alpha":0.1}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Stats.Alpha != 0.1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("K_SERVER__ADDR", ":9100")
	t.Setenv("K_DATASET__PATH", "env.csv")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Fatalf("expected env override, got %s", cfg.Server.Addr)
	}
	if cfg.Dataset.Path != "env.csv" {
		t.Fatalf("expected dataset path from env, got %s", cfg.Dataset.Path)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.RunLog.Backend != "jsonl" || cfg.Stats.Alpha != 0.05 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for toml")
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"alpha":         "stats:\n  alpha: 1.5\n",
		"service_level": "inventory:\n  service_level: 0.5\n",
		"sims":          "inventory:\n  simulation:\n    sims: 5\n",
		"time_steps":    "forecast:\n  time_steps: 100\n",
		"runlog":        "runlog:\n  backend: \"redis\"\n",
		"sentry":        "sentry:\n  traces_sample_rate: 2\n",
		"logging":       "logging:\n  level: \"loud\"\n",
		"sink":          "metrics:\n  sinks:\n    - conf: {}\n",
		"dataset_auth":  "dataset:\n  url: \"https://example.com/export.csv\"\n  auth:\n    token_url: \"https://example.com/token\"\n",
		"metrics_addr":  "server:\n  addr: \":9000\"\n  metrics_addr: \":9000\"\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.yaml", data)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateWrapsErrInvalid(t *testing.T) {
	cfg := Default()
	cfg.Stats.Alpha = 2
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
