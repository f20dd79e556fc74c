// Package runlog keeps a history of forecast and hypothesis test runs.
package runlog

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Kind classifies a run.
type Kind string

const (
	KindForecast Kind = "forecast"
	KindTests    Kind = "tests"
	KindSimulate Kind = "simulate"
)

// Record captures one run and its outcome.
type Record struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	Level    string         `json:"level,omitempty"`
	Item     string         `json:"item,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	MAPE     *float64       `json:"mape,omitempty"`
	Summary  string         `json:"summary,omitempty"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Error    string         `json:"error,omitempty"`
}

// Query filters records. Zero fields match everything. Limit keeps the most
// recent records.
type Query struct {
	Kind  Kind
	Item  string
	Start time.Time
	End   time.Time
	Limit int
}

// Matches reports whether r satisfies q, ignoring Limit.
func (q Query) Matches(r Record) bool {
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Item != "" && r.Item != q.Item {
		return false
	}
	if !q.Start.IsZero() && r.Started.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Started.After(q.End) {
		return false
	}
	return true
}

// Store persists Records and supports querying. Query returns the newest
// records first.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

func newestFirst(recs []Record, limit int) []Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Started.After(recs[j].Started) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// Config selects the store backend.
type Config struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("runlog: unknown backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("runlog: path is required")
	}
	return nil
}

// Open creates the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "none":
		return NopStore{}, nil
	default:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
}

// NopStore drops records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
