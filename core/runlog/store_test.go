package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecords() []Record {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mape := 0.12
	return []Record{
		{ID: "a", Kind: KindForecast, Level: "SKU", Item: "SKU-1", MAPE: &mape, Started: base, Duration: time.Second},
		{ID: "b", Kind: KindTests, Summary: "9 tests", Started: base.Add(time.Hour)},
		{ID: "c", Kind: KindForecast, Level: "SKU", Item: "SKU-2", Error: "insufficient data", Started: base.Add(2 * time.Hour)},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append %s: %v", r.ID, err)
		}
	}

	all, err := store.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[2].MAPE == nil || *all[2].MAPE != 0.12 {
		t.Fatalf("mape not round-tripped: %+v", all[2])
	}

	forecasts, err := store.Query(ctx, Query{Kind: KindForecast})
	if err != nil {
		t.Fatalf("query kind: %v", err)
	}
	if len(forecasts) != 2 {
		t.Fatalf("expected 2 forecasts, got %d", len(forecasts))
	}

	one, err := store.Query(ctx, Query{Item: "SKU-1"})
	if err != nil || len(one) != 1 || one[0].ID != "a" {
		t.Fatalf("item filter failed: %v %+v", err, one)
	}

	base := sampleRecords()[0].Started
	ranged, err := store.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	if err != nil || len(ranged) != 1 || ranged[0].ID != "b" {
		t.Fatalf("time filter failed: %v %+v", err, ranged)
	}

	limited, err := store.Query(ctx, Query{Limit: 2})
	if err != nil || len(limited) != 2 || limited[0].ID != "c" || limited[1].ID != "b" {
		t.Fatalf("limit failed: %v %+v", err, limited)
	}
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "runs.jsonl"), 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStoreCancelled(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"), 1, 1, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Append(ctx, Record{ID: "x"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []Config{
		{Backend: "jsonl", Path: filepath.Join(dir, "r.jsonl")},
		{Backend: "sqlite", Path: filepath.Join(dir, "r.db")},
		{Backend: "none"},
	} {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: validate: %v", cfg.Backend, err)
		}
		s, err := Open(cfg)
		if err != nil {
			t.Fatalf("%s: open: %v", cfg.Backend, err)
		}
		if err := s.Append(context.Background(), Record{ID: "1", Kind: KindTests, Started: time.Now()}); err != nil {
			t.Fatalf("%s: append: %v", cfg.Backend, err)
		}
		_ = s.Close()
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.Backend != "jsonl" || c.Path != "runs.jsonl" || c.MaxSizeMB != 10 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	s := Config{Backend: "sqlite"}
	s.SetDefaults()
	if s.Path != "runs.db" {
		t.Fatalf("unexpected sqlite path %s", s.Path)
	}
	if err := (Config{Backend: "csv", Path: "x"}).Validate(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
