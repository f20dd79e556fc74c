// Package runs exposes the run history over HTTP.
package runs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/api"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

// Querier lists recorded runs.
type Querier interface {
	Runs(ctx context.Context, q runlog.Query) ([]runlog.Record, error)
}

const defaultLimit = 100

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time %q", validate.ErrInvalid, s)
	}
	return t, nil
}

// ParseQuery reads kind, item, since, until and limit from the request.
func ParseQuery(r *http.Request) (runlog.Query, error) {
	v := r.URL.Query()
	q := runlog.Query{Kind: runlog.Kind(v.Get("kind")), Item: v.Get("item")}
	switch q.Kind {
	case "", runlog.KindForecast, runlog.KindTests, runlog.KindSimulate:
	default:
		return q, fmt.Errorf("%w: unknown kind %q", validate.ErrInvalid, q.Kind)
	}
	var err error
	if q.Start, err = ParseTime(v.Get("since")); err != nil {
		return q, err
	}
	if q.End, err = ParseTime(v.Get("until")); err != nil {
		return q, err
	}
	if q.Limit, err = api.Int(r, "limit", defaultLimit); err != nil {
		return q, err
	}
	return q, nil
}

// NewHandler returns the GET /api/runs handler.
func NewHandler(store Querier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := ParseQuery(r)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		recs, err := store.Runs(r.Context(), q)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		if recs == nil {
			recs = []runlog.Record{}
		}
		api.WriteJSON(w, http.StatusOK, recs)
	})
}

// Register mounts the runs route on mux.
func Register(mux *http.ServeMux, store Querier, sink coremetrics.MetricsSink) {
	mux.Handle("/api/runs", api.Instrument("/api/runs", sink, NewHandler(store)))
}
