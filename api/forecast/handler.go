// Package forecast exposes the demand forecasting pipeline over HTTP.
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/api"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/chart"
)

// Runner produces forecasts.
type Runner interface {
	Forecast(ctx context.Context, req forecast.Request) (forecast.Result, error)
}

// maxBody bounds the request payload.
const maxBody = 1 << 16

// NewHandler returns the POST /api/forecast handler.
func NewHandler(run Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req forecast.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			api.WriteError(w, r, fmt.Errorf("%w: %v", validate.ErrInvalid, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			api.WriteError(w, r, err)
			return
		}
		res, err := run.Forecast(r.Context(), req)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		if api.WantsHTML(r) {
			api.WriteHTML(w, r, func(buf *bytes.Buffer) error { return chart.RenderForecast(buf, res) })
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	})
}

// Register mounts the forecast route on mux.
func Register(mux *http.ServeMux, run Runner, sink coremetrics.MetricsSink) {
	mux.Handle("/api/forecast", api.Instrument("/api/forecast", sink, NewHandler(run)))
}
