// Package api holds helpers shared by the HTTP handlers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	coremon "github.com/CodeRockstar24/SCM-PredictiveModelling/core/monitoring"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/segmentation"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/internal/validate"
)

// ErrorBody is the JSON payload of failed requests.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON encodes v with the given status. Encoding happens before the
// header is written so failures still produce a JSON 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "api"})
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorBody{Error: err.Error()})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Status maps domain errors to HTTP status codes.
func Status(err error) int {
	var insufficient *forecast.InsufficientDataError
	switch {
	case errors.Is(err, validate.ErrInvalid),
		errors.Is(err, forecast.ErrUnsupportedLevel),
		errors.Is(err, strconv.ErrSyntax),
		errors.Is(err, strconv.ErrRange):
		return http.StatusBadRequest
	case errors.Is(err, segmentation.ErrUnknownView),
		errors.Is(err, stattest.ErrUnknownHypothesis),
		errors.Is(err, inventory.ErrUnknownKey),
		errors.Is(err, forecast.ErrNoData):
		return http.StatusNotFound
	case errors.As(err, &insufficient),
		errors.Is(err, forecast.ErrTimeStepsTooLarge),
		errors.Is(err, model.ErrEmptyDataset),
		errors.Is(err, stattest.ErrNotEnoughGroups),
		errors.Is(err, stattest.ErrTooFewObservations),
		errors.Is(err, stattest.ErrConstantInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteError writes err as JSON. Server side failures are reported to the
// monitor.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		coremon.CaptureException(err, map[string]string{"module": "api", "path": r.URL.Path})
	}
	WriteJSON(w, status, ErrorBody{Error: err.Error()})
}

// WantsHTML reports whether the client asked for a rendered page.
func WantsHTML(r *http.Request) bool { return r.URL.Query().Get("format") == "html" }

// WriteHTML renders into a buffer first so a failed render yields a 500.
func WriteHTML(w http.ResponseWriter, r *http.Request, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument records every request served by h under route on sinks
// implementing RequestRecorder.
func Instrument(route string, sink coremetrics.MetricsSink, h http.Handler) http.Handler {
	rec, ok := sink.(coremetrics.RequestRecorder)
	if !ok {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sr, r)
		_ = rec.RecordRequest(coremetrics.RequestEvent{
			Route:    route,
			Method:   r.Method,
			Status:   sr.status,
			Duration: time.Since(start),
		})
	})
}

// Float parses an optional float query parameter, returning def when absent.
func Float(r *http.Request, name string, def float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// Int parses an optional integer query parameter, returning def when absent.
func Int(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
