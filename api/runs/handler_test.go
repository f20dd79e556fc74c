package runs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
)

type fakeStore struct {
	q    runlog.Query
	recs []runlog.Record
}

func (f *fakeStore) Runs(_ context.Context, q runlog.Query) ([]runlog.Record, error) {
	f.q = q
	return f.recs, nil
}

func TestParseQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/runs?kind=forecast&item=SKU-1&since=2024-01-01&until=2024-02-01T10:00:00Z&limit=5", nil)
	q, err := ParseQuery(r)
	require.NoError(t, err)
	assert.Equal(t, runlog.KindForecast, q.Kind)
	assert.Equal(t, "SKU-1", q.Item)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.Start)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), q.End)
	assert.Equal(t, 5, q.Limit)

	q, err = ParseQuery(httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, defaultLimit, q.Limit)
}

func TestHandler(t *testing.T) {
	store := &fakeStore{recs: []runlog.Record{{ID: "a", Kind: runlog.KindTests}}}
	rr := httptest.NewRecorder()
	NewHandler(store).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs?kind=tests", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, runlog.KindTests, store.q.Kind)
	assert.Contains(t, rr.Body.String(), `"id":"a"`)

	rr = httptest.NewRecorder()
	NewHandler(store).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	NewHandler(store).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
