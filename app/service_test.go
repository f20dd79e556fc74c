package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/api/analytics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/config"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
)

func history() *model.Dataset {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	cats := []string{"Toys", "Books", "Garden"}
	sups := []string{"Acme", "Globex", "Initech"}
	whs := []string{"North", "South"}
	var recs []model.Record
	for d := 0; d < 420; d++ {
		recs = append(recs, model.Record{
			Date:          start.AddDate(0, 0, d),
			SKU:           "SKU0",
			Category:      "Toys",
			ProductFamily: "Games",
			Supplier:      "Acme",
			CustomerID:    fmt.Sprintf("C%d", d%13),
			Revenue:       decimal.NewFromFloat(float64(20 + (d*37)%53)),
			SalesQuantity: float64(10 + (d*13)%17),
			StockLevel:    float64(40 + (d*7)%23),
			LeadTimeDays:  float64(2 + (d*5)%9),
			Warehouse:     whs[d%2],
		})
		if d%3 == 0 {
			recs = append(recs, model.Record{
				Date:           start.AddDate(0, 0, d),
				SKU:            fmt.Sprintf("SKU%d", 1+d%5),
				Category:       cats[(d/3)%3],
				ProductFamily:  "Misc",
				Supplier:       sups[(d/3)%3],
				CustomerID:     fmt.Sprintf("C%d", d%17),
				Revenue:        decimal.NewFromFloat(float64(5 + (d*11)%41)),
				SalesQuantity:  float64(1 + (d*7)%19),
				StockLevel:     float64(10 + (d*3)%29),
				LeadTimeDays:   float64(1 + (d*3)%7),
				ReturnQuantity: float64(d % 2),
				Warehouse:      whs[(d/3)%2],
			})
		}
	}
	for d := 0; d < 5; d++ {
		recs = append(recs, model.Record{
			Date: start.AddDate(0, 0, d), SKU: "SKU9", Category: "Books", Supplier: "Globex",
			CustomerID: "C1", Revenue: decimal.NewFromInt(9), SalesQuantity: 3, StockLevel: 4, LeadTimeDays: 2, Warehouse: "North",
		})
	}
	return model.NewDataset(recs)
}

type recordingSink struct {
	coremetrics.NopSink
	forecasts []coremetrics.ForecastEvent
	tests     []coremetrics.TestRunEvent
	requests  []coremetrics.RequestEvent
}

func (s *recordingSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	s.forecasts = append(s.forecasts, ev)
	return nil
}

func (s *recordingSink) RecordTestRun(ev coremetrics.TestRunEvent) error {
	s.tests = append(s.tests, ev)
	return nil
}

func (s *recordingSink) RecordRequest(ev coremetrics.RequestEvent) error {
	s.requests = append(s.requests, ev)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.RunLog.Path = filepath.Join(t.TempDir(), "runs.jsonl")
	cfg.Forecast = forecast.Config{TimeSteps: 4, Horizon: 3, Layers: []int{4}, Epochs: 2, BatchSize: 8, LearningRate: 0.01, Seed: 3}
	return cfg
}

func newTestService(t *testing.T) (*Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	svc, err := NewWithDataset(testConfig(t), history(), sink)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, sink
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestHealthz(t *testing.T) {
	svc, _ := newTestService(t)
	rr := get(t, svc.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestDashboard(t *testing.T) {
	svc, _ := newTestService(t)
	rr := get(t, svc.Handler(), "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "/api/segments/supplier-sales?format=html")
	assert.Equal(t, http.StatusNotFound, get(t, svc.Handler(), "/nope").Code)
}

func TestSegments(t *testing.T) {
	svc, sink := newTestService(t)
	h := svc.Handler()

	rr := get(t, h, "/api/segments")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "customer-revenue")

	rr = get(t, h, "/api/segments/sku-sales")
	require.Equal(t, http.StatusOK, rr.Code)
	var seg analytics.SegmentResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&seg))
	assert.Equal(t, "sku-sales", seg.ID)
	require.Len(t, seg.Panels, 2)
	assert.Equal(t, "SKU0", seg.Panels[0].Bars[0].Label)

	rr = get(t, h, "/api/segments/sku-sales?format=html")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "echarts")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/segments/unknown").Code)
	require.NotEmpty(t, sink.requests)
	assert.Equal(t, "GET /api/segments/{view}", sink.requests[len(sink.requests)-1].Route)
}

func TestInventoryEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Handler()

	rr := get(t, h, "/api/inventory?ordering_cost=100&service_level=0.9")
	require.Equal(t, http.StatusOK, rr.Code)
	var inv analytics.InventoryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&inv))
	assert.Equal(t, 100.0, inv.Params.OrderingCost)
	assert.Equal(t, 2.0, inv.Params.HoldingCost)
	assert.Len(t, inv.SKU, 7)
	assert.Len(t, inv.Category, 3)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/inventory?service_level=0.5").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/inventory?holding_cost=abc").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, func() int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/inventory", nil))
		return rr.Code
	}())
}

func TestSimulateEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Handler()

	rr := get(t, h, "/api/inventory/simulate?sku=SKU0&days=14&sims=200&seed=9")
	require.Equal(t, http.StatusOK, rr.Code)
	var sim struct {
		Key   string    `json:"key"`
		Means []float64 `json:"means"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sim))
	assert.Equal(t, "SKU0", sim.Key)
	assert.Len(t, sim.Means, 200)

	rr = get(t, h, "/api/inventory/simulate?sku=SKU0&format=html")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/inventory/simulate").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/inventory/simulate?sku=missing").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/inventory/simulate?sku=SKU0&days=3").Code)

	recs, err := svc.Analytics.Runs(context.Background(), runlog.Query{Kind: runlog.KindSimulate})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestTestsEndpoint(t *testing.T) {
	svc, sink := newTestService(t)
	h := svc.Handler()

	rr := get(t, h, "/api/tests?alpha=0.1")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp analytics.TestsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 0.1, resp.Alpha)
	assert.NotEmpty(t, resp.Results)
	assert.Len(t, sink.tests, len(resp.Results))

	rr = get(t, h, "/api/tests/stockouts-sales")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"stockouts-sales"`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/tests/missing").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/tests/stockouts-sales?alpha=2").Code)
}

func TestTestsEndpointWithInfiniteStatistic(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 8; i++ {
		cat, rev := "Toys", int64(10)
		if i%2 == 1 {
			cat, rev = "Books", 20
		}
		recs = append(recs, model.Record{
			Date:          time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC),
			SKU:           fmt.Sprintf("SKU%d", i%3),
			Category:      cat,
			Supplier:      "Acme",
			Warehouse:     "North",
			CustomerID:    fmt.Sprintf("C%d", i%4),
			Revenue:       decimal.NewFromInt(rev),
			SalesQuantity: float64(1 + i%5),
			StockLevel:    float64(10 + i*3%7),
			LeadTimeDays:  float64(2 + i%3),
		})
	}
	svc, err := NewWithDataset(testConfig(t), model.NewDataset(recs), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	h := svc.Handler()

	rr := get(t, h, "/api/tests")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp analytics.TestsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Results, 9)

	rr = get(t, h, "/api/tests/category-revenue")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `{"name":"F-Statistic","value":null}`)
}

func postForecast(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/forecast", bytes.NewBufferString(body)))
	return rr
}

func TestForecastEndpoint(t *testing.T) {
	svc, sink := newTestService(t)
	h := svc.Handler()

	rr := postForecast(t, h, `{"level":"sku","item":"SKU0","horizon":4}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res forecast.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Len(t, res.Future, 4)
	assert.Equal(t, model.DimSKU, res.Level)
	require.Len(t, sink.forecasts, 1)
	assert.False(t, sink.forecasts[0].Failed())
	assert.Len(t, sink.forecasts[0].Future, 4)

	rr = postForecast(t, h, `{"level":"sku","item":"SKU9"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Need at least")

	assert.Equal(t, http.StatusBadRequest, postForecast(t, h, `{"level":"sku"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postForecast(t, h, `{"level":"sku","item":"SKU0","time_steps":2}`).Code)
	assert.Equal(t, http.StatusBadRequest, postForecast(t, h, `{"level":"warehouse","item":"North"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postForecast(t, h, `not json`).Code)
	assert.Equal(t, http.StatusNotFound, postForecast(t, h, `{"level":"sku","item":"nothing"}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/api/forecast").Code)

	rr = get(t, h, "/api/runs?kind=forecast")
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []runlog.Record
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&runs))
	require.Len(t, runs, 4)
	var ok int
	for _, r := range runs {
		if r.Error == "" {
			ok++
			require.NotNil(t, r.MAPE)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestRunsEndpointRejectsBadQuery(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Handler()
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/runs?kind=other").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/runs?since=yesterday").Code)
	rr := get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestForecastBatchRecordsEachItem(t *testing.T) {
	svc, sink := newTestService(t)
	items, err := svc.Analytics.ForecastBatch(context.Background(), []forecast.Request{
		{Level: "sku", Item: "SKU0"},
		{Level: "sku", Item: "SKU9"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NoError(t, items[0].Err)
	assert.Error(t, items[1].Err)
	assert.Len(t, sink.forecasts, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	rr := get(t, svc.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
}
