// Package analytics serves segmentation views, inventory policies and
// hypothesis tests over HTTP.
package analytics

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/api"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	coremetrics "github.com/CodeRockstar24/SCM-PredictiveModelling/core/metrics"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/segmentation"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/chart"
)

// Backend runs the analyses behind the handlers.
type Backend interface {
	Dataset() *model.Dataset
	InventoryParams() inventory.Params
	SimulationParams() inventory.SimulationParams
	Alpha() float64
	Inventory(p inventory.Params) (sku, category []inventory.Line, err error)
	Simulate(ctx context.Context, sku string, p inventory.SimulationParams) (inventory.Simulation, error)
	Tests(ctx context.Context, alpha float64) ([]stattest.Result, map[string]error)
	Test(ctx context.Context, id string, alpha float64) (stattest.Result, error)
}

// Register mounts the analytics routes on mux.
func Register(mux *http.ServeMux, b Backend, sink coremetrics.MetricsSink) {
	h := &handler{b: b}
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, api.Instrument(pattern, sink, fn))
	}
	route("GET /{$}", h.dashboard)
	route("GET /api/segments", h.listSegments)
	route("GET /api/segments/{view}", h.segment)
	route("GET /api/inventory", h.inventory)
	route("GET /api/inventory/simulate", h.simulate)
	route("GET /api/tests", h.tests)
	route("GET /api/tests/{id}", h.test)
}

type handler struct {
	b Backend
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ds := h.b.Dataset()
	d := chart.Dashboard{Title: "Supply Chain Analytics", Period: ds.RangeLabel(), Rows: ds.Len()}
	for _, v := range segmentation.Views() {
		d.Views = append(d.Views, chart.Link{Name: v.Name, Href: "/api/segments/" + v.ID + "?format=html"})
	}
	for _, t := range stattest.Hypotheses() {
		d.Tests = append(d.Tests, chart.Link{Name: t.Title, Href: "/api/tests/" + t.ID})
	}
	d.Other = []chart.Link{
		{Name: "Inventory optimisation", Href: "/api/inventory"},
		{Name: "Run history", Href: "/api/runs"},
		{Name: "Metrics", Href: "/metrics"},
	}
	api.WriteHTML(w, r, func(buf *bytes.Buffer) error { return chart.RenderDashboard(buf, d) })
}

func (h *handler) listSegments(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, segmentation.Views())
}

// SegmentResponse is the JSON form of a segmentation view.
type SegmentResponse struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Panels []segmentation.Panel `json:"panels"`
}

func (h *handler) segment(w http.ResponseWriter, r *http.Request) {
	view, err := segmentation.Lookup(r.PathValue("view"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	panels, err := view.Build(h.b.Dataset())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	if api.WantsHTML(r) {
		api.WriteHTML(w, r, func(buf *bytes.Buffer) error { return chart.RenderPanels(buf, view.Name, panels) })
		return
	}
	api.WriteJSON(w, http.StatusOK, SegmentResponse{ID: view.ID, Name: view.Name, Panels: panels})
}

// InventoryResponse holds the SKU and category policy tables.
type InventoryResponse struct {
	Params   inventory.Params `json:"params"`
	SKU      []inventory.Line `json:"sku"`
	Category []inventory.Line `json:"category"`
}

func (h *handler) inventory(w http.ResponseWriter, r *http.Request) {
	p := h.b.InventoryParams()
	var err error
	if p.OrderingCost, err = api.Float(r, "ordering_cost", p.OrderingCost); err != nil {
		api.WriteError(w, r, err)
		return
	}
	if p.HoldingCost, err = api.Float(r, "holding_cost", p.HoldingCost); err != nil {
		api.WriteError(w, r, err)
		return
	}
	if p.ServiceLevel, err = api.Float(r, "service_level", p.ServiceLevel); err != nil {
		api.WriteError(w, r, err)
		return
	}
	sku, category, err := h.b.Inventory(p)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, InventoryResponse{Params: p, SKU: sku, Category: category})
}

func (h *handler) simulate(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	if sku == "" {
		api.WriteJSON(w, http.StatusBadRequest, api.ErrorBody{Error: "sku is required"})
		return
	}
	p := h.b.SimulationParams()
	var err error
	if p.Days, err = api.Int(r, "days", p.Days); err != nil {
		api.WriteError(w, r, err)
		return
	}
	if p.Sims, err = api.Int(r, "sims", p.Sims); err != nil {
		api.WriteError(w, r, err)
		return
	}
	if s := r.URL.Query().Get("seed"); s != "" {
		if p.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			api.WriteError(w, r, err)
			return
		}
	}
	sim, err := h.b.Simulate(r.Context(), sku, p)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	if api.WantsHTML(r) {
		api.WriteHTML(w, r, func(buf *bytes.Buffer) error { return chart.RenderHistogram(buf, sim) })
		return
	}
	api.WriteJSON(w, http.StatusOK, sim)
}

// TestsResponse lists hypothesis outcomes. Errors are keyed by test id.
type TestsResponse struct {
	Alpha   float64           `json:"alpha"`
	Results []stattest.Result `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (h *handler) tests(w http.ResponseWriter, r *http.Request) {
	alpha, err := api.Float(r, "alpha", h.b.Alpha())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	results, failed := h.b.Tests(r.Context(), alpha)
	resp := TestsResponse{Alpha: alpha, Results: results}
	if len(failed) > 0 {
		resp.Errors = make(map[string]string, len(failed))
		for id, err := range failed {
			resp.Errors[id] = err.Error()
		}
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (h *handler) test(w http.ResponseWriter, r *http.Request) {
	alpha, err := api.Float(r, "alpha", h.b.Alpha())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	res, err := h.b.Test(r.Context(), r.PathValue("id"), alpha)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}
