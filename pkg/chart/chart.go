// Package chart renders analysis results as standalone echarts HTML pages.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/segmentation"
)

const dateLabel = "2006-01-02"

// Bar builds a bar chart for one segmentation panel.
func Bar(p segmentation.Panel) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: p.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: p.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: p.YLabel}),
	)
	labels := make([]string, len(p.Bars))
	data := make([]opts.BarData, len(p.Bars))
	for i, b := range p.Bars {
		labels[i] = b.Label
		data[i] = opts.BarData{Value: b.Value}
	}
	bar.SetXAxis(labels).AddSeries(p.YLabel, data)
	return bar
}

// RenderPanels writes all panels of a view to one page.
func RenderPanels(w io.Writer, title string, panels []segmentation.Panel) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, p := range panels {
		page.AddCharts(Bar(p))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// Forecast builds a line chart of the training and test history, the test
// predictions and the future horizon on a shared weekly axis.
func Forecast(res forecast.Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Weekly Sales Forecast for %s: %s", res.Level, res.Item),
			Subtitle: fmt.Sprintf("MAPE %.2f%%", res.MAPE*100),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Week"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Rolling Sales Quantity"}),
	)

	var axis []string
	index := make(map[string]int)
	for _, series := range [][]forecast.Point{res.Train, res.Test, res.Future} {
		for _, p := range series {
			k := p.Date.Format(dateLabel)
			if _, ok := index[k]; !ok {
				index[k] = len(axis)
				axis = append(axis, k)
			}
		}
	}
	align := func(pts []forecast.Point) []opts.LineData {
		data := make([]opts.LineData, len(axis))
		for _, p := range pts {
			data[index[p.Date.Format(dateLabel)]] = opts.LineData{Value: p.Value}
		}
		return data
	}
	line.SetXAxis(axis).
		AddSeries("Train", align(res.Train)).
		AddSeries("Test", align(res.Test)).
		AddSeries("Predicted", align(res.Predictions)).
		AddSeries("Future", align(res.Future))
	return line
}

// RenderForecast writes the forecast chart.
func RenderForecast(w io.Writer, res forecast.Result) error {
	if err := Forecast(res).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// Histogram builds a bar chart of simulated average daily demand.
func Histogram(sim inventory.Simulation) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Simulated Average Daily Demand for SKU " + sim.Key,
			Subtitle: fmt.Sprintf("mean %.2f, 90%% interval [%.2f, %.2f]", sim.Mean, sim.P05, sim.P95),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Average Daily Demand"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
	)
	labels := make([]string, len(sim.Histogram))
	data := make([]opts.BarData, len(sim.Histogram))
	for i, b := range sim.Histogram {
		labels[i] = fmt.Sprintf("%.1f", (b.Low+b.High)/2)
		data[i] = opts.BarData{Value: b.Count}
	}
	bar.SetXAxis(labels).AddSeries("Simulations", data)
	return bar
}

// RenderHistogram writes the simulation histogram.
func RenderHistogram(w io.Writer, sim inventory.Simulation) error {
	if err := Histogram(sim).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
