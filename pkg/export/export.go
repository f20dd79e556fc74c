// Package export writes analysis tables as CSV, JSON and XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
)

const dateLayout = "2006-01-02"

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ForecastRows returns the future horizon as (Date, Predicted Sales) rows.
func ForecastRows(res forecast.Result) [][]string {
	rows := make([][]string, len(res.Future))
	for i, p := range res.Future {
		rows[i] = []string{p.Date.Format(dateLayout), formatFloat(p.Value)}
	}
	return rows
}

// WriteForecastCSV writes the future horizon of res.
func WriteForecastCSV(w io.Writer, res forecast.Result) error {
	return writeCSV(w, []string{"Date", "Predicted Sales"}, ForecastRows(res))
}

var inventoryHeader = []string{"EOQ", "Safety Stock", "Reorder Point", "Avg Daily Demand", "Demand Std Dev", "Avg Lead Time"}

// WriteInventoryCSV writes the inventory policy table. keyHeader names the
// first column, usually "SKU" or "Category".
func WriteInventoryCSV(w io.Writer, keyHeader string, lines []inventory.Line) error {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{
			l.Key,
			formatFloat(l.EOQ),
			formatFloat(l.SafetyStock),
			formatFloat(l.ReorderPoint),
			formatFloat(l.AvgDemand),
			formatFloat(l.StdDemand),
			formatFloat(l.AvgLeadTime),
		}
	}
	return writeCSV(w, append([]string{keyHeader}, inventoryHeader...), rows)
}

var testsHeader = []string{"ID", "Hypothesis", "Statistics", "P-Value", "Alpha", "Decision"}

func statisticsLabel(stats []stattest.Statistic) string {
	var out []byte
	for i, s := range stats {
		if i > 0 {
			out = append(out, "; "...)
		}
		out = append(out, s.Name...)
		out = append(out, '=')
		out = strconv.AppendFloat(out, s.Value, 'g', 6, 64)
	}
	return string(out)
}

// WriteTestsCSV writes hypothesis test outcomes.
func WriteTestsCSV(w io.Writer, results []stattest.Result) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.ID,
			r.Title,
			statisticsLabel(r.Statistics),
			strconv.FormatFloat(r.PValue, 'g', 6, 64),
			formatFloat(r.Alpha),
			r.Decision,
		}
	}
	return writeCSV(w, testsHeader, rows)
}
