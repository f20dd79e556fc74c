package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/inventory"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
)

// Sheet names of the report workbook.
const (
	SheetInventory         = "Inventory"
	SheetCategoryInventory = "Category Inventory"
	SheetForecast          = "Forecast"
	SheetTests             = "Statistical Tests"
)

// Report collects the tables of the workbook. Empty parts still get a
// sheet with headers.
type Report struct {
	SKUInventory      []inventory.Line
	CategoryInventory []inventory.Line
	Forecast          *forecast.Result
	Tests             []stattest.Result
}

type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (s *sheetWriter) row(sheet string, r int, values ...any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(sheet, cell, &values)
}

func (s *sheetWriter) header(sheet string, names ...string) {
	if s.err != nil {
		return
	}
	values := make([]any, len(names))
	for i, n := range names {
		values[i] = n
	}
	s.row(sheet, 1, values...)
	last, err := excelize.CoordinatesToCellName(len(names), 1)
	if err != nil {
		s.err = err
		return
	}
	if s.err == nil {
		s.err = s.f.SetCellStyle(sheet, "A1", last, s.bold)
	}
	if s.err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(names))
		s.err = s.f.SetColWidth(sheet, "A", lastCol, 18)
	}
}

func (s *sheetWriter) inventory(sheet, key string, lines []inventory.Line) {
	s.header(sheet, append([]string{key}, inventoryHeader...)...)
	for i, l := range lines {
		s.row(sheet, i+2, l.Key, l.EOQ, l.SafetyStock, l.ReorderPoint, l.AvgDemand, l.StdDemand, l.AvgLeadTime)
	}
}

// WriteWorkbook renders r as an XLSX workbook.
func WriteWorkbook(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetInventory); err != nil {
		return err
	}
	for _, name := range []string{SheetCategoryInventory, SheetForecast, SheetTests} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	s := &sheetWriter{f: f, bold: bold}

	s.inventory(SheetInventory, "SKU", r.SKUInventory)
	s.inventory(SheetCategoryInventory, "Category", r.CategoryInventory)

	s.header(SheetForecast, "Date", "Predicted Sales")
	if r.Forecast != nil {
		for i, p := range r.Forecast.Future {
			s.row(SheetForecast, i+2, p.Date.Format(dateLayout), p.Value)
		}
	}

	s.header(SheetTests, testsHeader...)
	for i, t := range r.Tests {
		s.row(SheetTests, i+2, t.ID, t.Title, statisticsLabel(t.Statistics), t.PValue, t.Alpha, t.Decision)
	}
	if s.err != nil {
		return fmt.Errorf("xlsx: %w", s.err)
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}
