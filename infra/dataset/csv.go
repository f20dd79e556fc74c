// Package dataset reads the supply-chain CSV export into a model.Dataset.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

// LoadStats summarises a load.
type LoadStats struct {
	Rows     int `json:"rows"`
	Skipped  int `json:"skipped"`
	BadCells int `json:"bad_cells"`
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// LoadFile opens path and parses it.
func LoadFile(cfg Config) (*model.Dataset, LoadStats, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f, cfg)
}

type columnIndex struct {
	date, sku, category, family, supplier, customer, revenue int
	sales, stock, lead, returns, warehouse                   int
}

func resolve(header []string, cols Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	find := func(name string, required bool) int {
		if i, ok := pos[strings.ToLower(name)]; ok {
			return i
		}
		if required {
			missing = append(missing, name)
		}
		return -1
	}
	idx := columnIndex{
		date:      find(cols.Date, true),
		sku:       find(cols.SKU, true),
		category:  find(cols.Category, false),
		family:    find(cols.ProductFamily, false),
		supplier:  find(cols.Supplier, false),
		customer:  find(cols.CustomerID, false),
		revenue:   find(cols.Revenue, false),
		sales:     find(cols.SalesQuantity, true),
		stock:     find(cols.StockLevel, false),
		lead:      find(cols.LeadTimeDays, true),
		returns:   find(cols.ReturnQuantity, false),
		warehouse: find(cols.Warehouse, false),
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Load parses CSV data from r. Rows lacking a SKU, sales quantity or lead
// time are skipped. Other unparsable numeric cells count as zero.
func Load(r io.Reader, cfg Config) (*model.Dataset, LoadStats, error) {
	cfg.SetDefaults()
	reader := csv.NewReader(r)
	reader.Comma = []rune(cfg.Delimiter)[0]
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, LoadStats{}, model.ErrEmptyDataset
		}
		return nil, LoadStats{}, fmt.Errorf("read header: %w", err)
	}
	idx, err := resolve(header, cfg.Columns)
	if err != nil {
		return nil, LoadStats{}, err
	}

	var stats LoadStats
	var records []model.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows+stats.Skipped+2, err)
		}
		rec, ok, bad := parseRow(row, idx)
		stats.BadCells += bad
		if !ok {
			stats.Skipped++
			continue
		}
		records = append(records, rec)
		stats.Rows++
	}
	if len(records) == 0 {
		return nil, stats, model.ErrEmptyDataset
	}
	return model.NewDataset(records), stats, nil
}

func parseRow(row []string, idx columnIndex) (model.Record, bool, int) {
	bad := 0
	num := func(i int) float64 {
		s := cell(row, i)
		if s == "" {
			return 0
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			bad++
			return 0
		}
		return v
	}
	sku := cell(row, idx.sku)
	salesStr := cell(row, idx.sales)
	leadStr := cell(row, idx.lead)
	if sku == "" || salesStr == "" || leadStr == "" {
		return model.Record{}, false, 0
	}
	sales, err := strconv.ParseFloat(salesStr, 64)
	if err != nil {
		return model.Record{}, false, 1
	}
	lead, err := strconv.ParseFloat(leadStr, 64)
	if err != nil {
		return model.Record{}, false, 1
	}
	date, err := parseDate(cell(row, idx.date))
	if err != nil {
		return model.Record{}, false, 1
	}
	revenue := decimal.Zero
	if s := cell(row, idx.revenue); s != "" {
		if v, err := decimal.NewFromString(s); err == nil {
			revenue = v
		} else {
			bad++
		}
	}
	return model.Record{
		Date:           date,
		SKU:            sku,
		Category:       cell(row, idx.category),
		ProductFamily:  cell(row, idx.family),
		Supplier:       cell(row, idx.supplier),
		CustomerID:     cell(row, idx.customer),
		Revenue:        revenue,
		SalesQuantity:  sales,
		StockLevel:     num(idx.stock),
		LeadTimeDays:   lead,
		ReturnQuantity: num(idx.returns),
		Warehouse:      cell(row, idx.warehouse),
	}, true, bad
}
