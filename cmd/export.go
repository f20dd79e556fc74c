package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/app"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/export"
)

var exportOpts struct {
	out       string
	level     string
	item      string
	skipTests bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the inventory, forecast and test tables to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOpts.out, "out", "o", "scm_report.xlsx", "workbook path")
	f.StringVar(&exportOpts.level, "forecast-level", "sku", "forecast level for the Forecast sheet")
	f.StringVar(&exportOpts.item, "forecast-item", "", "item to forecast, the Forecast sheet stays empty when unset")
	f.BoolVar(&exportOpts.skipTests, "skip-tests", false, "leave the Statistical Tests sheet empty")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		var report export.Report
		var err error
		report.SKUInventory, report.CategoryInventory, err = svc.Analytics.Inventory(svc.Analytics.InventoryParams())
		if err != nil {
			return err
		}
		if exportOpts.item != "" {
			res, err := svc.Analytics.Forecast(ctx, forecast.Request{Level: exportOpts.level, Item: exportOpts.item})
			if err != nil {
				return err
			}
			report.Forecast = &res
		}
		if !exportOpts.skipTests {
			report.Tests, _ = svc.Analytics.Tests(ctx, svc.Analytics.Alpha())
		}
		return writeTo(cmd, exportOpts.out, func(w io.Writer) error {
			return export.WriteWorkbook(w, report)
		})
	})
}
