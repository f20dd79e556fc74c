package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/app"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/forecast"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/chart"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/export"
)

var forecastOpts struct {
	level     string
	timeSteps int
	horizon   int
	format    string
	out       string
}

var forecastCmd = &cobra.Command{
	Use:   "forecast <item>...",
	Short: "Train the LSTM model and forecast weekly demand for one or more items",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runForecast,
}

func init() {
	f := forecastCmd.Flags()
	f.StringVarP(&forecastOpts.level, "level", "l", "sku", "aggregation level: sku, category or supplier")
	f.IntVar(&forecastOpts.timeSteps, "time-steps", 0, "input window in weeks, configured value when zero")
	f.IntVar(&forecastOpts.horizon, "horizon", 0, "weeks to forecast, configured value when zero")
	f.StringVarP(&forecastOpts.format, "format", "f", "table", "output format: table, csv, json or html (single item)")
	f.StringVarP(&forecastOpts.out, "out", "o", "", "output file, stdout when empty")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	if forecastOpts.format == "html" && len(args) > 1 {
		return errors.New("html output supports a single item")
	}
	reqs := make([]forecast.Request, len(args))
	for i, item := range args {
		reqs[i] = forecast.Request{
			Level:     forecastOpts.level,
			Item:      item,
			TimeSteps: forecastOpts.timeSteps,
			Horizon:   forecastOpts.horizon,
		}
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		items, err := svc.Analytics.ForecastBatch(ctx, reqs)
		if err != nil {
			return err
		}
		var results []forecast.Result
		var errs []error
		for _, it := range items {
			if it.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", it.Request.Item, it.Err))
				continue
			}
			results = append(results, it.Result)
		}
		if len(results) > 0 {
			if err := writeTo(cmd, forecastOpts.out, func(w io.Writer) error {
				return writeForecasts(w, results)
			}); err != nil {
				return err
			}
		}
		return errors.Join(errs...)
	})
}

func writeForecasts(w io.Writer, results []forecast.Result) error {
	switch forecastOpts.format {
	case "json":
		if len(results) == 1 {
			return export.WriteJSON(w, results[0])
		}
		return export.WriteJSON(w, results)
	case "html":
		return chart.RenderForecast(w, results[0])
	case "csv":
		for _, r := range results {
			if err := export.WriteForecastCSV(w, r); err != nil {
				return err
			}
		}
		return nil
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, r := range results {
			fmt.Fprintf(tw, "%s %s: MAPE %.2f%%, differenced %t\n", r.Level, r.Item, r.MAPE*100, r.Differenced)
			fmt.Fprintln(tw, "Date\tPredicted Sales")
			for _, p := range r.Future {
				fmt.Fprintf(tw, "%s\t%.2f\n", p.Date.Format("2006-01-02"), p.Value)
			}
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q", forecastOpts.format)
}
