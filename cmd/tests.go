package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/app"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/stattest"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/export"
)

var testOpts struct {
	alpha  float64
	format string
	out    string
}

var testCmd = &cobra.Command{
	Use:   "test [id]",
	Short: "Run the hypothesis tests, or one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTests,
}

var testListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the hypotheses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, h := range stattest.Hypotheses() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", h.ID, h.Name, h.Title)
		}
		return tw.Flush()
	},
}

func init() {
	testCmd.Flags().Float64Var(&testOpts.alpha, "alpha", 0, "significance level, configured value when zero")
	testCmd.Flags().StringVarP(&testOpts.format, "format", "f", "table", "output format: table, csv or json")
	testCmd.Flags().StringVarP(&testOpts.out, "out", "o", "", "output file, stdout when empty")
	testCmd.AddCommand(testListCmd)
	rootCmd.AddCommand(testCmd)
}

func runTests(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		alpha := testOpts.alpha
		if alpha == 0 {
			alpha = svc.Analytics.Alpha()
		}
		var (
			results []stattest.Result
			failed  map[string]error
		)
		if len(args) == 1 {
			res, err := svc.Analytics.Test(ctx, args[0], alpha)
			if err != nil {
				return err
			}
			results = []stattest.Result{res}
		} else {
			results, failed = svc.Analytics.Tests(ctx, alpha)
		}
		err := writeTo(cmd, testOpts.out, func(w io.Writer) error {
			switch testOpts.format {
			case "csv":
				return export.WriteTestsCSV(w, results)
			case "json":
				return export.WriteJSON(w, results)
			case "table":
				return writeTestsTable(w, results)
			}
			return fmt.Errorf("unknown format %q", testOpts.format)
		})
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(failed))
		for id := range failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, failed[id])
		}
		return nil
	})
}

func writeTestsTable(w io.Writer, results []stattest.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tStatistics\tp-value\tDecision")
	for _, r := range results {
		var stats string
		for i, s := range r.Statistics {
			if i > 0 {
				stats += ", "
			}
			stats += fmt.Sprintf("%s=%.4g", s.Name, s.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4g\t%s\n", r.ID, stats, r.PValue, r.Decision)
	}
	return tw.Flush()
}
