package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	runsapi "github.com/CodeRockstar24/SCM-PredictiveModelling/api/runs"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/runlog"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/export"
)

var runsOpts struct {
	kind   string
	item   string
	since  string
	until  string
	limit  int
	format string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the run history",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsOpts.kind, "kind", "", "forecast, tests or simulate")
	f.StringVar(&runsOpts.item, "item", "", "filter by item")
	f.StringVar(&runsOpts.since, "since", "", "earliest start, RFC 3339 or YYYY-MM-DD")
	f.StringVar(&runsOpts.until, "until", "", "latest start, RFC 3339 or YYYY-MM-DD")
	f.IntVar(&runsOpts.limit, "limit", 20, "maximum records, newest first")
	f.StringVarP(&runsOpts.format, "format", "f", "table", "output format: table or json")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q := runlog.Query{Kind: runlog.Kind(runsOpts.kind), Item: runsOpts.item, Limit: runsOpts.limit}
	if q.Start, err = runsapi.ParseTime(runsOpts.since); err != nil {
		return err
	}
	if q.End, err = runsapi.ParseTime(runsOpts.until); err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	if runsOpts.format == "json" {
		return export.WriteJSON(cmd.OutOrStdout(), recs)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Started\tKind\tItem\tDuration\tResult")
	for _, r := range recs {
		result := r.Summary
		if r.Error != "" {
			result = "error: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Started.Format(time.DateTime), r.Kind, r.Item, r.Duration.Round(time.Millisecond), result)
	}
	return tw.Flush()
}
