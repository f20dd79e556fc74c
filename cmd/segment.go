package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/app"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/segmentation"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/chart"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/pkg/export"
)

var segmentOpts struct {
	format string
	out    string
}

var segmentCmd = &cobra.Command{
	Use:   "segment [view]",
	Short: "Show a segmentation view, or list the views",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSegment,
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentOpts.format, "format", "f", "table", "output format: table, json or html")
	segmentCmd.Flags().StringVarP(&segmentOpts.out, "out", "o", "", "output file, stdout when empty")
	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, v := range segmentation.Views() {
			fmt.Fprintf(tw, "%s\t%s\n", v.ID, v.Name)
		}
		return tw.Flush()
	}
	view, err := segmentation.Lookup(args[0])
	if err != nil {
		return err
	}
	return withService(func(_ context.Context, svc *app.Service) error {
		panels, err := view.Build(svc.Analytics.Dataset())
		if err != nil {
			return err
		}
		return writeTo(cmd, segmentOpts.out, func(w io.Writer) error {
			switch segmentOpts.format {
			case "json":
				return export.WriteJSON(w, panels)
			case "html":
				return chart.RenderPanels(w, view.Name, panels)
			case "table":
				return writePanels(w, panels)
			}
			return fmt.Errorf("unknown format %q", segmentOpts.format)
		})
	})
}

func writePanels(w io.Writer, panels []segmentation.Panel) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for i, p := range panels {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\n", p.Title)
		fmt.Fprintf(tw, "%s\t%s\t\n", p.XLabel, p.YLabel)
		for _, b := range p.Bars {
			fmt.Fprintf(tw, "%s\t%.2f\t\n", b.Label, b.Value)
		}
	}
	return tw.Flush()
}
