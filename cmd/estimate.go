package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bicep/income-sg/internal/pipeline"
	"github.com/bicep/income-sg/internal/store"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Assign sampled incomes to the interpolated grid",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEstimation(cmd, func(ctx context.Context, r *pipeline.Runner) (*pipeline.EstimateReport, error) {
			return r.Estimate(ctx)
		})
	},
}

func init() {
	addEstimationFlags(estimateCmd)
	rootCmd.AddCommand(estimateCmd)
}

func addEstimationFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("seed", 0, "sampling seed (default from config, 0 = clock)")
	cmd.Flags().String("shapefile", "", "also export estimates to this .shp path")
	cmd.Flags().Bool("no-store", false, "do not record the run in the store")
}

// runEstimation applies the estimation flags, opens the store unless
// disabled, runs fn and prints the report.
func runEstimation(cmd *cobra.Command, fn func(context.Context, *pipeline.Runner) (*pipeline.EstimateReport, error)) error {
	ctx := cmd.Context()

	if cmd.Flags().Changed("seed") {
		cfg.Estimate.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if shp, _ := cmd.Flags().GetString("shapefile"); shp != "" {
		cfg.Export.Shapefile = shp
	}

	var st store.Store
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck
		st = s
	}

	report, err := fn(ctx, pipeline.New(cfg, st))
	if err != nil {
		return err
	}
	formatReport(cmd.OutOrStdout(), report)
	return nil
}

// formatReport writes an estimation summary to out.
func formatReport(out io.Writer, r *pipeline.EstimateReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if r.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	}
	_, _ = fmt.Fprintf(w, "Seed:\t%d\n", r.Seed)
	_, _ = fmt.Fprintf(w, "Grid points:\t%d\n", r.GridPoints)
	_, _ = fmt.Fprintf(w, "Emitted:\t%d\n", len(r.Records))
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", r.Skipped.Total())

	reasons := make([]string, 0, len(r.Skipped))
	for k := range r.Skipped {
		reasons = append(reasons, k)
	}
	sort.Strings(reasons)
	for _, k := range reasons {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", k, r.Skipped[k])
	}
	_ = w.Flush()
}
