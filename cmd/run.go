package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bicep/income-sg/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run income, interpolate and estimate in sequence",
	Long:  "Runs the income, interpolate and estimate stages in sequence. Price tables are inputs; build them first with the prices command.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEstimation(cmd, func(ctx context.Context, r *pipeline.Runner) (*pipeline.EstimateReport, error) {
			return r.All(ctx)
		})
	},
}

func init() {
	addEstimationFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
