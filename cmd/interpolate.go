package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bicep/income-sg/internal/pipeline"
)

var interpolateCmd = &cobra.Command{
	Use:   "interpolate",
	Short: "Interpolate property prices onto the population density grid",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
			cfg.Interpolate.Workers = w
		}
		priced, err := pipeline.New(cfg, nil).Interpolate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d grid points -> %s\n",
			len(priced), cfg.Output.Path(cfg.Output.Interpolated))
		return nil
	},
}

func init() {
	interpolateCmd.Flags().Int("workers", 0, "query goroutines (default from config, 0 = GOMAXPROCS)")
	rootCmd.AddCommand(interpolateCmd)
}
