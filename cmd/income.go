package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bicep/income-sg/internal/pipeline"
)

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Build cumulative income distributions per planning area",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cdf, err := pipeline.New(cfg, nil).Income(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d regions, %d brackets -> %s\n",
			len(cdf.Regions), len(cdf.Brackets), cfg.Output.Path(cfg.Output.Cumulative))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(incomeCmd)
}
