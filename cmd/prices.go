package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bicep/income-sg/internal/pipeline"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Aggregate resale and private transactions into price-per-sqm tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := pipeline.New(cfg, nil).Prices(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "public:  %d addresses -> %s (%d without coordinates)\n",
			report.Public, cfg.Input.PublicPrices, report.DroppedAddresses)
		fmt.Fprintf(out, "private: %d projects -> %s\n", report.Private, cfg.Input.PrivatePrices)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}
