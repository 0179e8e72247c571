package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bicep/income-sg/internal/dataset"
	"github.com/bicep/income-sg/internal/export"
	"github.com/bicep/income-sg/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id> <path>",
	Short: "Export a recorded run's estimates to .csv or .shp",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID, path := args[0], args[1]

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if _, err := st.GetRun(ctx, runID); err != nil {
			return eris.Wrap(err, "export")
		}
		region, _ := cmd.Flags().GetString("region")
		recs, err := st.ListEstimates(ctx, runID, store.EstimateFilter{Region: region})
		if err != nil {
			return eris.Wrap(err, "export")
		}

		switch {
		case strings.HasSuffix(strings.ToLower(path), ".shp"):
			err = export.WriteShapefile(path, recs)
		case strings.HasSuffix(strings.ToLower(path), ".csv"):
			err = dataset.WriteEstimates(path, recs)
		default:
			return eris.Errorf("export: unsupported file type %q (want .csv or .shp)", path)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d records -> %s\n", len(recs), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("region", "", "only export this planning area")
	rootCmd.AddCommand(exportCmd)
}
