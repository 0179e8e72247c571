package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "income-sg",
	Short: "Per-property household income estimation",
	Long: `Estimates a household income for every populated grid point in Singapore.

Stages, runnable alone or together with "run":
  income       build cumulative income distributions per planning area
  prices       aggregate HDB resale and private transactions into price points
  interpolate  IDW-interpolate prices onto the population density grid
  estimate     assign price deciles, income brackets and sampled incomes

Runs are recorded in SQLite or Postgres ("runs", "serve") and can be
exported as a point shapefile ("export").

Settings are read from ./config.yaml and INCOME_* environment variables,
e.g. INCOME_STORE_DRIVER=postgres or INCOME_ESTIMATE_SEED=42.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := applyLogFlags(cmd, &c.Log); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	addLogFlags(rootCmd)
}

func addLogFlags(c *cobra.Command) {
	c.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	c.PersistentFlags().String("log-format", "", "override log.format (json, console)")
}

// applyLogFlags overrides lc with any log flags set on the command line.
func applyLogFlags(cmd *cobra.Command, lc *config.LogConfig) error {
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		lc.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		switch v {
		case "json", "console":
		default:
			return fmt.Errorf("unsupported --log-format %q", v)
		}
		lc.Format = v
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
