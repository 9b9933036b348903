package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ammbt",
	Short: "A concentrated-liquidity strategy backtester",
	Long: `ammbt backtests liquidity-provisioning strategies for Uniswap-V3-style
concentrated liquidity pools against historical price bars.

It provides tools for:
  - Backtesting range-placement strategies over OHLCV bar data
  - Exact or proxy fee accrual from pool state snapshots
  - Trigger-driven rebalancing with configurable friction costs
  - Parameter sweeps over a worker pool
  - Journaling runs, equity curves and rebalance logs to SQLite or CSV`,
	PersistentPreRunE: setupLogging,
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("bad log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}
