package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ammbt/config"
	"github.com/rustyeddy/ammbt/journal"
	"github.com/rustyeddy/ammbt/market"
	"github.com/rustyeddy/ammbt/metrics"
	"github.com/rustyeddy/ammbt/sim"
	"github.com/rustyeddy/ammbt/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a config file",
	Long: `Run one backtest using settings from a configuration file.

The config file names the bar dataset, the strategy and its parameters,
rebalance triggers, fee and friction models, and where to journal results.

Example:
  ammbt run -f examples/configs/bollinger.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runOrgReport  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runOrgReport, "org", false, "print the run as an Org-mode heading")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	bars, pool, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	strat, err := strategies.New(cfg.Strategy)
	if err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	s, err := sim.New(simCfg, strat)
	if err != nil {
		return err
	}

	res, err := s.Run(bars, pool)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	m, err := metrics.Compute(res)
	if err != nil {
		return err
	}

	metrics.Print(os.Stdout, cfg.Strategy.Name, res, m)

	specJSON, err := json.Marshal(cfg.Strategy)
	if err != nil {
		return err
	}
	run := journal.NewRun(cfg.Strategy.Name, cfg.Run.BarsFile, cfg.Run.Interval, specJSON, res, m)

	if runOrgReport {
		org, err := run.Org()
		if err != nil {
			return err
		}
		fmt.Println(org)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		if err := journal.Record(j, run, res); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		fmt.Printf("Journaled run %s\n", run.RunID)
	}
	return nil
}

func loadDataset(cfg *config.Config) (*market.BarSet, []market.PoolBar, error) {
	interval, err := cfg.Run.ParseInterval()
	if err != nil {
		return nil, nil, err
	}
	raw, err := market.LoadBars(cfg.Run.BarsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load bars: %w", err)
	}
	bars, err := market.NewBarSet(raw, interval, cfg.Run.GapToleranceBars)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Run.FromBar > 0 || cfg.Run.ToBar > 0 {
		bars, err = bars.Slice(cfg.Run.FromBar, cfg.Run.ToBar)
		if err != nil {
			return nil, nil, err
		}
	}

	var pool []market.PoolBar
	if cfg.Run.PoolFile != "" {
		pool, err = market.LoadPoolBars(cfg.Run.PoolFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load pool state: %w", err)
		}
		pool = trimPool(pool, bars)
		if err := bars.ValidatePool(pool); err != nil {
			return nil, nil, err
		}
	}
	return bars, pool, nil
}

// trimPool drops pool bars outside the bar window so a sliced run still
// validates against its pool series.
func trimPool(pool []market.PoolBar, bars *market.BarSet) []market.PoolBar {
	start, end := bars.Start(), bars.End()
	out := pool[:0:0]
	for _, p := range pool {
		if p.Time.Before(start) || p.Time.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.Dir)
	default:
		return nil, nil
	}
}
