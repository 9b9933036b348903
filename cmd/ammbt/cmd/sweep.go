package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ammbt/config"
	"github.com/rustyeddy/ammbt/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep strategy parameters over a worker pool",
	Long: `Sweep runs many independent backtests over a parameter grid and ranks
the results by an objective.

The base config file supplies the dataset, fees and frictions; the grid
replaces the strategy parameters and trigger settings per task. Currently
the built-in dynamic-vol grid is supported (width multiplier, drift
threshold, cooldown).

Example:
  ammbt sweep -f examples/configs/bollinger.yaml --objective sharpe --top 10`,
	RunE: runSweep,
}

var (
	sweepConfigPath string
	sweepObjective  string
	sweepWorkers    int
	sweepTop        int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "f", "", "path to base config file (required)")
	sweepCmd.Flags().StringVar(&sweepObjective, "objective", "apr", "ranking objective (apr, sharpe, calmar)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "worker count (0 = GOMAXPROCS)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 15, "how many ranked rows to print")
	sweepCmd.MarkFlagRequired("config")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(sweepConfigPath)
	if err != nil {
		return err
	}
	bars, pool, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	base, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	tasks := sweep.DynVolGrid()
	fmt.Printf("Sweeping %d parameter vectors over %d bars\n\n", len(tasks), bars.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &sweep.Runner{Base: base, Workers: sweepWorkers}
	outcomes, err := runner.Run(ctx, bars, pool, tasks)
	if err != nil {
		return err
	}

	ranked := sweep.Rank(outcomes, sweep.Objective(sweepObjective))
	if sweepTop > 0 && len(ranked) > sweepTop {
		ranked = ranked[:sweepTop]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tLABEL\tAPR\tSHARPE\tCALMAR\tMDD\tREBAL\tERR")
	for i, o := range ranked {
		if o.Err != nil {
			fmt.Fprintf(w, "%d\t%s\t-\t-\t-\t-\t-\t%v\n", i+1, o.Task.Label, o.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f%%\t%.2f\t%.2f\t%.2f%%\t%d\t\n",
			i+1, o.Task.Label,
			o.Metrics.APR*100, o.Metrics.Sharpe, o.Metrics.Calmar,
			o.Metrics.MDD*100, o.Metrics.RebalanceCount)
	}
	return w.Flush()
}
