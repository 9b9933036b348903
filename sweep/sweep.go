// Package sweep fans independent backtest runs over a worker pool. Each
// task owns a fresh simulator and ledger, so tasks share nothing and the
// result order is fixed by the task list, never by scheduling.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/ammbt/market"
	"github.com/rustyeddy/ammbt/metrics"
	"github.com/rustyeddy/ammbt/sim"
	"github.com/rustyeddy/ammbt/strategies"
	"github.com/rustyeddy/ammbt/triggers"
)

var ErrSweep = errors.New("sweep: bad input")

// Task is one parameter vector to evaluate.
type Task struct {
	Label    string          `yaml:"label" json:"label"`
	Strategy strategies.Spec `yaml:"strategy" json:"strategy"`
	Triggers triggers.Config `yaml:"triggers" json:"triggers"`
}

// Outcome pairs a task with its run summary. Err is set when the task
// failed to construct or run, or when the sweep was cancelled before the
// task started.
type Outcome struct {
	Task    Task
	Metrics metrics.Result
	Err     error
}

// Runner executes tasks against one shared, read-only dataset.
type Runner struct {
	// Base is the engine config applied to every task; each task's
	// trigger config replaces Base.Triggers.
	Base sim.Config
	// Workers defaults to GOMAXPROCS.
	Workers int
}

// Run evaluates every task and returns outcomes in task order. A
// cancelled context discards tasks that have not started; tasks already
// running finish normally.
func (r *Runner) Run(ctx context.Context, bars *market.BarSet, pool []market.PoolBar, tasks []Task) ([]Outcome, error) {
	if bars == nil || bars.Len() == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrSweep)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Outcome, len(tasks))
	jobCh := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				out[i] = r.runOne(bars, pool, tasks[i])
			}
		}()
	}

	started := 0
feed:
	for i := range tasks {
		select {
		case jobCh <- i:
			started++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := started; i < len(tasks); i++ {
			out[i] = Outcome{Task: tasks[i], Err: err}
		}
	}
	log.Info().Int("tasks", len(tasks)).Int("started", started).Msg("sweep finished")
	return out, nil
}

func (r *Runner) runOne(bars *market.BarSet, pool []market.PoolBar, task Task) Outcome {
	o := Outcome{Task: task}
	strat, err := strategies.New(task.Strategy)
	if err != nil {
		o.Err = err
		return o
	}
	cfg := r.Base
	cfg.Triggers = task.Triggers
	s, err := sim.New(cfg, strat)
	if err != nil {
		o.Err = err
		return o
	}
	res, err := s.Run(bars, pool)
	if err != nil {
		o.Err = err
		return o
	}
	o.Metrics, o.Err = metrics.Compute(res)
	return o
}

// Objective names a ranking criterion.
type Objective string

const (
	ByAPR    Objective = "apr"
	BySharpe Objective = "sharpe"
	ByCalmar Objective = "calmar"
)

func (o Objective) value(m metrics.Result) float64 {
	switch o {
	case BySharpe:
		return m.Sharpe
	case ByCalmar:
		return m.Calmar
	default:
		return m.APR
	}
}

// Rank orders outcomes best-first by the objective. Failed outcomes sink
// to the end; ties keep task order.
func Rank(outcomes []Outcome, by Objective) []Outcome {
	ranked := make([]Outcome, len(outcomes))
	copy(ranked, outcomes)
	sort.SliceStable(ranked, func(i, j int) bool {
		if (ranked[i].Err == nil) != (ranked[j].Err == nil) {
			return ranked[i].Err == nil
		}
		if ranked[i].Err != nil {
			return false
		}
		return by.value(ranked[i].Metrics) > by.value(ranked[j].Metrics)
	})
	return ranked
}

// DynVolGrid enumerates the standard dynamic-vol search grid: width
// multiplier, drift threshold, and cooldown.
func DynVolGrid() []Task {
	kWidths := []float64{0.8, 1.0, 1.2, 1.5, 2.0}
	driftBps := []float64{20, 50, 80, 120}
	cooldowns := []time.Duration{6 * time.Hour, 12 * time.Hour, 24 * time.Hour, 48 * time.Hour}

	var tasks []Task
	for _, k := range kWidths {
		for _, d := range driftBps {
			for _, cd := range cooldowns {
				tasks = append(tasks, Task{
					Label: fmt.Sprintf("dynvol_k%.1f_d%.0f_cd%dh", k, d, int(cd.Hours())),
					Strategy: strategies.Spec{
						Name:   "dynamic_vol",
						KWidth: k,
					},
					Triggers: triggers.Config{
						DriftBps: d,
						Cooldown: cd,
					},
				})
			}
		}
	}
	return tasks
}
