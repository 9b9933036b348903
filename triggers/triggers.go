// Package triggers decides when a position should be rebalanced. Several
// trigger kinds can be armed at once; any of them firing requests a
// rebalance, and a cooldown gates how often requests get through.
package triggers

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/ammbt/market"
	"github.com/rustyeddy/ammbt/position"
)

// ErrTriggerConfig marks invalid trigger parameters.
var ErrTriggerConfig = errors.New("triggers: invalid config")

// Kind identifies a trigger. The declaration order is the priority order
// used when several kinds fire on the same bar.
type Kind int

const (
	KindNone Kind = iota
	KindCenterDeviation
	KindRangeInactivity
	KindPercentDrift
	KindOneSidedExit
	KindTimeElapsed
)

func (k Kind) String() string {
	switch k {
	case KindCenterDeviation:
		return "center_deviation"
	case KindRangeInactivity:
		return "range_inactivity"
	case KindPercentDrift:
		return "percent_drift"
	case KindOneSidedExit:
		return "one_sided_exit"
	case KindTimeElapsed:
		return "time_elapsed"
	default:
		return "none"
	}
}

// Config arms trigger kinds. A zero threshold leaves that kind disarmed.
type Config struct {
	// CenterDeviationBps fires when the close deviates from the position
	// center by at least this many basis points.
	CenterDeviationBps float64
	// InactivityBars fires after this many consecutive bars with the close
	// outside the position.
	InactivityBars int
	// DriftBps fires when the close has moved at least this many basis
	// points from the price at the last rebalance.
	DriftBps float64
	// OneSidedExit fires as soon as the close touches or crosses a
	// position bound.
	OneSidedExit bool
	// Every fires on a fixed schedule since the last rebalance.
	Every time.Duration
	// Cooldown suppresses any firing within this duration of the last
	// rebalance.
	Cooldown time.Duration
}

func (c Config) Validate() error {
	if c.CenterDeviationBps < 0 || math.IsNaN(c.CenterDeviationBps) {
		return fmt.Errorf("%w: center_deviation_bps %v", ErrTriggerConfig, c.CenterDeviationBps)
	}
	if c.InactivityBars < 0 {
		return fmt.Errorf("%w: inactivity_bars %d", ErrTriggerConfig, c.InactivityBars)
	}
	if c.DriftBps < 0 || math.IsNaN(c.DriftBps) {
		return fmt.Errorf("%w: drift_bps %v", ErrTriggerConfig, c.DriftBps)
	}
	if c.Every < 0 || c.Cooldown < 0 {
		return fmt.Errorf("%w: negative duration", ErrTriggerConfig)
	}
	return nil
}

// Decision is the outcome of evaluating one bar. Reason is the highest
// priority kind among Fired.
type Decision struct {
	Fire   bool
	Reason Kind
	Fired  []Kind
}

// Evaluator holds the per-run trigger state.
type Evaluator struct {
	cfg           Config
	lastRebalance time.Time
	lastPrice     float64
	outOfRange    int
	armed         bool
}

func NewEvaluator(cfg Config) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg}, nil
}

// NoteRebalance records a rebalance, restarting the cooldown and drift
// reference and clearing the inactivity counter.
func (e *Evaluator) NoteRebalance(t time.Time, price float64) {
	e.lastRebalance = t
	e.lastPrice = price
	e.outOfRange = 0
	e.armed = true
}

// Evaluate updates trigger state with one bar and reports whether a
// rebalance should happen. Counters advance on every bar, including bars
// inside the cooldown, but nothing fires until the cooldown has elapsed.
// Before the first NoteRebalance there is no reference position to measure
// against, so nothing fires.
func (e *Evaluator) Evaluate(bar market.Bar, pos position.Position) Decision {
	if pos.Empty() || !pos.Contains(bar.Close) {
		e.outOfRange++
	} else {
		e.outOfRange = 0
	}
	if !e.armed {
		return Decision{}
	}
	if bar.Time.Sub(e.lastRebalance) < e.cfg.Cooldown {
		return Decision{}
	}

	var fired []Kind

	if e.cfg.CenterDeviationBps > 0 {
		if c := pos.Center(); c > 0 {
			dev := math.Abs(bar.Close-c) / c * 10000
			if dev >= e.cfg.CenterDeviationBps {
				fired = append(fired, KindCenterDeviation)
			}
		}
	}
	if e.cfg.InactivityBars > 0 && e.outOfRange >= e.cfg.InactivityBars {
		fired = append(fired, KindRangeInactivity)
	}
	if e.cfg.DriftBps > 0 && e.lastPrice > 0 {
		drift := math.Abs(bar.Close-e.lastPrice) / e.lastPrice * 10000
		if drift >= e.cfg.DriftBps {
			fired = append(fired, KindPercentDrift)
		}
	}
	if e.cfg.OneSidedExit {
		if lower, upper, ok := pos.Bounds(); ok && (bar.Close <= lower || bar.Close >= upper) {
			fired = append(fired, KindOneSidedExit)
		}
	}
	if e.cfg.Every > 0 && bar.Time.Sub(e.lastRebalance) >= e.cfg.Every {
		fired = append(fired, KindTimeElapsed)
	}

	if len(fired) == 0 {
		return Decision{}
	}
	return Decision{Fire: true, Reason: fired[0], Fired: fired}
}
