// Package sim drives a strategy over a bar series: evaluate triggers,
// rebalance, accrue fees, mark equity, one bar at a time. Runs are fully
// deterministic; two runs over the same inputs produce identical output.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/ammbt/fees"
	"github.com/rustyeddy/ammbt/frictions"
	"github.com/rustyeddy/ammbt/market"
	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/position"
	"github.com/rustyeddy/ammbt/strategies"
	"github.com/rustyeddy/ammbt/triggers"
	"github.com/rustyeddy/ammbt/univ3"
)

// ErrRun marks a fatal mid-run failure.
var ErrRun = errors.New("sim: run failed")

// State is the engine's position in the per-bar cycle.
type State int

const (
	StateIdle State = iota
	StateEvaluating
	StateRebalancing
	StateAccruing
	StateMarking
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEvaluating:
		return "evaluating"
	case StateRebalancing:
		return "rebalancing"
	case StateAccruing:
		return "accruing"
	case StateMarking:
		return "marking"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ReasonInitial labels the first deployment, which no trigger causes.
const ReasonInitial = "initial"

// Config parameterizes a run.
type Config struct {
	InitialCash float64
	Fees        fees.Config
	Frictions   frictions.Model
	Triggers    triggers.Config
	// BaselineRebalanceBars is how often the 50:50 hodl baseline swaps
	// back to even, in bars. Default 24.
	BaselineRebalanceBars int
	// PeriodsPerYear overrides the annualization factor derived from the
	// bar interval. Zero means derive.
	PeriodsPerYear float64
}

func (c Config) Validate() error {
	if !(c.InitialCash > 0) {
		return fmt.Errorf("%w: initial cash %v", ErrRun, c.InitialCash)
	}
	if c.BaselineRebalanceBars < 0 {
		return fmt.Errorf("%w: baseline rebalance bars %d", ErrRun, c.BaselineRebalanceBars)
	}
	if c.PeriodsPerYear < 0 || math.IsNaN(c.PeriodsPerYear) || math.IsInf(c.PeriodsPerYear, 0) {
		return fmt.Errorf("%w: periods per year %v", ErrRun, c.PeriodsPerYear)
	}
	if err := c.Fees.Validate(); err != nil {
		return err
	}
	if err := c.Frictions.Validate(); err != nil {
		return err
	}
	return c.Triggers.Validate()
}

// RebalanceEvent records one executed rebalance.
type RebalanceEvent struct {
	Time     int64    `json:"time"`
	Reason   string   `json:"reason"`
	Fired    []string `json:"fired,omitempty"`
	Old      []Band   `json:"old,omitempty"`
	New      []Band   `json:"new"`
	Cost     float64  `json:"cost"`
	Price    float64  `json:"price"`
	FeeSwept float64  `json:"fee_swept"`
}

// Band is a serializable range snapshot.
type Band struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Liquidity float64 `json:"liquidity"`
}

// Result is everything a run produced.
type Result struct {
	Equity []portfolio.EquityPoint
	Events []RebalanceEvent

	InitialEquity float64
	FinalEquity   float64
	FinalPrice    float64

	EntryPrice   float64
	EntryAmount0 float64
	EntryAmount1 float64
	entryLedger  *portfolio.Ledger

	FeesEarned0       float64
	FeesEarned1       float64
	TotalFrictionCost float64
	RebalanceCount    int

	Hodl5050Final  float64
	AllToken0Final float64
	AllToken1Final float64
	PeriodsPerYear float64
	ProxyFallbacks int
}

// EntryValueAt marks the frozen entry composition (position plus leftover
// cash) at an arbitrary price, with no fees and no later rebalancing.
func (r *Result) EntryValueAt(price float64) (float64, error) {
	if r.entryLedger == nil {
		return 0, fmt.Errorf("%w: no entry recorded", ErrRun)
	}
	_, _, _, pos, cash := r.entryLedger.Entry()
	pv, err := pos.ValueAt(price)
	if err != nil {
		return 0, err
	}
	return pv + cash, nil
}

// Simulator runs one strategy over one dataset. Single use.
type Simulator struct {
	cfg   Config
	strat strategies.Strategy
	state State
}

func New(cfg Config, strat strategies.Strategy) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, fmt.Errorf("%w: nil strategy", ErrRun)
	}
	return &Simulator{cfg: cfg, strat: strat}, nil
}

// State reports where the engine is in the bar cycle.
func (s *Simulator) State() State { return s.state }

// Run executes the backtest. The pool series is optional; when present it
// must already have passed BarSet.ValidatePool.
func (s *Simulator) Run(bars *market.BarSet, pool []market.PoolBar) (*Result, error) {
	if s.state == StateDone {
		return nil, fmt.Errorf("%w: simulator already ran", ErrRun)
	}
	feeModel, err := fees.New(s.cfg.Fees)
	if err != nil {
		return nil, err
	}
	eval, err := triggers.NewEvaluator(s.cfg.Triggers)
	if err != nil {
		return nil, err
	}
	ledger, err := portfolio.NewLedger(s.cfg.InitialCash)
	if err != nil {
		return nil, err
	}

	poolAt := make(map[int64]*market.PoolBar, len(pool))
	for i := range pool {
		poolAt[pool[i].Time.Unix()] = &pool[i]
	}

	baselineEvery := s.cfg.BaselineRebalanceBars
	if baselineEvery == 0 {
		baselineEvery = 24
	}
	var hodl portfolio.Hodl5050
	var all0, all1 portfolio.SingleAsset

	ppy := s.cfg.PeriodsPerYear
	if ppy == 0 {
		ppy = bars.PeriodsPerYear()
	}
	res := &Result{
		InitialEquity:  s.cfg.InitialCash,
		PeriodsPerYear: ppy,
		entryLedger:    ledger,
	}

	for i, bar := range bars.Bars {
		if !hodl.Primed() {
			if err := hodl.Init(bar.Close, s.cfg.InitialCash); err != nil {
				return nil, err
			}
			_ = all0.Init(bar.Close, s.cfg.InitialCash, true)
			_ = all1.Init(bar.Close, s.cfg.InitialCash, false)
		} else if baselineEvery > 0 && i%baselineEvery == 0 {
			hodl.Rebalance(bar.Close)
		}

		s.state = StateEvaluating
		s.strat.Update(bar)
		dec := eval.Evaluate(bar, ledger.Position())
		needInitial := ledger.RebalanceCount() == 0 && s.strat.Ready()

		if needInitial || dec.Fire {
			s.state = StateRebalancing
			if err := s.rebalance(ledger, eval, bar, dec, needInitial, res); err != nil {
				s.state = StateDone
				return nil, err
			}
		}

		s.state = StateAccruing
		acc := feeModel.AccrueBar(bar, poolAt[bar.Time.Unix()], ledger.Position())
		if s.cfg.Fees.Mode == fees.ModeExact && acc.Mode == fees.ModeProxy {
			res.ProxyFallbacks++
		}
		ledger.CreditFees(0, acc.Amount)

		s.state = StateMarking
		if _, err := ledger.Mark(bar.Time, bar.Close); err != nil {
			s.state = StateDone
			return nil, fmt.Errorf("%w: marking bar %d: %v", ErrRun, i, err)
		}
		s.state = StateIdle
	}
	s.state = StateDone

	last := bars.Bars[len(bars.Bars)-1]
	res.Equity = ledger.History()
	res.FinalEquity = res.Equity[len(res.Equity)-1].Equity
	res.FinalPrice = last.Close
	res.EntryPrice, res.EntryAmount0, res.EntryAmount1, _, _ = ledger.Entry()
	res.FeesEarned0, res.FeesEarned1 = ledger.FeesEarned()
	res.TotalFrictionCost = ledger.TotalFrictions()
	res.RebalanceCount = ledger.RebalanceCount()
	res.Hodl5050Final = hodl.Value(last.Close)
	res.AllToken0Final = all0.Value(last.Close)
	res.AllToken1Final = all1.Value(last.Close)
	return res, nil
}

func (s *Simulator) rebalance(
	ledger *portfolio.Ledger,
	eval *triggers.Evaluator,
	bar market.Bar,
	dec triggers.Decision,
	initial bool,
	res *Result,
) error {
	eq, err := ledger.Equity(bar.Close)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRun, err)
	}
	a0, a1, err := ledger.Amounts(bar.Close)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRun, err)
	}
	targets := s.strat.Targets(bar.Close, strategies.Holdings{Value: eq, Amount0: a0, Amount1: a1})
	if len(targets) == 0 {
		return nil
	}

	// Price the move before committing it: build the hypothetical new
	// composition on current equity to size the turnover.
	cost := 0.0
	if !s.cfg.Frictions.Zero() {
		new0, new1, err := plannedAmounts(bar.Close, eq, targets)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRun, err)
		}
		cost = s.cfg.Frictions.RebalanceCost(a0, a1, new0, new1, bar.Close)
	}

	oldPos := ledger.Position()
	feeSwept := ledger.AccruedFees(bar.Close)
	if err := ledger.Rebalance(bar.Time, bar.Close, targets, cost); err != nil {
		return fmt.Errorf("%w: %v", ErrRun, err)
	}
	eval.NoteRebalance(bar.Time, bar.Close)

	reason := dec.Reason.String()
	if initial && !dec.Fire {
		reason = ReasonInitial
	}
	var fired []string
	for _, k := range dec.Fired {
		fired = append(fired, k.String())
	}
	ev := RebalanceEvent{
		Time:     bar.Time.Unix(),
		Reason:   reason,
		Fired:    fired,
		Old:      bands(oldPos.Ranges),
		New:      bands(ledger.Position().Ranges),
		Cost:     cost,
		Price:    bar.Close,
		FeeSwept: feeSwept,
	}
	res.Events = append(res.Events, ev)

	log.Debug().
		Str("reason", reason).
		Float64("price", bar.Close).
		Float64("cost", cost).
		Int("ranges", len(ev.New)).
		Time("bar", bar.Time).
		Msg("rebalanced")
	return nil
}

func plannedAmounts(price, equity float64, targets []strategies.Target) (float64, float64, error) {
	var a0, a1, weight float64
	for _, tgt := range targets {
		liq, err := univ3.LiquidityForValue(price, tgt.Lower, tgt.Upper, equity*tgt.Weight)
		if err != nil {
			return 0, 0, err
		}
		amt0, amt1, err := univ3.AmountsAtPrice(price, tgt.Lower, tgt.Upper, liq)
		if err != nil {
			return 0, 0, err
		}
		a0 += amt0
		a1 += amt1
		weight += tgt.Weight
	}
	// Unweighted remainder stays in quote cash.
	if weight < 1 {
		a1 += equity * (1 - weight)
	}
	return a0, a1, nil
}

func bands(ranges []position.Range) []Band {
	out := make([]Band, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, Band{Lower: r.Lower, Upper: r.Upper, Liquidity: r.Liquidity})
	}
	return out
}
