// Package metrics summarizes a finished run: risk/return statistics
// derived from the equity curve and the rebalance log. Everything here
// is recomputed from the run output and mutates nothing.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/sim"
)

var ErrMetrics = errors.New("metrics: bad input")

// Result carries the named summary statistics of one run.
type Result struct {
	APR               float64 `json:"apr"`
	MDD               float64 `json:"mdd"`
	Sharpe            float64 `json:"sharpe"`
	Calmar            float64 `json:"calmar"`
	Volatility        float64 `json:"volatility"`
	ImpermanentLoss   float64 `json:"impermanent_loss"`
	LVREstimate       float64 `json:"lvr_estimate"`
	RebalanceCount    int     `json:"rebalance_count"`
	TotalFrictionCost float64 `json:"total_friction_cost"`

	TotalReturn    float64 `json:"total_return"`
	FinalEquity    float64 `json:"final_equity"`
	Hodl5050Final  float64 `json:"hodl_5050_final"`
	ProxyFallbacks int     `json:"proxy_fallbacks,omitempty"`
}

// Compute derives the summary statistics from a run result.
func Compute(run *sim.Result) (Result, error) {
	if run == nil || len(run.Equity) == 0 {
		return Result{}, fmt.Errorf("%w: empty run", ErrMetrics)
	}
	if run.InitialEquity <= 0 {
		return Result{}, fmt.Errorf("%w: initial equity %v", ErrMetrics, run.InitialEquity)
	}

	out := Result{
		RebalanceCount:    run.RebalanceCount,
		TotalFrictionCost: run.TotalFrictionCost,
		FinalEquity:       run.FinalEquity,
		Hodl5050Final:     run.Hodl5050Final,
		ProxyFallbacks:    run.ProxyFallbacks,
	}
	out.TotalReturn = run.FinalEquity/run.InitialEquity - 1

	years := float64(len(run.Equity)) / run.PeriodsPerYear
	if years > 0 && run.FinalEquity > 0 {
		out.APR = math.Pow(run.FinalEquity/run.InitialEquity, 1/years) - 1
	}

	out.MDD = maxDrawdown(run.Equity)
	out.Volatility, out.Sharpe = annualized(run.Equity, run.PeriodsPerYear)
	if out.MDD > 0 {
		out.Calmar = out.APR / out.MDD
	}

	il, err := impermanentLoss(run)
	if err != nil {
		return Result{}, err
	}
	out.ImpermanentLoss = il
	out.LVREstimate = lvrEstimate(run)
	return out, nil
}

// maxDrawdown is the largest peak-to-trough equity decline, as a fraction
// of the peak.
func maxDrawdown(curve []portfolio.EquityPoint) float64 {
	peak, mdd := 0.0, 0.0
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			if dd := (peak - pt.Equity) / peak; dd > mdd {
				mdd = dd
			}
		}
	}
	return mdd
}

// annualized returns per-year volatility and Sharpe (zero risk-free rate)
// from per-bar simple returns.
func annualized(curve []portfolio.EquityPoint, periodsPerYear float64) (vol, sharpe float64) {
	if len(curve) < 3 {
		return 0, 0
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity <= 0 {
			continue
		}
		rets = append(rets, curve[i].Equity/curve[i-1].Equity-1)
	}
	if len(rets) < 2 {
		return 0, 0
	}
	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))
	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(rets)-1))
	vol = std * math.Sqrt(periodsPerYear)
	if std > 0 {
		sharpe = mean / std * math.Sqrt(periodsPerYear)
	}
	return vol, sharpe
}

// impermanentLoss compares holding the entry token amounts against the
// frozen entry position, both marked at the final price. It is zero when
// the final price equals the entry price and non-negative otherwise.
func impermanentLoss(run *sim.Result) (float64, error) {
	if run.EntryPrice <= 0 {
		return 0, nil // never deployed
	}
	hold := run.EntryAmount0*run.FinalPrice + run.EntryAmount1
	if hold <= 0 {
		return 0, nil
	}
	lp, err := run.EntryValueAt(run.FinalPrice)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMetrics, err)
	}
	il := (hold - lp) / hold
	if il < 0 && il > -1e-12 {
		il = 0 // float noise at the entry price itself
	}
	return il, nil
}

// lvrEstimate is the shortfall of the strategy, stripped of fee income
// and with friction costs added back, against the rebalanced 50/50
// benchmark, as a fraction of starting capital.
func lvrEstimate(run *sim.Result) float64 {
	feesQuote := run.FeesEarned0*run.FinalPrice + run.FeesEarned1
	lpExFees := run.FinalEquity - feesQuote + run.TotalFrictionCost
	return (run.Hodl5050Final - lpExFees) / run.InitialEquity
}
