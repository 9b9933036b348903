package metrics

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ammbt/market"
	"github.com/rustyeddy/ammbt/portfolio"
	"github.com/rustyeddy/ammbt/sim"
	"github.com/rustyeddy/ammbt/strategies"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func runFixture(t *testing.T, closes []float64) *sim.Result {
	t.Helper()
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time: t0.Add(time.Duration(i) * time.Hour),
			Open: c, High: c * 1.001, Low: c * 0.999, Close: c,
			Volume: 50,
		}
	}
	set, err := market.NewBarSet(bars, time.Hour, 0)
	require.NoError(t, err)

	strat, err := strategies.New(strategies.Spec{Name: "baseline_static", WidthPct: 40})
	require.NoError(t, err)
	s, err := sim.New(sim.Config{InitialCash: 10000}, strat)
	require.NoError(t, err)
	res, err := s.Run(set, nil)
	require.NoError(t, err)
	return res
}

func TestComputeRejectsEmptyRun(t *testing.T) {
	_, err := Compute(nil)
	assert.ErrorIs(t, err, ErrMetrics)
	_, err = Compute(&sim.Result{InitialEquity: 100})
	assert.ErrorIs(t, err, ErrMetrics)
}

func TestMaxDrawdown(t *testing.T) {
	curve := func(eq ...float64) []portfolio.EquityPoint {
		pts := make([]portfolio.EquityPoint, len(eq))
		for i, e := range eq {
			pts[i] = portfolio.EquityPoint{Equity: e}
		}
		return pts
	}

	assert.Zero(t, maxDrawdown(curve(100, 110, 120)))
	// Peak 120, trough 90.
	assert.InDelta(t, 0.25, maxDrawdown(curve(100, 120, 90, 110)), 1e-12)
	// Later deeper drawdown wins.
	assert.InDelta(t, 0.5, maxDrawdown(curve(100, 120, 90, 200, 100)), 1e-12)
}

func TestAnnualizedVolAndSharpe(t *testing.T) {
	curve := []portfolio.EquityPoint{
		{Equity: 100}, {Equity: 101}, {Equity: 102.01}, {Equity: 103.0301},
	}
	vol, sharpe := annualized(curve, 365*24)
	// Constant 1% per-bar return: zero dispersion.
	assert.InDelta(t, 0, vol, 1e-9)
	assert.Zero(t, sharpe)

	curve = []portfolio.EquityPoint{
		{Equity: 100}, {Equity: 110}, {Equity: 99}, {Equity: 108.9},
	}
	vol, sharpe = annualized(curve, 365*24)
	assert.Greater(t, vol, 0.0)
	assert.NotZero(t, sharpe)
}

func TestFlatRunHasZeroILAndAPR(t *testing.T) {
	res := runFixture(t, []float64{2000, 2000, 2000, 2000})
	m, err := Compute(res)
	require.NoError(t, err)

	assert.InDelta(t, 0, m.APR, 1e-9)
	assert.Zero(t, m.MDD)
	// Final price equals entry price: no impermanent loss.
	assert.InDelta(t, 0, m.ImpermanentLoss, 1e-12)
	assert.Equal(t, 1, m.RebalanceCount)
}

func TestImpermanentLossNonNegativeAcrossGrid(t *testing.T) {
	res := runFixture(t, []float64{2000, 2000})
	require.Greater(t, res.EntryAmount0, 0.0)

	for _, p := range []float64{1000, 1500, 1800, 1999, 2000, 2001, 2200, 2500, 4000} {
		hold := res.EntryAmount0*p + res.EntryAmount1
		lp, err := res.EntryValueAt(p)
		require.NoError(t, err)
		il := (hold - lp) / hold
		if p == 2000 {
			assert.InDelta(t, 0, il, 1e-12, "price %v", p)
		} else {
			assert.GreaterOrEqual(t, il, -1e-12, "price %v", p)
		}
	}
}

func TestAPRAnnualizesPerBarGrowth(t *testing.T) {
	// 24 hourly bars climbing 0.01% each: a small but positive APR.
	closes := make([]float64, 25)
	closes[0] = 2000
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * 1.0001
	}
	res := runFixture(t, closes)
	m, err := Compute(res)
	require.NoError(t, err)

	assert.Greater(t, m.APR, 0.0)
	assert.Greater(t, m.TotalReturn, 0.0)
	// Annualization exponent: (1+total)^(ppy/n)-1.
	years := float64(len(res.Equity)) / res.PeriodsPerYear
	want := math.Pow(res.FinalEquity/res.InitialEquity, 1/years) - 1
	assert.InDelta(t, want, m.APR, 1e-12)
}

func TestLVRUsesBenchmarkShortfall(t *testing.T) {
	run := &sim.Result{
		Equity:            []portfolio.EquityPoint{{Equity: 10000}, {Equity: 10100}},
		InitialEquity:     10000,
		FinalEquity:       10100,
		FinalPrice:        2000,
		FeesEarned1:       300,
		Hodl5050Final:     10500,
		PeriodsPerYear:    365 * 24,
		TotalFrictionCost: 50,
	}
	// LP ex fees, frictions added back: 10100 - 300 + 50 = 9850.
	assert.InDelta(t, (10500.0-9850.0)/10000.0, lvrEstimate(run), 1e-12)
}

func TestPrintReport(t *testing.T) {
	res := runFixture(t, []float64{2000, 2100, 2050})
	m, err := Compute(res)
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(&buf, "baseline_static", res, m)
	out := buf.String()
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "baseline_static")
	assert.Contains(t, out, "Max Drawdown")
	assert.Contains(t, out, "HODL 50/50")
}
