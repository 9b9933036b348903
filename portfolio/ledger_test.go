package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ammbt/strategies"
	"github.com/rustyeddy/ammbt/univ3"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewLedger(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)

	eq, err := l.Equity(2000)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, eq)

	_, err = NewLedger(0)
	assert.ErrorIs(t, err, ErrLedger)
	_, err = NewLedger(-5)
	assert.ErrorIs(t, err, ErrLedger)
}

func TestRebalancePreservesEquity(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)

	targets := []strategies.Target{{Lower: 1800, Upper: 2200, Weight: 0.95}}
	require.NoError(t, l.Rebalance(t0, 2000, targets, 0))

	// Zero cost: equity is unchanged by the move.
	eq, err := l.Equity(2000)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, eq, 1e-9)

	pv, err := l.Position().ValueAt(2000)
	require.NoError(t, err)
	assert.InDelta(t, 9500.0, pv, 1e-9)
	assert.Equal(t, 1, l.RebalanceCount())
	assert.Equal(t, t0, l.LastRebalance())
}

func TestRebalanceChargesCost(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)

	targets := []strategies.Target{{Lower: 1800, Upper: 2200, Weight: 1}}
	require.NoError(t, l.Rebalance(t0, 2000, targets, 25))

	eq, err := l.Equity(2000)
	require.NoError(t, err)
	assert.InDelta(t, 9975.0, eq, 1e-9)
	assert.Equal(t, 25.0, l.TotalFrictions())
}

func TestRebalanceRejectsBadInput(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)

	err = l.Rebalance(t0, 2000, []strategies.Target{{Lower: 1800, Upper: 2200, Weight: 1}}, 20000)
	assert.ErrorIs(t, err, ErrLedger)

	err = l.Rebalance(t0, 2000, []strategies.Target{{Lower: 1800, Upper: 2200, Weight: -0.5}}, 0)
	assert.ErrorIs(t, err, ErrLedger)

	err = l.Rebalance(t0, 2000, []strategies.Target{
		{Lower: 1800, Upper: 2200, Weight: 0.7},
		{Lower: 1900, Upper: 2100, Weight: 0.7},
	}, 0)
	assert.ErrorIs(t, err, ErrLedger)

	err = l.Rebalance(t0, 2000, []strategies.Target{{Lower: 2200, Upper: 1800, Weight: 1}}, 0)
	assert.ErrorIs(t, err, univ3.ErrValuation)
}

func TestMarkIdentity(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)
	require.NoError(t, l.Rebalance(t0, 2000, []strategies.Target{
		{Lower: 1800, Upper: 2200, Weight: 0.9},
	}, 10))
	l.CreditFees(0, 3.5)

	for _, price := range []float64{2000, 2100, 1900, 1750, 2300} {
		pt, err := l.Mark(t0, price)
		require.NoError(t, err)
		assert.Equal(t, pt.Equity, pt.Cash+pt.PositionValue+pt.Fees, "price %v", price)
	}
	assert.Len(t, l.History(), 5)
}

func TestFeesSweptOnRebalance(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)
	require.NoError(t, l.Rebalance(t0, 2000, []strategies.Target{
		{Lower: 1800, Upper: 2200, Weight: 1},
	}, 0))
	l.CreditFees(0.001, 5)

	eqBefore, err := l.Equity(2000)
	require.NoError(t, err)

	require.NoError(t, l.Rebalance(t0.Add(time.Hour), 2000, []strategies.Target{
		{Lower: 1900, Upper: 2100, Weight: 1},
	}, 0))

	eqAfter, err := l.Equity(2000)
	require.NoError(t, err)
	assert.InDelta(t, eqBefore, eqAfter, 1e-9)

	pt, err := l.Mark(t0.Add(time.Hour), 2000)
	require.NoError(t, err)
	assert.Zero(t, pt.Fees)

	f0, f1 := l.FeesEarned()
	assert.Equal(t, 0.001, f0)
	assert.Equal(t, 5.0, f1)
}

func TestEntryRecordedOnce(t *testing.T) {
	l, err := NewLedger(10000)
	require.NoError(t, err)
	require.NoError(t, l.Rebalance(t0, 2000, []strategies.Target{
		{Lower: 1800, Upper: 2200, Weight: 0.95},
	}, 0))

	price, a0, a1, _, cash := l.Entry()
	assert.Equal(t, 2000.0, price)
	assert.Greater(t, a0, 0.0)
	assert.Greater(t, a1, 0.0)
	assert.InDelta(t, 10000.0, a0*2000+a1, 1e-9)
	assert.InDelta(t, 500.0, cash, 1e-9)

	require.NoError(t, l.Rebalance(t0.Add(time.Hour), 2100, []strategies.Target{
		{Lower: 1900, Upper: 2300, Weight: 0.95},
	}, 0))
	price2, _, _, _, _ := l.Entry()
	assert.Equal(t, 2000.0, price2)
}

func TestHodl5050(t *testing.T) {
	var h Hodl5050
	require.NoError(t, h.Init(2000, 10000))
	assert.Equal(t, 10000.0, h.Value(2000))

	// Price doubles: token0 leg doubles, token1 leg holds.
	assert.InDelta(t, 15000.0, h.Value(4000), 1e-9)

	h.Rebalance(4000)
	assert.InDelta(t, 15000.0, h.Value(4000), 1e-9)
	// After rebalancing, both legs are even again.
	assert.InDelta(t, 7500.0+7500.0/2, h.Value(2000), 1e-9)

	assert.Error(t, h.Init(0, 100))
}

func TestSingleAsset(t *testing.T) {
	var s0, s1 SingleAsset
	require.NoError(t, s0.Init(2000, 10000, true))
	require.NoError(t, s1.Init(2000, 10000, false))

	assert.InDelta(t, 12500.0, s0.Value(2500), 1e-9)
	assert.Equal(t, 10000.0, s1.Value(2500))
}
