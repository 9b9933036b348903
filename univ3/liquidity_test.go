package univ3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountsInsideRange(t *testing.T) {
	// Spot 2000 inside [1800, 2200], L = 1000.
	sp := math.Sqrt(2000.0)
	sa := math.Sqrt(1800.0)
	sb := math.Sqrt(2200.0)

	a0, a1 := AmountsForLiquidity(sp, sa, sb, 1000)

	want0 := 1000 * (sb - sp) / (sp * sb)
	want1 := 1000 * (sp - sa)
	assert.Equal(t, want0, a0)
	assert.Equal(t, want1, a1)
	assert.Greater(t, a0, 0.0)
	assert.Greater(t, a1, 0.0)
}

func TestAmountsBelowRange(t *testing.T) {
	sa := math.Sqrt(1800.0)
	sb := math.Sqrt(2200.0)

	a0, a1 := AmountsForLiquidity(math.Sqrt(1500.0), sa, sb, 1000)
	assert.Zero(t, a1)
	assert.Equal(t, Amount0ForLiquidity(sa, sb, 1000), a0)

	// Exactly on the lower bound counts as below: all token0.
	a0, a1 = AmountsForLiquidity(sa, sa, sb, 1000)
	assert.Zero(t, a1)
	assert.Greater(t, a0, 0.0)
}

func TestAmountsAboveRange(t *testing.T) {
	sa := math.Sqrt(1800.0)
	sb := math.Sqrt(2200.0)

	a0, a1 := AmountsForLiquidity(math.Sqrt(2500.0), sa, sb, 1000)
	assert.Zero(t, a0)
	assert.Equal(t, Amount1ForLiquidity(sa, sb, 1000), a1)

	a0, a1 = AmountsForLiquidity(sb, sa, sb, 1000)
	assert.Zero(t, a0)
	assert.Greater(t, a1, 0.0)
}

func TestLiquidityAmountsRoundTrip(t *testing.T) {
	sp := math.Sqrt(2000.0)
	sa := math.Sqrt(1800.0)
	sb := math.Sqrt(2200.0)

	a0, a1 := AmountsForLiquidity(sp, sa, sb, 1234.5)
	l := LiquidityForAmounts(sp, sa, sb, a0, a1)
	assert.InDelta(t, 1234.5, l, 1e-9)
}

func TestLiquidityForAmountsMinRule(t *testing.T) {
	sp := math.Sqrt(2000.0)
	sa := math.Sqrt(1800.0)
	sb := math.Sqrt(2200.0)

	// Extra token1 beyond the balanced mix must not raise liquidity.
	a0, a1 := AmountsForLiquidity(sp, sa, sb, 1000)
	l := LiquidityForAmounts(sp, sa, sb, a0, a1*10)
	assert.InDelta(t, 1000.0, l, 1e-9)
}

func TestValueContinuityAtBounds(t *testing.T) {
	// Position value is continuous where the spot crosses a range bound.
	const l = 5000.0
	for _, bound := range []float64{1800, 2200} {
		below, err := ValueAtPrice(bound*(1-1e-9), 1800, 2200, l)
		require.NoError(t, err)
		at, err := ValueAtPrice(bound, 1800, 2200, l)
		require.NoError(t, err)
		above, err := ValueAtPrice(bound*(1+1e-9), 1800, 2200, l)
		require.NoError(t, err)
		assert.InDelta(t, at, below, at*1e-6)
		assert.InDelta(t, at, above, at*1e-6)
	}
}

func TestLiquidityForValue(t *testing.T) {
	l, err := LiquidityForValue(2000, 1800, 2200, 10000)
	require.NoError(t, err)
	v, err := ValueAtPrice(2000, 1800, 2200, l)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, v, 1e-6)

	// One-sided ranges still deploy.
	l, err = LiquidityForValue(2000, 2100, 2300, 10000)
	require.NoError(t, err)
	assert.Greater(t, l, 0.0)
	l, err = LiquidityForValue(2000, 1500, 1900, 10000)
	require.NoError(t, err)
	assert.Greater(t, l, 0.0)
}

func TestDegenerateInputs(t *testing.T) {
	_, err := SqrtPrice(0)
	assert.ErrorIs(t, err, ErrValuation)
	_, err = SqrtPrice(-5)
	assert.ErrorIs(t, err, ErrValuation)
	_, err = SqrtPrice(math.Inf(1))
	assert.ErrorIs(t, err, ErrValuation)

	_, _, err = AmountsAtPrice(2000, 2200, 1800, 1) // inverted range
	assert.ErrorIs(t, err, ErrValuation)
	_, _, err = AmountsAtPrice(math.NaN(), 1800, 2200, 1)
	assert.ErrorIs(t, err, ErrValuation)
	_, err = ValueAtPrice(2000, 1800, 2200, -1)
	assert.ErrorIs(t, err, ErrValuation)
	_, err = LiquidityForValue(2000, 1800, 2200, -100)
	assert.ErrorIs(t, err, ErrValuation)
}

func TestValueMonotonicBelowRange(t *testing.T) {
	// Below the range the position holds only token0, so value grows with price.
	prev := 0.0
	for p := 1000.0; p <= 1800; p += 100 {
		v, err := ValueAtPrice(p, 1800, 2200, 1000)
		require.NoError(t, err)
		assert.Greater(t, v, prev)
		prev = v
	}
}
