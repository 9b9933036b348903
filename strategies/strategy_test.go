package strategies

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ammbt/market"
)

func barsFromCloses(closes ...float64) []market.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time: start.Add(time.Duration(i) * time.Hour),
			Open: c, High: c * 1.005, Low: c * 0.995, Close: c,
			Volume: 50,
		}
	}
	return bars
}

func warmUp(s Strategy, closes ...float64) {
	for _, b := range barsFromCloses(closes...) {
		s.Update(b)
	}
}

func flatCloses(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func totalWeight(targets []Target) float64 {
	var w float64
	for _, t := range targets {
		w += t.Weight
	}
	return w
}

func TestNewRejectsUnknownAndInvalid(t *testing.T) {
	_, err := New(Spec{Name: "martingale"})
	assert.ErrorIs(t, err, ErrConfig)

	cases := []Spec{
		{Name: "classic"}, // missing width
		{Name: "classic", WidthPct: 10, Placement: "edge"}, // bad placement
		{Name: "bollinger", K: -1},
		{Name: "keltner", Multiplier: -2},
		{Name: "donchian", Multiplier: -1},
		{Name: "channel_multiplier"},
		{Name: "stable", PegMethod: "oracle"},
		{Name: "stable", Curve: "spiky"},
		{Name: "fluid"}, // missing ratios
		{Name: "fluid", IdealRatio: 1, AcceptableRatio: 0.2, RebalanceThreshold: 0.1},
		{Name: "dynamic_vol", VolEstimator: "garch"},
		{Name: "dynamic_vol", MinWidthPct: 50, MaxWidthPct: 10},
		{Name: "dynamic_inventory", TargetSkew: 1.5},
	}
	for _, spec := range cases {
		_, err := New(spec)
		assert.ErrorIs(t, err, ErrConfig, "spec %+v", spec)
	}
}

func TestAllNamesConstruct(t *testing.T) {
	for _, name := range Names() {
		spec := Spec{Name: name, WidthPct: 10, IdealRatio: 1, AcceptableRatio: 0.05}
		s, err := New(spec)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}
}

func TestClassicCenterPlacement(t *testing.T) {
	s, err := New(Spec{Name: "classic", WidthPct: 20})
	require.NoError(t, err)
	assert.True(t, s.Ready())

	targets := s.Targets(2000, Holdings{})
	require.Len(t, targets, 1)
	assert.InDelta(t, 1800.0, targets[0].Lower, 1e-9)
	assert.InDelta(t, 2200.0, targets[0].Upper, 1e-9)
	assert.InDelta(t, 0.95, targets[0].Weight, 1e-12)
}

func TestClassicRecenterHoldsRange(t *testing.T) {
	s, err := New(Spec{Name: "classic", WidthPct: 20, Placement: "recenter"})
	require.NoError(t, err)

	first := s.Targets(2000, Holdings{})
	// Price inside the band: proposal stays put.
	second := s.Targets(2100, Holdings{})
	assert.Equal(t, first, second)
	// Price escapes: the band moves.
	third := s.Targets(2500, Holdings{})
	assert.NotEqual(t, first, third)
	assert.InDelta(t, 2500.0, (third[0].Lower+third[0].Upper)/2, 1e-9)
}

func TestClassicDynamicNeedsWarmup(t *testing.T) {
	s, err := New(Spec{Name: "classic", WidthPct: 20, Placement: "dynamic", Lookback: 5})
	require.NoError(t, err)
	assert.False(t, s.Ready())
	assert.Equal(t, 5, s.Warmup())

	warmUp(s, flatCloses(5, 2000)...)
	require.True(t, s.Ready())
	targets := s.Targets(2500, Holdings{}) // centers on the SMA, not spot
	assert.InDelta(t, 2000.0, (targets[0].Lower+targets[0].Upper)/2, 1e-9)
}

func TestBollingerBands(t *testing.T) {
	s, err := New(Spec{Name: "bollinger", Lookback: 4, K: 2})
	require.NoError(t, err)
	assert.False(t, s.Ready())

	warmUp(s, 2, 4, 4, 6)
	require.True(t, s.Ready())

	targets := s.Targets(4, Holdings{})
	require.Len(t, targets, 1)
	std := math.Sqrt(8.0 / 3.0)
	assert.InDelta(t, 4-2*std, targets[0].Lower, 1e-9)
	assert.InDelta(t, 4+2*std, targets[0].Upper, 1e-9)
}

func TestBollingerFlatMarketStillGivesRange(t *testing.T) {
	s, err := New(Spec{Name: "bollinger", Lookback: 4, K: 2})
	require.NoError(t, err)
	warmUp(s, flatCloses(4, 2000)...)

	targets := s.Targets(2000, Holdings{})
	require.Len(t, targets, 1)
	assert.Less(t, targets[0].Lower, targets[0].Upper)
	assert.Greater(t, targets[0].Lower, 0.0)
}

func TestKeltnerBands(t *testing.T) {
	s, err := New(Spec{Name: "keltner", Lookback: 3, Multiplier: 1.5})
	require.NoError(t, err)
	warmUp(s, 2000, 2010, 1995, 2005)
	require.True(t, s.Ready())

	targets := s.Targets(2005, Holdings{})
	require.Len(t, targets, 1)
	mid := (targets[0].Lower + targets[0].Upper) / 2
	assert.InDelta(t, mid, 2000, 20) // near the EMA
	assert.Less(t, targets[0].Lower, targets[0].Upper)
}

func TestDonchianChannel(t *testing.T) {
	s, err := New(Spec{Name: "donchian", Lookback: 3, Multiplier: 1})
	require.NoError(t, err)
	warmUp(s, 1900, 2100, 2000)
	require.True(t, s.Ready())

	targets := s.Targets(2000, Holdings{})
	require.Len(t, targets, 1)
	hh := 2100 * 1.005
	ll := 1900 * 0.995
	assert.InDelta(t, (hh+ll)/2, (targets[0].Lower+targets[0].Upper)/2, 1e-9)
	assert.InDelta(t, hh-ll, targets[0].Upper-targets[0].Lower, 1e-9)
}

func TestChannelMultiplier(t *testing.T) {
	s, err := New(Spec{Name: "channel_multiplier", WidthPct: 50})
	require.NoError(t, err)
	targets := s.Targets(2000, Holdings{})
	require.Len(t, targets, 1)
	assert.InDelta(t, 1750.0, targets[0].Lower, 1e-9)
	assert.InDelta(t, 2250.0, targets[0].Upper, 1e-9)
}

func TestBaselineWidths(t *testing.T) {
	static, err := New(Spec{Name: "baseline_static"})
	require.NoError(t, err)
	targets := static.Targets(2000, Holdings{})
	require.Len(t, targets, 1)
	// 500% width: the raw lower bound is negative and clamps to 1% of center.
	assert.InDelta(t, 20.0, targets[0].Lower, 1e-9)
	assert.InDelta(t, 7000.0, targets[0].Upper, 1e-9)
	assert.InDelta(t, 1.0, targets[0].Weight, 1e-12)

	fixed, err := New(Spec{Name: "baseline_fixed"})
	require.NoError(t, err)
	targets = fixed.Targets(2000, Holdings{})
	require.Len(t, targets, 1)
	assert.InDelta(t, 1500.0, targets[0].Lower, 1e-9)
	assert.InDelta(t, 2500.0, targets[0].Upper, 1e-9)
}

func TestStablePeg(t *testing.T) {
	s, err := New(Spec{Name: "stable", PegMethod: "median", PegLookback: 3, WidthPct: 2, Bins: 3})
	require.NoError(t, err)
	warmUp(s, 1.001, 0.999, 1.000)
	require.True(t, s.Ready())

	targets := s.Targets(1.01, Holdings{})
	require.Len(t, targets, 3)
	// Bins tile the band contiguously around the peg, not the spot.
	assert.InDelta(t, 1.000, (targets[0].Lower+targets[2].Upper)/2, 1e-6)
	for i := 1; i < len(targets); i++ {
		assert.Equal(t, targets[i-1].Upper, targets[i].Lower)
	}
	assert.InDelta(t, 0.95, totalWeight(targets), 1e-9)
	// Gaussian default puts the most weight in the center bin.
	assert.Greater(t, targets[1].Weight, targets[0].Weight)
	assert.Greater(t, targets[1].Weight, targets[2].Weight)
}

func TestFluidStates(t *testing.T) {
	s, err := New(Spec{Name: "fluid", IdealRatio: 1, AcceptableRatio: 0.05, RebalanceThreshold: 0.2})
	require.NoError(t, err)
	f := s.(*fluid)

	// Balanced holdings: tight band.
	balanced := Holdings{Value: 4000, Amount0: 1, Amount1: 2000}
	targets := s.Targets(2000, balanced)
	assert.Equal(t, fluidDefault, f.State())
	assert.Len(t, targets, 3)

	// Ratio 1.1: beyond acceptable, inside threshold.
	im := Holdings{Value: 4200, Amount0: 1.1, Amount1: 2000}
	targets = s.Targets(2000, im)
	assert.Equal(t, fluidImbalanced, f.State())
	assert.Len(t, targets, 4)

	// All token0: one sided, widest band.
	oneSided := Holdings{Value: 4000, Amount0: 2, Amount1: 0}
	targets = s.Targets(2000, oneSided)
	assert.Equal(t, fluidOneSided, f.State())
	assert.Len(t, targets, 5)
	span := targets[len(targets)-1].Upper - targets[0].Lower
	assert.InDelta(t, 2000*0.25, span, 1e-6)
}

func TestDynamicVolWidthClamps(t *testing.T) {
	s, err := New(Spec{Name: "dynamic_vol", VolEstimator: "std", VolWindow: 5, KWidth: 1.2})
	require.NoError(t, err)
	dv := s.(*dynamicVol)

	// Flat prices: vol floors at 5%, width floors at min.
	warmUp(s, flatCloses(6, 2000)...)
	require.True(t, s.Ready())
	assert.Equal(t, 10.0, dv.WidthPct())

	// Violent swings: width caps at max.
	s.Reset()
	warmUp(s, 2000, 3000, 1500, 2800, 1400, 2600)
	assert.Equal(t, 200.0, dv.WidthPct())
}

func TestDynamicVolTargetsCenterOnPrice(t *testing.T) {
	s, err := New(Spec{Name: "dynamic_vol", VolEstimator: "rs", VolWindow: 4})
	require.NoError(t, err)
	warmUp(s, 2000, 2020, 1990, 2010)
	require.True(t, s.Ready())

	targets := s.Targets(2010, Holdings{})
	require.Len(t, targets, 1)
	assert.InDelta(t, 2010.0, (targets[0].Lower+targets[0].Upper)/2, 1e-6)
}

func TestDynamicInventoryWidens(t *testing.T) {
	s, err := New(Spec{Name: "dynamic_inventory", FeeDensityWindow: 4})
	require.NoError(t, err)
	warmUp(s, flatCloses(4, 2000)...)
	require.True(t, s.Ready())

	balanced := Holdings{Value: 4000, Amount0: 1, Amount1: 2000}
	skewed := Holdings{Value: 4000, Amount0: 1.9, Amount1: 200}

	wBalanced := width(s.Targets(2000, balanced))
	wSkewed := width(s.Targets(2000, skewed))
	assert.Greater(t, wSkewed, wBalanced)
}

func width(targets []Target) float64 {
	return targets[len(targets)-1].Upper - targets[0].Lower
}

func TestCurveWeights(t *testing.T) {
	for _, c := range []Curve{UniformCurve{}, LinearCurve{Slope: 1}, GaussianCurve{StdDev: 0.5}} {
		w := c.Weights(5)
		require.Len(t, w, 5)
		var sum float64
		for _, v := range w {
			assert.Greater(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
	// Gaussian and linear peak in the middle.
	g := GaussianCurve{StdDev: 0.5}.Weights(5)
	assert.Greater(t, g[2], g[0])
	l := LinearCurve{Slope: 1}.Weights(5)
	assert.Greater(t, l[2], l[4])
}
