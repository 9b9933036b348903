package strategies

import (
	"fmt"

	"github.com/rustyeddy/ammbt/indicators"
	"github.com/rustyeddy/ammbt/market"
)

// bandTargets turns explicit band edges into a single target, widening a
// collapsed band to a tenth of a percent of its center and keeping the
// lower edge positive.
func bandTargets(lower, upper, deploy float64) []Target {
	center := (lower + upper) / 2
	if center <= 0 {
		return nil
	}
	if minWidth := center * 0.001; upper-lower < minWidth {
		lower = center - minWidth/2
		upper = center + minWidth/2
	}
	if min := center * 0.01; lower < min {
		lower = min
	}
	return []Target{{Lower: lower, Upper: upper, Weight: deploy}}
}

// bollinger bands the range at SMA +/- k standard deviations.
type bollinger struct {
	k      float64
	deploy float64
	sma    *indicators.SMA
	std    *indicators.StdDev
}

func newBollinger(spec Spec) (*bollinger, error) {
	lookback := spec.Lookback
	if lookback <= 0 {
		lookback = 20
	}
	k := spec.K
	if k == 0 {
		k = 2
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: bollinger needs k > 0, got %v", ErrConfig, k)
	}
	return &bollinger{
		k:      k,
		deploy: spec.deploy(defaultDeploy),
		sma:    indicators.NewSMA(lookback),
		std:    indicators.NewStdDev(lookback),
	}, nil
}

func (s *bollinger) Name() string { return "bollinger" }
func (s *bollinger) Warmup() int  { return s.sma.Warmup() }

func (s *bollinger) Reset() {
	s.sma.Reset()
	s.std.Reset()
}

func (s *bollinger) Update(b market.Bar) {
	s.sma.Update(b)
	s.std.Update(b)
}

func (s *bollinger) Ready() bool { return s.sma.Ready() && s.std.Ready() }

func (s *bollinger) Targets(_ float64, _ Holdings) []Target {
	mid := s.sma.Value()
	span := s.k * s.std.Value()
	return bandTargets(mid-span, mid+span, s.deploy)
}

// keltner bands the range at EMA +/- multiplier * ATR.
type keltner struct {
	mult   float64
	deploy float64
	ema    *indicators.EMA
	atr    *indicators.ATR
}

func newKeltner(spec Spec) (*keltner, error) {
	lookback := spec.Lookback
	if lookback <= 0 {
		lookback = 20
	}
	mult := spec.Multiplier
	if mult == 0 {
		mult = 2
	}
	if mult < 0 {
		return nil, fmt.Errorf("%w: keltner needs multiplier > 0, got %v", ErrConfig, mult)
	}
	return &keltner{
		mult:   mult,
		deploy: spec.deploy(defaultDeploy),
		ema:    indicators.NewEMA(lookback),
		atr:    indicators.NewATR(lookback),
	}, nil
}

func (s *keltner) Name() string { return "keltner" }
func (s *keltner) Warmup() int  { return s.atr.Warmup() }

func (s *keltner) Reset() {
	s.ema.Reset()
	s.atr.Reset()
}

func (s *keltner) Update(b market.Bar) {
	s.ema.Update(b)
	s.atr.Update(b)
}

func (s *keltner) Ready() bool { return s.ema.Ready() && s.atr.Ready() }

func (s *keltner) Targets(_ float64, _ Holdings) []Target {
	mid := s.ema.Value()
	span := s.mult * s.atr.Value()
	return bandTargets(mid-span, mid+span, s.deploy)
}

// donchian centers the range on the rolling channel midpoint and scales
// the channel span by a multiplier.
type donchian struct {
	mult    float64
	deploy  float64
	channel *indicators.Donchian
}

func newDonchian(spec Spec) (*donchian, error) {
	lookback := spec.Lookback
	if lookback <= 0 {
		lookback = 20
	}
	mult := spec.Multiplier
	if mult == 0 {
		mult = 1
	}
	if mult < 0 {
		return nil, fmt.Errorf("%w: donchian needs multiplier > 0, got %v", ErrConfig, mult)
	}
	return &donchian{
		mult:    mult,
		deploy:  spec.deploy(defaultDeploy),
		channel: indicators.NewDonchian(lookback),
	}, nil
}

func (s *donchian) Name() string        { return "donchian" }
func (s *donchian) Warmup() int         { return s.channel.Warmup() }
func (s *donchian) Reset()              { s.channel.Reset() }
func (s *donchian) Update(b market.Bar) { s.channel.Update(b) }
func (s *donchian) Ready() bool         { return s.channel.Ready() }

func (s *donchian) Targets(_ float64, _ Holdings) []Target {
	mid := s.channel.Value()
	span := (s.channel.Upper() - s.channel.Lower()) * s.mult
	return bandTargets(mid-span/2, mid+span/2, s.deploy)
}

// channelMultiplier is a plain symmetric band around the current price.
type channelMultiplier struct {
	width  float64
	deploy float64
}

func newChannelMultiplier(spec Spec) (*channelMultiplier, error) {
	if spec.WidthPct <= 0 {
		return nil, fmt.Errorf("%w: channel_multiplier needs width_pct > 0, got %v", ErrConfig, spec.WidthPct)
	}
	return &channelMultiplier{width: spec.WidthPct, deploy: spec.deploy(defaultDeploy)}, nil
}

func (s *channelMultiplier) Name() string        { return "channel_multiplier" }
func (s *channelMultiplier) Warmup() int         { return 0 }
func (s *channelMultiplier) Reset()              {}
func (s *channelMultiplier) Update(b market.Bar) {}
func (s *channelMultiplier) Ready() bool         { return true }

func (s *channelMultiplier) Targets(price float64, _ Holdings) []Target {
	half := price * s.width / 200
	return bandTargets(price-half, price+half, s.deploy)
}
