package strategies

import (
	"fmt"

	"github.com/rustyeddy/ammbt/indicators"
	"github.com/rustyeddy/ammbt/market"
)

// stable tracks a peg estimate and spreads a tight multi-bin band around
// it. Built for pairs expected to trade near a fixed ratio.
type stable struct {
	width  float64
	deploy float64
	bins   int
	curve  Curve
	peg    indicators.Indicator
}

func newStable(spec Spec) (*stable, error) {
	lookback := spec.PegLookback
	if lookback <= 0 {
		lookback = 24
	}
	method := spec.PegMethod
	if method == "" {
		method = "sma"
	}
	var peg indicators.Indicator
	switch method {
	case "sma":
		peg = indicators.NewSMA(lookback)
	case "ema":
		peg = indicators.NewEMA(lookback)
	case "median":
		peg = indicators.NewMedian(lookback)
	case "vwap":
		peg = indicators.NewVWAP(lookback)
	default:
		return nil, fmt.Errorf("%w: unknown peg method %q", ErrConfig, method)
	}

	width := spec.WidthPct
	if width == 0 {
		width = 2
	}
	if width < 0 {
		return nil, fmt.Errorf("%w: stable needs width_pct > 0, got %v", ErrConfig, width)
	}
	bins := spec.Bins
	if bins <= 0 {
		bins = 3
	}
	curve, err := curveFromSpec(spec)
	if err != nil {
		return nil, err
	}
	return &stable{
		width:  width,
		deploy: spec.deploy(defaultDeploy),
		bins:   bins,
		curve:  curve,
		peg:    peg,
	}, nil
}

func (s *stable) Name() string        { return "stable" }
func (s *stable) Warmup() int         { return s.peg.Warmup() }
func (s *stable) Reset()              { s.peg.Reset() }
func (s *stable) Update(b market.Bar) { s.peg.Update(b) }
func (s *stable) Ready() bool         { return s.peg.Ready() }

func (s *stable) Targets(price float64, _ Holdings) []Target {
	peg := s.peg.Value()
	if peg <= 0 {
		peg = price
	}
	return distribute(peg, s.width, s.deploy, s.bins, s.curve)
}
