package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/ammbt/indicators"
	"github.com/rustyeddy/ammbt/market"
)

// dynamicVol sizes the range width from recent realized volatility:
// width_pct = k_width * annualized_vol * 100, clamped to a band.
type dynamicVol struct {
	kWidth   float64
	annual   float64
	minWidth float64
	maxWidth float64
	deploy   float64
	vol      indicators.Indicator
}

func newDynamicVol(spec Spec) (*dynamicVol, error) {
	window := spec.VolWindow
	if window <= 0 {
		window = 168
	}
	estimator := spec.VolEstimator
	if estimator == "" {
		estimator = "ewma"
	}
	var vol indicators.Indicator
	switch estimator {
	case "ewma":
		vol = indicators.NewEWMAVol(window)
	case "rs":
		vol = indicators.NewParkinsonVol(window)
	case "std":
		vol = indicators.NewReturnStdVol(window)
	default:
		return nil, fmt.Errorf("%w: unknown vol estimator %q", ErrConfig, estimator)
	}

	kWidth := spec.KWidth
	if kWidth == 0 {
		kWidth = 1.2
	}
	if kWidth < 0 {
		return nil, fmt.Errorf("%w: dynamic_vol needs k_width > 0, got %v", ErrConfig, kWidth)
	}
	annual := spec.AnnualFactor
	if annual == 0 {
		// Hourly bars by default.
		annual = math.Sqrt(24 * 365)
	}
	minWidth := spec.MinWidthPct
	if minWidth == 0 {
		minWidth = 10
	}
	maxWidth := spec.MaxWidthPct
	if maxWidth == 0 {
		maxWidth = 200
	}
	if minWidth < 0 || maxWidth < minWidth {
		return nil, fmt.Errorf("%w: width clamp [%v, %v]", ErrConfig, minWidth, maxWidth)
	}
	return &dynamicVol{
		kWidth:   kWidth,
		annual:   annual,
		minWidth: minWidth,
		maxWidth: maxWidth,
		deploy:   spec.deploy(defaultDeploy),
		vol:      vol,
	}, nil
}

func (s *dynamicVol) Name() string        { return "dynamic_vol" }
func (s *dynamicVol) Warmup() int         { return s.vol.Warmup() }
func (s *dynamicVol) Reset()              { s.vol.Reset() }
func (s *dynamicVol) Update(b market.Bar) { s.vol.Update(b) }
func (s *dynamicVol) Ready() bool         { return s.vol.Ready() }

// WidthPct returns the current volatility-sized width.
func (s *dynamicVol) WidthPct() float64 {
	vol := s.vol.Value() * s.annual
	// Floor the estimate so quiet stretches still get a usable width.
	if vol < 0.05 {
		vol = 0.05
	}
	width := s.kWidth * vol * 100
	if width < s.minWidth {
		width = s.minWidth
	}
	if width > s.maxWidth {
		width = s.maxWidth
	}
	return width
}

func (s *dynamicVol) Targets(price float64, _ Holdings) []Target {
	half := price * s.WidthPct() / 200
	return bandTargets(price-half, price+half, s.deploy)
}
