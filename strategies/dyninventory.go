package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/ammbt/market"
)

// dynamicInventory widens the range as the portfolio's token skew drifts
// from its target and as recent fee density rises. Skew is the token0
// share of portfolio value.
type dynamicInventory struct {
	skewThreshold float64
	targetSkew    float64
	baseWidth     float64
	minWidth      float64
	maxWidth      float64
	normVolume    float64
	deploy        float64

	window  int
	volumes []float64
}

func newDynamicInventory(spec Spec) (*dynamicInventory, error) {
	skewThreshold := spec.SkewThresholdPct
	if skewThreshold == 0 {
		skewThreshold = 15
	}
	if skewThreshold < 0 {
		return nil, fmt.Errorf("%w: dynamic_inventory needs skew_threshold_pct > 0, got %v",
			ErrConfig, skewThreshold)
	}
	targetSkew := spec.TargetSkew
	if targetSkew == 0 {
		targetSkew = 0.5
	}
	if targetSkew < 0 || targetSkew > 1 {
		return nil, fmt.Errorf("%w: target_skew %v outside [0, 1]", ErrConfig, targetSkew)
	}
	baseWidth := spec.BaseWidthPct
	if baseWidth == 0 {
		baseWidth = 30
	}
	if baseWidth < 0 {
		return nil, fmt.Errorf("%w: base_width_pct %v", ErrConfig, baseWidth)
	}
	minWidth := spec.MinWidthPct
	if minWidth == 0 {
		minWidth = 20
	}
	maxWidth := spec.MaxWidthPct
	if maxWidth == 0 {
		maxWidth = 150
	}
	if minWidth < 0 || maxWidth < minWidth {
		return nil, fmt.Errorf("%w: width clamp [%v, %v]", ErrConfig, minWidth, maxWidth)
	}
	window := spec.FeeDensityWindow
	if window <= 0 {
		window = 24
	}
	normVolume := spec.NormVolume
	if normVolume <= 0 {
		normVolume = 1000
	}
	return &dynamicInventory{
		skewThreshold: skewThreshold,
		targetSkew:    targetSkew,
		baseWidth:     baseWidth,
		minWidth:      minWidth,
		maxWidth:      maxWidth,
		normVolume:    normVolume,
		deploy:        spec.deploy(defaultDeploy),
		window:        window,
	}, nil
}

func (s *dynamicInventory) Name() string { return "dynamic_inventory" }
func (s *dynamicInventory) Warmup() int  { return s.window }
func (s *dynamicInventory) Reset()       { s.volumes = nil }

func (s *dynamicInventory) Update(b market.Bar) {
	s.volumes = append(s.volumes, b.Volume)
	if len(s.volumes) > s.window {
		s.volumes = s.volumes[1:]
	}
}

func (s *dynamicInventory) Ready() bool { return len(s.volumes) >= s.window }

func (s *dynamicInventory) feeDensity() float64 {
	if len(s.volumes) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.volumes {
		sum += v
	}
	return sum / float64(len(s.volumes))
}

func (s *dynamicInventory) Targets(price float64, h Holdings) []Target {
	skewDev := 0.0
	if h.Value > 0 {
		share0 := h.Amount0 * price / h.Value
		skewDev = math.Abs(share0-s.targetSkew) * 100
	}
	skewAdj := math.Min(skewDev/s.skewThreshold, 2)
	feeAdj := math.Min(s.feeDensity()/s.normVolume, 1.5)

	width := s.baseWidth * (1 + skewAdj + feeAdj)
	if width < s.minWidth {
		width = s.minWidth
	}
	if width > s.maxWidth {
		width = s.maxWidth
	}
	half := price * width / 200
	return bandTargets(price-half, price+half, s.deploy)
}
