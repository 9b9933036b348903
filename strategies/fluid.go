package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/ammbt/market"
)

// Fluid inventory states, ordered by how far the token value ratio has
// drifted from its ideal.
const (
	fluidDefault    = "default"
	fluidImbalanced = "imbalanced"
	fluidOneSided   = "one_sided"
)

// fluid watches the ratio of token0 value to token1 value and widens its
// placement as the inventory drifts: a tight band when balanced, a wider
// one when imbalanced, and the widest when effectively one sided.
type fluid struct {
	ideal      float64
	acceptable float64
	threshold  float64
	sprawl     string
	deploy     float64
	curve      Curve
	bins       int

	state string
}

func newFluid(spec Spec) (*fluid, error) {
	if spec.IdealRatio <= 0 {
		return nil, fmt.Errorf("%w: fluid needs ideal_ratio > 0, got %v", ErrConfig, spec.IdealRatio)
	}
	if spec.AcceptableRatio <= 0 {
		return nil, fmt.Errorf("%w: fluid needs acceptable_ratio > 0, got %v", ErrConfig, spec.AcceptableRatio)
	}
	threshold := spec.RebalanceThreshold
	if threshold == 0 {
		threshold = 0.1
	}
	if threshold < spec.AcceptableRatio {
		return nil, fmt.Errorf("%w: rebalance_threshold %v below acceptable_ratio %v",
			ErrConfig, threshold, spec.AcceptableRatio)
	}
	sprawl := spec.Sprawl
	if sprawl == "" {
		sprawl = "dynamic"
	}
	switch sprawl {
	case "full", "dynamic", "static":
	default:
		return nil, fmt.Errorf("%w: unknown sprawl %q", ErrConfig, sprawl)
	}
	curve, err := curveFromSpec(spec)
	if err != nil {
		return nil, err
	}
	return &fluid{
		ideal:      spec.IdealRatio,
		acceptable: spec.AcceptableRatio,
		threshold:  threshold,
		sprawl:     sprawl,
		deploy:     spec.deploy(defaultDeploy),
		curve:      curve,
		bins:       spec.Bins,
		state:      fluidDefault,
	}, nil
}

func (s *fluid) Name() string        { return "fluid" }
func (s *fluid) Warmup() int         { return 0 }
func (s *fluid) Reset()              { s.state = fluidDefault }
func (s *fluid) Update(b market.Bar) {}
func (s *fluid) Ready() bool         { return true }

// State reports the inventory state chosen by the last Targets call.
func (s *fluid) State() string { return s.state }

func (s *fluid) Targets(price float64, h Holdings) []Target {
	s.state = s.classify(price, h)

	widthPct, bins := 10.0, 3
	switch s.sprawl {
	case "full":
		widthPct, bins = 20.0, 5
	case "static":
		widthPct, bins = 15.0, 4
	case "dynamic":
		switch s.state {
		case fluidImbalanced:
			widthPct, bins = 15.0, 4
		case fluidOneSided:
			widthPct, bins = 25.0, 5
		}
	}
	if s.bins > 0 {
		bins = s.bins
	}
	return distribute(price, widthPct, s.deploy, bins, s.curve)
}

func (s *fluid) classify(price float64, h Holdings) string {
	value0 := h.Amount0 * price
	value1 := h.Amount1
	if value0 <= 0 || value1 <= 0 {
		if value0 == 0 && value1 == 0 {
			return fluidDefault
		}
		return fluidOneSided
	}
	dev := math.Abs(value0/value1-s.ideal) / s.ideal
	switch {
	case dev <= s.acceptable:
		return fluidDefault
	case dev <= s.threshold:
		return fluidImbalanced
	default:
		return fluidOneSided
	}
}
