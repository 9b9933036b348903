package strategies

import (
	"fmt"

	"github.com/rustyeddy/ammbt/indicators"
	"github.com/rustyeddy/ammbt/market"
)

const defaultDeploy = 0.95

// classic places a fixed-width band around a center price. Placement
// selects the center: the current price, the previous band while the price
// stays inside it, or a moving average.
type classic struct {
	width     float64
	placement string
	deploy    float64
	bins      int
	curve     Curve

	sma  *indicators.SMA
	last []Target
}

func newClassic(spec Spec) (*classic, error) {
	if spec.WidthPct <= 0 {
		return nil, fmt.Errorf("%w: classic needs width_pct > 0, got %v", ErrConfig, spec.WidthPct)
	}
	placement := spec.Placement
	if placement == "" {
		placement = "center"
	}
	switch placement {
	case "center", "recenter", "dynamic":
	default:
		return nil, fmt.Errorf("%w: unknown placement %q", ErrConfig, placement)
	}
	curve, err := curveFromSpec(spec)
	if err != nil {
		return nil, err
	}
	lookback := spec.Lookback
	if lookback <= 0 {
		lookback = 20
	}
	bins := spec.Bins
	if bins <= 0 {
		bins = 1
	}
	return &classic{
		width:     spec.WidthPct,
		placement: placement,
		deploy:    spec.deploy(defaultDeploy),
		bins:      bins,
		curve:     curve,
		sma:       indicators.NewSMA(lookback),
	}, nil
}

func (c *classic) Name() string { return "classic" }

func (c *classic) Warmup() int {
	if c.placement == "dynamic" {
		return c.sma.Warmup()
	}
	return 0
}

func (c *classic) Reset() {
	c.sma.Reset()
	c.last = nil
}

func (c *classic) Update(b market.Bar) { c.sma.Update(b) }

func (c *classic) Ready() bool {
	return c.placement != "dynamic" || c.sma.Ready()
}

func (c *classic) Targets(price float64, _ Holdings) []Target {
	center := price
	switch c.placement {
	case "dynamic":
		center = c.sma.Value()
	case "recenter":
		// Hold the previous band until the price leaves it.
		if len(c.last) > 0 {
			lo := c.last[0].Lower
			hi := c.last[len(c.last)-1].Upper
			if price >= lo && price <= hi {
				return c.last
			}
		}
	}
	c.last = distribute(center, c.width, c.deploy, c.bins, c.curve)
	return c.last
}
