package strategies

import (
	"fmt"

	"github.com/rustyeddy/ammbt/market"
)

// baseline is the reference family: a fixed symmetric band around the
// current price, deploying everything. baseline_static uses a band so wide
// it almost never exits; baseline_fixed a conventional width.
type baseline struct {
	name  string
	width float64
	dep   float64
}

func newBaseline(spec Spec, name string, defaultWidth float64) (*baseline, error) {
	width := spec.WidthPct
	if width == 0 {
		width = defaultWidth
	}
	if width < 0 {
		return nil, fmt.Errorf("%w: %s needs width_pct > 0, got %v", ErrConfig, name, width)
	}
	return &baseline{name: name, width: width, dep: spec.deploy(1)}, nil
}

func (s *baseline) Name() string        { return s.name }
func (s *baseline) Warmup() int         { return 0 }
func (s *baseline) Reset()              {}
func (s *baseline) Update(b market.Bar) {}
func (s *baseline) Ready() bool         { return true }

func (s *baseline) Targets(price float64, _ Holdings) []Target {
	half := price * s.width / 200
	return bandTargets(price-half, price+half, s.dep)
}
