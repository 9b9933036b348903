// Package strategies implements the range placement strategies. A strategy
// consumes bars, and once warm proposes the price ranges and capital
// weights a rebalance should deploy into.
package strategies

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/ammbt/market"
)

// ErrConfig marks invalid strategy parameters, reported at construction.
var ErrConfig = errors.New("strategies: invalid parameters")

// Target is one proposed liquidity placement: a price range and the
// fraction of portfolio value to deploy into it.
type Target struct {
	Lower  float64
	Upper  float64
	Weight float64
}

// Holdings is the portfolio snapshot a strategy may shape its proposal
// around. Value is total equity in quote terms.
type Holdings struct {
	Value   float64
	Amount0 float64
	Amount1 float64
}

// Strategy is the contract every variant satisfies. Update is called once
// per bar in order; Targets is only meaningful when Ready reports true and
// must not mutate state other than the variant's own placement memory.
type Strategy interface {
	Name() string
	// Warmup is the number of bars needed before Targets is usable.
	Warmup() int
	Reset()
	Update(b market.Bar)
	Ready() bool
	Targets(price float64, h Holdings) []Target
}

// Names lists the registered strategy names in a stable order.
func Names() []string {
	return []string{
		"classic",
		"bollinger",
		"keltner",
		"donchian",
		"stable",
		"fluid",
		"channel_multiplier",
		"baseline_static",
		"baseline_fixed",
		"dynamic_vol",
		"dynamic_inventory",
	}
}

// New builds the named strategy from a Spec. Unknown names and invalid
// parameters return ErrConfig.
func New(spec Spec) (Strategy, error) {
	switch spec.Name {
	case "classic":
		return newClassic(spec)
	case "bollinger":
		return newBollinger(spec)
	case "keltner":
		return newKeltner(spec)
	case "donchian":
		return newDonchian(spec)
	case "stable":
		return newStable(spec)
	case "fluid":
		return newFluid(spec)
	case "channel_multiplier":
		return newChannelMultiplier(spec)
	case "baseline_static":
		return newBaseline(spec, "baseline_static", 500)
	case "baseline_fixed":
		return newBaseline(spec, "baseline_fixed", 50)
	case "dynamic_vol":
		return newDynamicVol(spec)
	case "dynamic_inventory":
		return newDynamicInventory(spec)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfig, spec.Name)
	}
}
