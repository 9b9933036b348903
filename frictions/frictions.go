// Package frictions prices the cost of moving a portfolio between
// positions: swap fees and slippage on the re-denominated capital plus a
// flat gas charge per rebalance.
package frictions

import (
	"errors"
	"fmt"
	"math"
)

// ErrFrictionConfig marks invalid friction parameters.
var ErrFrictionConfig = errors.New("frictions: invalid config")

// Model holds the friction parameters. Costs are charged in quote terms.
type Model struct {
	SwapFeeBps  float64 `yaml:"swap_fee_bps" json:"swap_fee_bps"`
	SlippageBps float64 `yaml:"slippage_bps" json:"slippage_bps"`
	// GasCost is a flat per-rebalance charge in quote units.
	GasCost float64 `yaml:"gas_cost" json:"gas_cost"`
}

func (m Model) Validate() error {
	for name, v := range map[string]float64{
		"swap_fee_bps": m.SwapFeeBps, "slippage_bps": m.SlippageBps, "gas_cost": m.GasCost,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s %v", ErrFrictionConfig, name, v)
		}
	}
	return nil
}

// Zero reports whether the model charges nothing.
func (m Model) Zero() bool {
	return m.SwapFeeBps == 0 && m.SlippageBps == 0 && m.GasCost == 0
}

// Turnover is the quote value that must change denomination to move from
// the old token composition to the new one. Value conserved across the
// move makes the two legs mirror images, so their average is used.
func Turnover(old0, old1, new0, new1, price float64) float64 {
	leg0 := math.Abs(new0-old0) * price
	leg1 := math.Abs(new1 - old1)
	return (leg0 + leg1) / 2
}

// RebalanceCost returns the total friction charge for moving between the
// two compositions at the given price. Never negative; a no-op move costs
// only gas.
func (m Model) RebalanceCost(old0, old1, new0, new1, price float64) float64 {
	turnover := Turnover(old0, old1, new0, new1, price)
	cost := turnover*(m.SwapFeeBps+m.SlippageBps)/10000 + m.GasCost
	if cost < 0 || math.IsNaN(cost) {
		return 0
	}
	return cost
}
