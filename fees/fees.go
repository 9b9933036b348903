// Package fees accrues swap fee income to a liquidity position, either
// exactly from pool state snapshots or through a volume proxy when no pool
// data is available.
package fees

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/ammbt/market"
	"github.com/rustyeddy/ammbt/position"
	"github.com/rustyeddy/ammbt/univ3"
)

// ErrFeeConfig marks invalid fee model parameters.
var ErrFeeConfig = errors.New("fees: invalid config")

// Mode selects how fee income is estimated.
type Mode string

const (
	// ModeExact shares the pool's actual fee revenue by the position's
	// liquidity fraction, scaled by the time the position was in range.
	ModeExact Mode = "exact"
	// ModeProxy estimates fee income as pool fee rate times bar quote
	// volume times an assumed liquidity share.
	ModeProxy Mode = "proxy"
)

// Config parameterizes the fee model.
type Config struct {
	// FeeTierBps is the pool's fee tier in basis points (e.g. 5, 30, 100).
	FeeTierBps float64 `yaml:"fee_tier_bps" json:"fee_tier_bps"`
	Mode       Mode    `yaml:"mode" json:"mode"`
	// LiquidityShare is the assumed share of in-range liquidity used by
	// proxy mode.
	LiquidityShare float64 `yaml:"liquidity_share" json:"liquidity_share"`
	// ShareFloor and ShareCap clamp the liquidity share in both modes.
	// A zero ShareCap means 1.
	ShareFloor float64 `yaml:"share_floor" json:"share_floor"`
	ShareCap   float64 `yaml:"share_cap" json:"share_cap"`
}

func (c Config) Validate() error {
	if c.FeeTierBps < 0 || math.IsNaN(c.FeeTierBps) {
		return fmt.Errorf("%w: fee_tier_bps %v", ErrFeeConfig, c.FeeTierBps)
	}
	switch c.Mode {
	case ModeExact, ModeProxy, "":
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrFeeConfig, c.Mode)
	}
	if c.LiquidityShare < 0 || c.LiquidityShare > 1 {
		return fmt.Errorf("%w: liquidity_share %v outside [0, 1]", ErrFeeConfig, c.LiquidityShare)
	}
	cap := c.ShareCap
	if cap == 0 {
		cap = 1
	}
	if c.ShareFloor < 0 || cap > 1 || c.ShareFloor > cap {
		return fmt.Errorf("%w: share clamp [%v, %v]", ErrFeeConfig, c.ShareFloor, cap)
	}
	return nil
}

// Accrual is one bar's fee income, in quote (token1) terms, and the mode
// that produced it.
type Accrual struct {
	Amount float64
	Mode   Mode
}

// Model accrues fees bar by bar.
type Model struct {
	cfg Config
	cap float64
}

func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeProxy
	}
	cap := cfg.ShareCap
	if cap == 0 {
		cap = 1
	}
	return &Model{cfg: cfg, cap: cap}, nil
}

func (m *Model) clampShare(share float64) float64 {
	if share < m.cfg.ShareFloor {
		return m.cfg.ShareFloor
	}
	if share > m.cap {
		return m.cap
	}
	return share
}

// AccrueBar computes the fee income earned by pos over one bar. Exact mode
// needs a pool snapshot with positive liquidity; without one it falls back
// to the proxy for that bar. The result is never negative.
func (m *Model) AccrueBar(bar market.Bar, pool *market.PoolBar, pos position.Position) Accrual {
	if pos.Empty() {
		return Accrual{Mode: m.cfg.Mode}
	}
	if m.cfg.Mode == ModeExact {
		if pool != nil && pool.Liquidity > 0 {
			return Accrual{Amount: m.exact(bar, pool, pos), Mode: ModeExact}
		}
		log.Debug().Time("bar", bar.Time).Msg("no pool state for bar, falling back to proxy fees")
	}
	return Accrual{Amount: m.proxy(bar, pos), Mode: ModeProxy}
}

// proxy: fee rate * bar quote volume * assumed liquidity share, earned only
// while the bar's close sits inside the position.
func (m *Model) proxy(bar market.Bar, pos position.Position) float64 {
	if !pos.Contains(bar.Close) {
		return 0
	}
	fee := m.cfg.FeeTierBps / 10000 * bar.Quote() * m.clampShare(m.cfg.LiquidityShare)
	if fee < 0 || math.IsNaN(fee) {
		return 0
	}
	return fee
}

// exact: the position's share of pool liquidity, times the fraction of the
// bar's traded span overlapping the position, times the pool's fee revenue.
func (m *Model) exact(bar market.Bar, pool *market.PoolBar, pos position.Position) float64 {
	share := m.clampShare(pos.TotalLiquidity() / (pool.Liquidity + pos.TotalLiquidity()))
	frac := m.inRangeFraction(bar, pos)
	if frac == 0 || share == 0 {
		return 0
	}
	revenue := m.cfg.FeeTierBps / 10000 * (pool.VolumeToken0*bar.Close + pool.VolumeToken1)
	fee := revenue * share * frac
	if fee < 0 || math.IsNaN(fee) {
		return 0
	}
	return fee
}

// inRangeFraction approximates the share of the bar during which the pool
// price traded inside the position, as the overlap of [low, high] with the
// position bounds.
func (m *Model) inRangeFraction(bar market.Bar, pos position.Position) float64 {
	lower, upper, ok := pos.Bounds()
	if !ok {
		return 0
	}
	if bar.High == bar.Low {
		if pos.Contains(bar.Close) {
			return 1
		}
		return 0
	}
	lo := math.Max(bar.Low, lower)
	hi := math.Min(bar.High, upper)
	if hi <= lo {
		return 0
	}
	return (hi - lo) / (bar.High - bar.Low)
}

// TickInRange reports whether a pool tick maps to a price inside the
// position bounds.
func TickInRange(tick int, pos position.Position) (bool, error) {
	p, err := univ3.PriceAtTick(tick)
	if err != nil {
		return false, err
	}
	return pos.Contains(p), nil
}
