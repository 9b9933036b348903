// Package market holds the input data model: price bars, optional pool
// state snapshots, and the validation gate every dataset passes before a
// run starts.
package market

import (
	"errors"
	"time"
)

// ErrData marks invalid input data. A dataset that fails validation is
// rejected before the first bar is processed.
var ErrData = errors.New("market: bad input data")

// Bar is one OHLCV candle of the pool's trading pair, price quoted as
// token1 per token0.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	// QuoteVolume is the traded volume in token1 terms. Feeds that lack it
	// leave it zero and Close*Volume is used instead.
	QuoteVolume float64
	Trades      int
}

// Quote returns the bar's traded volume in token1 terms.
func (b Bar) Quote() float64 {
	if b.QuoteVolume > 0 {
		return b.QuoteVolume
	}
	return b.Close * b.Volume
}

// PoolBar is an optional per-bar snapshot of on-chain pool state, used for
// exact fee accrual. Liquidity is the pool's total active liquidity.
type PoolBar struct {
	Time             time.Time
	Tick             int
	Liquidity        float64
	VolumeToken0     float64
	VolumeToken1     float64
	FeeGrowthGlobal0 float64
	FeeGrowthGlobal1 float64
}
