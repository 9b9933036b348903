package indicators

import (
	"math"

	"github.com/rustyeddy/ammbt/market"
)

// ATR is Wilder's average true range.
type ATR struct {
	period    int
	prevClose float64
	hasPrev   bool
	seen      int
	sum       float64
	value     float64
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return "atr" }

// Warmup needs one extra bar for the first true range.
func (a *ATR) Warmup() int { return a.period + 1 }

func (a *ATR) Reset() {
	a.prevClose = 0
	a.hasPrev = false
	a.seen = 0
	a.sum = 0
	a.value = 0
}

func (a *ATR) Update(b market.Bar) {
	if !a.hasPrev {
		a.prevClose = b.Close
		a.hasPrev = true
		return
	}
	tr := math.Max(b.High-b.Low,
		math.Max(math.Abs(b.High-a.prevClose), math.Abs(b.Low-a.prevClose)))
	a.prevClose = b.Close

	if a.seen < a.period {
		a.sum += tr
		a.seen++
		if a.seen == a.period {
			a.value = a.sum / float64(a.period)
		}
		return
	}
	// Wilder smoothing.
	a.value = (a.value*float64(a.period-1) + tr) / float64(a.period)
}

func (a *ATR) Ready() bool    { return a.seen >= a.period }
func (a *ATR) Value() float64 { return a.value }

// Donchian tracks the rolling highest high and lowest low.
type Donchian struct {
	period int
	highs  *window
	lows   *window
}

func NewDonchian(period int) *Donchian {
	return &Donchian{period: period, highs: newWindow(period), lows: newWindow(period)}
}

func (d *Donchian) Name() string { return "donchian" }
func (d *Donchian) Warmup() int  { return d.period }

func (d *Donchian) Reset() {
	d.highs.reset()
	d.lows.reset()
}

func (d *Donchian) Update(b market.Bar) {
	d.highs.push(b.High)
	d.lows.push(b.Low)
}

func (d *Donchian) Ready() bool { return d.highs.full() }

func (d *Donchian) Upper() float64 {
	hi := math.Inf(-1)
	for _, v := range d.highs.values() {
		if v > hi {
			hi = v
		}
	}
	if math.IsInf(hi, -1) {
		return 0
	}
	return hi
}

func (d *Donchian) Lower() float64 {
	lo := math.Inf(1)
	for _, v := range d.lows.values() {
		if v < lo {
			lo = v
		}
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	return lo
}

// Value is the channel midpoint.
func (d *Donchian) Value() float64 { return (d.Upper() + d.Lower()) / 2 }
