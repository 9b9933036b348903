package indicators

import (
	"math"
	"sort"

	"github.com/rustyeddy/ammbt/market"
)

// SMA is a simple moving average of closes.
type SMA struct {
	period int
	win    *window
}

func NewSMA(period int) *SMA {
	return &SMA{period: period, win: newWindow(period)}
}

func (s *SMA) Name() string        { return "sma" }
func (s *SMA) Warmup() int         { return s.period }
func (s *SMA) Reset()              { s.win.reset() }
func (s *SMA) Update(b market.Bar) { s.win.push(b.Close) }
func (s *SMA) Ready() bool         { return s.win.full() }

func (s *SMA) Value() float64 {
	if len(s.win.buf) == 0 {
		return 0
	}
	return s.win.sum() / float64(len(s.win.buf))
}

// EMA is an exponential moving average of closes with the conventional
// smoothing factor 2/(period+1), seeded by the SMA of the first period bars.
type EMA struct {
	period int
	alpha  float64
	seed   *window
	value  float64
	primed bool
}

func NewEMA(period int) *EMA {
	return &EMA{period: period, alpha: 2.0 / float64(period+1), seed: newWindow(period)}
}

func (e *EMA) Name() string { return "ema" }
func (e *EMA) Warmup() int  { return e.period }

func (e *EMA) Reset() {
	e.seed.reset()
	e.value = 0
	e.primed = false
}

func (e *EMA) Update(b market.Bar) {
	if !e.primed {
		e.seed.push(b.Close)
		if e.seed.full() {
			e.value = e.seed.sum() / float64(e.period)
			e.primed = true
		}
		return
	}
	e.value = e.alpha*b.Close + (1-e.alpha)*e.value
}

func (e *EMA) Ready() bool    { return e.primed }
func (e *EMA) Value() float64 { return e.value }

// StdDev is the rolling sample standard deviation of closes.
type StdDev struct {
	period int
	win    *window
}

func NewStdDev(period int) *StdDev {
	return &StdDev{period: period, win: newWindow(period)}
}

func (s *StdDev) Name() string        { return "stddev" }
func (s *StdDev) Warmup() int         { return s.period }
func (s *StdDev) Reset()              { s.win.reset() }
func (s *StdDev) Update(b market.Bar) { s.win.push(b.Close) }
func (s *StdDev) Ready() bool         { return s.win.full() }

func (s *StdDev) Value() float64 {
	vals := s.win.values()
	n := len(vals)
	if n < 2 {
		return 0
	}
	mean := s.win.sum() / float64(n)
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Median is the rolling median of closes.
type Median struct {
	period int
	win    *window
}

func NewMedian(period int) *Median {
	return &Median{period: period, win: newWindow(period)}
}

func (m *Median) Name() string        { return "median" }
func (m *Median) Warmup() int         { return m.period }
func (m *Median) Reset()              { m.win.reset() }
func (m *Median) Update(b market.Bar) { m.win.push(b.Close) }
func (m *Median) Ready() bool         { return m.win.full() }

func (m *Median) Value() float64 {
	n := len(m.win.buf)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, m.win.buf)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// VWAP is the rolling volume-weighted average close. Bars with zero volume
// contribute nothing; with no volume in the window it degrades to the SMA.
type VWAP struct {
	period int
	prices *window
	vols   *window
}

func NewVWAP(period int) *VWAP {
	return &VWAP{period: period, prices: newWindow(period), vols: newWindow(period)}
}

func (v *VWAP) Name() string { return "vwap" }
func (v *VWAP) Warmup() int  { return v.period }

func (v *VWAP) Reset() {
	v.prices.reset()
	v.vols.reset()
}

func (v *VWAP) Update(b market.Bar) {
	v.prices.push(b.Close)
	v.vols.push(b.Volume)
}

func (v *VWAP) Ready() bool { return v.prices.full() }

func (v *VWAP) Value() float64 {
	prices := v.prices.values()
	vols := v.vols.values()
	if len(prices) == 0 {
		return 0
	}
	var pv, vol float64
	for i := range prices {
		pv += prices[i] * vols[i]
		vol += vols[i]
	}
	if vol == 0 {
		var s float64
		for _, p := range prices {
			s += p
		}
		return s / float64(len(prices))
	}
	return pv / vol
}
