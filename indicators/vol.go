package indicators

import (
	"math"

	"github.com/rustyeddy/ammbt/market"
)

// Volatility estimators used by the width-sizing strategies. All three
// report per-bar volatility; callers annualize with their own factor.

// EWMAVol is an exponentially weighted standard deviation of log returns.
type EWMAVol struct {
	period    int
	span      int
	prevClose float64
	seen      int
	variance  float64
	primed    bool
}

// NewEWMAVol uses a smoothing span of min(24, period).
func NewEWMAVol(period int) *EWMAVol {
	span := period
	if span > 24 {
		span = 24
	}
	return &EWMAVol{period: period, span: span}
}

func (e *EWMAVol) Name() string { return "ewma_vol" }
func (e *EWMAVol) Warmup() int  { return e.period + 1 }

func (e *EWMAVol) Reset() {
	e.prevClose = 0
	e.seen = 0
	e.variance = 0
	e.primed = false
}

func (e *EWMAVol) Update(b market.Bar) {
	if e.prevClose == 0 {
		e.prevClose = b.Close
		return
	}
	r := math.Log(b.Close / e.prevClose)
	e.prevClose = b.Close
	e.seen++

	alpha := 2.0 / float64(e.span+1)
	if !e.primed {
		e.variance = r * r
		e.primed = true
		return
	}
	e.variance = alpha*r*r + (1-alpha)*e.variance
}

func (e *EWMAVol) Ready() bool    { return e.seen >= e.period }
func (e *EWMAVol) Value() float64 { return math.Sqrt(e.variance) }

// ParkinsonVol is a range-based estimator built from the bar high/low
// spread, sqrt(mean(ln(high/low)^2) / (4 ln 2)).
type ParkinsonVol struct {
	period int
	win    *window
}

func NewParkinsonVol(period int) *ParkinsonVol {
	return &ParkinsonVol{period: period, win: newWindow(period)}
}

func (p *ParkinsonVol) Name() string { return "parkinson_vol" }
func (p *ParkinsonVol) Warmup() int  { return p.period }
func (p *ParkinsonVol) Reset()       { p.win.reset() }

func (p *ParkinsonVol) Update(b market.Bar) {
	if b.Low <= 0 || b.High < b.Low {
		return
	}
	hl := math.Log(b.High / b.Low)
	p.win.push(hl * hl)
}

func (p *ParkinsonVol) Ready() bool { return p.win.full() }

func (p *ParkinsonVol) Value() float64 {
	vals := p.win.values()
	if len(vals) == 0 {
		return 0
	}
	mean := p.win.sum() / float64(len(vals))
	return math.Sqrt(mean / (4 * math.Ln2))
}

// ReturnStdVol is the plain sample standard deviation of log returns.
type ReturnStdVol struct {
	period    int
	prevClose float64
	win       *window
}

func NewReturnStdVol(period int) *ReturnStdVol {
	return &ReturnStdVol{period: period, win: newWindow(period)}
}

func (s *ReturnStdVol) Name() string { return "std_vol" }
func (s *ReturnStdVol) Warmup() int  { return s.period + 1 }

func (s *ReturnStdVol) Reset() {
	s.prevClose = 0
	s.win.reset()
}

func (s *ReturnStdVol) Update(b market.Bar) {
	if s.prevClose > 0 {
		s.win.push(math.Log(b.Close / s.prevClose))
	}
	s.prevClose = b.Close
}

func (s *ReturnStdVol) Ready() bool { return s.win.full() }

func (s *ReturnStdVol) Value() float64 {
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
