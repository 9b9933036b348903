// Package indicators provides streaming indicators over price bars.
// Each indicator consumes one bar at a time, reports readiness once its
// warmup window is filled, and exposes a single current value.
package indicators

import "github.com/rustyeddy/ammbt/market"

// Indicator is the streaming contract shared by all indicators.
type Indicator interface {
	Name() string
	// Warmup is the number of bars required before Ready reports true.
	Warmup() int
	Reset()
	Update(b market.Bar)
	Ready() bool
	Value() float64
}

// window is a fixed-size FIFO of float64 samples shared by the rolling
// indicators.
type window struct {
	buf  []float64
	size int
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) push(v float64) {
	w.buf = append(w.buf, v)
	if len(w.buf) > w.size {
		w.buf = w.buf[1:]
	}
}

func (w *window) full() bool        { return len(w.buf) >= w.size }
func (w *window) reset()            { w.buf = w.buf[:0] }
func (w *window) values() []float64 { return w.buf }

func (w *window) sum() float64 {
	var s float64
	for _, v := range w.buf {
		s += v
	}
	return s
}
