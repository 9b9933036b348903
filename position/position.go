// Package position models a concentrated liquidity position as one or more
// price ranges, each carrying its own liquidity.
package position

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/ammbt/univ3"
)

// ErrRange marks an invalid range definition.
var ErrRange = errors.New("position: invalid range")

// Range is a single liquidity placement between two prices.
type Range struct {
	Lower     float64
	Upper     float64
	Liquidity float64
}

// NewRange validates and builds a range. Bounds must be finite and
// positive with lower < upper, liquidity non-negative.
func NewRange(lower, upper, liquidity float64) (Range, error) {
	if !(lower > 0) || math.IsInf(lower, 0) || math.IsNaN(lower) {
		return Range{}, fmt.Errorf("%w: lower %v", ErrRange, lower)
	}
	if !(upper > lower) || math.IsInf(upper, 0) || math.IsNaN(upper) {
		return Range{}, fmt.Errorf("%w: upper %v not above lower %v", ErrRange, upper, lower)
	}
	if liquidity < 0 || math.IsNaN(liquidity) || math.IsInf(liquidity, 0) {
		return Range{}, fmt.Errorf("%w: liquidity %v", ErrRange, liquidity)
	}
	return Range{Lower: lower, Upper: upper, Liquidity: liquidity}, nil
}

// Contains reports whether price lies inside the range, bounds included.
func (r Range) Contains(price float64) bool {
	return price >= r.Lower && price <= r.Upper
}

// Center is the arithmetic midpoint of the range.
func (r Range) Center() float64 { return (r.Lower + r.Upper) / 2 }

// Width returns the range width as a fraction of its center.
func (r Range) Width() float64 {
	c := r.Center()
	if c == 0 {
		return 0
	}
	return (r.Upper - r.Lower) / c
}

// Position is a set of ranges held at once. An empty position holds no
// liquidity anywhere.
type Position struct {
	Ranges []Range
}

// Empty reports whether the position holds no liquidity.
func (p Position) Empty() bool {
	for _, r := range p.Ranges {
		if r.Liquidity > 0 {
			return false
		}
	}
	return true
}

// TotalLiquidity sums liquidity over all ranges.
func (p Position) TotalLiquidity() float64 {
	var total float64
	for _, r := range p.Ranges {
		total += r.Liquidity
	}
	return total
}

// Bounds returns the outermost bounds over ranges with liquidity.
// ok is false for an empty position.
func (p Position) Bounds() (lower, upper float64, ok bool) {
	lower = math.Inf(1)
	upper = math.Inf(-1)
	for _, r := range p.Ranges {
		if r.Liquidity <= 0 {
			continue
		}
		ok = true
		if r.Lower < lower {
			lower = r.Lower
		}
		if r.Upper > upper {
			upper = r.Upper
		}
	}
	if !ok {
		return 0, 0, false
	}
	return lower, upper, true
}

// Contains reports whether price falls inside the position's outer bounds.
// An empty position contains nothing.
func (p Position) Contains(price float64) bool {
	lower, upper, ok := p.Bounds()
	return ok && price >= lower && price <= upper
}

// Center is the midpoint of the outer bounds, or 0 for an empty position.
func (p Position) Center() float64 {
	lower, upper, ok := p.Bounds()
	if !ok {
		return 0
	}
	return (lower + upper) / 2
}

// AmountsAt returns the token amounts held across all ranges at the given
// spot price.
func (p Position) AmountsAt(price float64) (amount0, amount1 float64, err error) {
	for _, r := range p.Ranges {
		if r.Liquidity == 0 {
			continue
		}
		a0, a1, err := univ3.AmountsAtPrice(price, r.Lower, r.Upper, r.Liquidity)
		if err != nil {
			return 0, 0, err
		}
		amount0 += a0
		amount1 += a1
	}
	return amount0, amount1, nil
}

// ValueAt returns the quote value of the position at the given spot price.
func (p Position) ValueAt(price float64) (float64, error) {
	a0, a1, err := p.AmountsAt(price)
	if err != nil {
		return 0, err
	}
	return a0*price + a1, nil
}
