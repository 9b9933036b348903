package univ3

import (
	"fmt"
	"math"
	"math/big"

	ui "github.com/holiman/uint256"
)

// Tick bounds of a V3 pool. A tick t corresponds to price 1.0001^t.
const (
	MinTick = -887272
	MaxTick = -MinTick
)

// Q64.96 sqrt ratios at the tick bounds.
var (
	MinSqrtRatio = ui.NewInt(4295128739)
	MaxSqrtRatio = mustFromDecimal("1461446703485210103287273052203988822378723970342")
)

var (
	q32         = ui.NewInt(1 << 32)
	one         = ui.NewInt(1)
	maxUint256  = new(ui.Int).SetAllOne()
	q96Float    = new(big.Float).SetPrec(256).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	ratioEven   = mustFromHex("0x100000000000000000000000000000000")
	ratioOdd    = mustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	tickFactors = [...]*ui.Int{
		mustFromHex("0xfff97272373d413259a46990580e213a"),
		mustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		mustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		mustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		mustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		mustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		mustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		mustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		mustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustFromHex("0x5d6af8dedb81196699c329225ee604"),
		mustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		mustFromHex("0x48a170391f7dc42444e8fa2"),
	}
)

func mustFromHex(s string) *ui.Int {
	v, err := ui.FromHex(s)
	if err != nil {
		panic(err)
	}
	return v
}

func mustFromDecimal(s string) *ui.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("univ3: bad decimal constant")
	}
	v, overflow := ui.FromBig(b)
	if overflow {
		panic("univ3: constant overflows uint256")
	}
	return v
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 fixed point.
// The result matches the on-chain TickMath library bit for bit.
func SqrtRatioAtTick(tick int) (*ui.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: tick %d out of range", ErrValuation, tick)
	}
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(ui.Int)
	if absTick&1 != 0 {
		ratio.Set(ratioOdd)
	} else {
		ratio.Set(ratioEven)
	}
	for i, factor := range tickFactors {
		if absTick&(1<<(i+1)) != 0 {
			// Q128 multiply: (ratio * factor) >> 128
			ratio.Rsh(ratio.Mul(ratio, factor), 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Round the Q128.128 ratio up to Q64.96.
	rem := new(ui.Int).Mod(ratio, q32)
	ratio.Div(ratio, q32)
	if !rem.IsZero() {
		ratio.Add(ratio, one)
	}
	return ratio, nil
}

// PriceAtTick returns 1.0001^tick as a float64, derived by squaring the
// exact Q64.96 sqrt ratio. Strictly increasing over the whole tick range.
func PriceAtTick(tick int) (float64, error) {
	ratio, err := SqrtRatioAtTick(tick)
	if err != nil {
		return 0, err
	}
	sqrt := new(big.Float).SetPrec(256).SetInt(ratio.ToBig())
	sqrt.Quo(sqrt, q96Float)
	price, _ := new(big.Float).SetPrec(256).Mul(sqrt, sqrt).Float64()
	return price, nil
}

// TickAtPrice returns the largest tick whose price does not exceed the
// given price, so PriceAtTick(t) <= price < PriceAtTick(t+1). The float
// log gives a first guess and the exact ratios settle the boundary, which
// makes TickAtPrice(PriceAtTick(t)) == t for every valid t.
func TickAtPrice(price float64) (int, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: price %v", ErrValuation, price)
	}
	tick := int(math.Floor(math.Log(price) / math.Log(1.0001)))
	if tick < MinTick {
		tick = MinTick
	} else if tick > MaxTick {
		tick = MaxTick
	}
	for tick < MaxTick {
		p, err := PriceAtTick(tick + 1)
		if err != nil {
			return 0, err
		}
		if p > price {
			break
		}
		tick++
	}
	for tick > MinTick {
		p, err := PriceAtTick(tick)
		if err != nil {
			return 0, err
		}
		if p <= price {
			break
		}
		tick--
	}
	return tick, nil
}

// FloorTick rounds a tick down to a multiple of spacing.
func FloorTick(tick, spacing int) int {
	if spacing <= 1 {
		return tick
	}
	r := tick % spacing
	if r < 0 {
		r += spacing
	}
	return tick - r
}

// CeilTick rounds a tick up to a multiple of spacing.
func CeilTick(tick, spacing int) int {
	if spacing <= 1 {
		return tick
	}
	f := FloorTick(tick, spacing)
	if f == tick {
		return tick
	}
	return f + spacing
}

// AlignRange snaps a raw price range onto the tick grid: the lower bound
// rounds down, the upper bound rounds up, and a collapsed range is widened
// by one spacing so lower < upper always holds. Returns the snapped tick
// bounds and their exact prices.
func AlignRange(lower, upper float64, spacing int) (lowerTick, upperTick int, lowerPrice, upperPrice float64, err error) {
	if !(lower > 0) || !(upper > lower) {
		return 0, 0, 0, 0, fmt.Errorf("%w: range [%v, %v]", ErrValuation, lower, upper)
	}
	lt, err := TickAtPrice(lower)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	ut, err := TickAtPrice(upper)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	// TickAtPrice floors, so the upper bound needs one more tick unless it
	// sits exactly on the grid.
	up, err := PriceAtTick(ut)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if up < upper {
		ut++
	}
	lt = FloorTick(lt, spacing)
	ut = CeilTick(ut, spacing)
	if ut <= lt {
		ut = lt + max(spacing, 1)
	}
	if lt < MinTick {
		lt = MinTick
	}
	if ut > MaxTick {
		ut = MaxTick
	}
	lowerPrice, err = PriceAtTick(lt)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	upperPrice, err = PriceAtTick(ut)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return lt, ut, lowerPrice, upperPrice, nil
}
