// Package univ3 implements the closed-form math of a Uniswap V3 style
// concentrated liquidity position: conversions between liquidity and token
// amounts over a price range, and tick <-> price conversions.
//
// Prices are quoted as token1 per token0. Most functions work in
// sqrt-price space because the pool formulas are linear there.
package univ3

import (
	"errors"
	"fmt"
	"math"
)

// ErrValuation marks degenerate valuation input: a non-positive or
// non-finite price, an inverted range, or negative liquidity.
var ErrValuation = errors.New("univ3: degenerate valuation input")

// SqrtPrice returns sqrt(price) or ErrValuation for non-positive or
// non-finite input.
func SqrtPrice(price float64) (float64, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: price %v", ErrValuation, price)
	}
	return math.Sqrt(price), nil
}

// Amount0ForLiquidity returns the token0 amount held by liquidity L
// between sqrt prices sqrtA and sqrtB.
//
//	amount0 = L * (sqrtB - sqrtA) / (sqrtA * sqrtB)
func Amount0ForLiquidity(sqrtA, sqrtB, liquidity float64) float64 {
	if sqrtA > sqrtB {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	return liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB)
}

// Amount1ForLiquidity returns the token1 amount held by liquidity L
// between sqrt prices sqrtA and sqrtB.
//
//	amount1 = L * (sqrtB - sqrtA)
func Amount1ForLiquidity(sqrtA, sqrtB, liquidity float64) float64 {
	if sqrtA > sqrtB {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	return liquidity * (sqrtB - sqrtA)
}

// LiquidityForAmount0 returns the liquidity obtainable from amount0 of
// token0 placed between sqrtA and sqrtB.
func LiquidityForAmount0(sqrtA, sqrtB, amount0 float64) float64 {
	if sqrtA > sqrtB {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtB == sqrtA {
		return 0
	}
	return amount0 * sqrtA * sqrtB / (sqrtB - sqrtA)
}

// LiquidityForAmount1 returns the liquidity obtainable from amount1 of
// token1 placed between sqrtA and sqrtB.
func LiquidityForAmount1(sqrtA, sqrtB, amount1 float64) float64 {
	if sqrtA > sqrtB {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtB == sqrtA {
		return 0
	}
	return amount1 / (sqrtB - sqrtA)
}

// AmountsForLiquidity returns the token amounts held by liquidity L in the
// range [sqrtA, sqrtB] when the pool sits at sqrtP. Below the range the
// position is entirely token0, above it entirely token1, and inside it a
// mix split at the current sqrt price.
func AmountsForLiquidity(sqrtP, sqrtA, sqrtB, liquidity float64) (amount0, amount1 float64) {
	if sqrtA > sqrtB {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	switch {
	case sqrtP <= sqrtA:
		amount0 = Amount0ForLiquidity(sqrtA, sqrtB, liquidity)
	case sqrtP >= sqrtB:
		amount1 = Amount1ForLiquidity(sqrtA, sqrtB, liquidity)
	default:
		amount0 = Amount0ForLiquidity(sqrtP, sqrtB, liquidity)
		amount1 = Amount1ForLiquidity(sqrtA, sqrtP, liquidity)
	}
	return amount0, amount1
}

// LiquidityForAmounts returns the largest liquidity fundable by amount0 and
// amount1 in the range [sqrtA, sqrtB] at sqrtP. Inside the range the binding
// side wins, so the result is the min of the two single-sided liquidities.
func LiquidityForAmounts(sqrtP, sqrtA, sqrtB, amount0, amount1 float64) float64 {
	if sqrtA > sqrtB {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	switch {
	case sqrtP <= sqrtA:
		return LiquidityForAmount0(sqrtA, sqrtB, amount0)
	case sqrtP >= sqrtB:
		return LiquidityForAmount1(sqrtA, sqrtB, amount1)
	default:
		l0 := LiquidityForAmount0(sqrtP, sqrtB, amount0)
		l1 := LiquidityForAmount1(sqrtA, sqrtP, amount1)
		return math.Min(l0, l1)
	}
}

func checkRange(price, lower, upper, liquidity float64) error {
	if !(price > 0) || math.IsInf(price, 0) || math.IsNaN(price) {
		return fmt.Errorf("%w: price %v", ErrValuation, price)
	}
	if !(lower > 0) || !(upper > lower) || math.IsInf(upper, 0) {
		return fmt.Errorf("%w: range [%v, %v]", ErrValuation, lower, upper)
	}
	if liquidity < 0 || math.IsNaN(liquidity) {
		return fmt.Errorf("%w: liquidity %v", ErrValuation, liquidity)
	}
	return nil
}

// AmountsAtPrice returns the token amounts of liquidity L in the price
// range [lower, upper] at the given spot price.
func AmountsAtPrice(price, lower, upper, liquidity float64) (amount0, amount1 float64, err error) {
	if err := checkRange(price, lower, upper, liquidity); err != nil {
		return 0, 0, err
	}
	sp := math.Sqrt(price)
	sa := math.Sqrt(lower)
	sb := math.Sqrt(upper)
	amount0, amount1 = AmountsForLiquidity(sp, sa, sb, liquidity)
	return amount0, amount1, nil
}

// ValueAtPrice returns the quote (token1) value of liquidity L in
// [lower, upper] at the given spot price: amount0*price + amount1.
func ValueAtPrice(price, lower, upper, liquidity float64) (float64, error) {
	amount0, amount1, err := AmountsAtPrice(price, lower, upper, liquidity)
	if err != nil {
		return 0, err
	}
	return amount0*price + amount1, nil
}

// LiquidityForValue returns the liquidity that deploys the given quote
// value into [lower, upper] at the spot price. The unit value of one
// liquidity is strictly positive for any valid range, so this never
// divides by zero.
func LiquidityForValue(price, lower, upper, value float64) (float64, error) {
	if value < 0 || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: value %v", ErrValuation, value)
	}
	unit, err := ValueAtPrice(price, lower, upper, 1)
	if err != nil {
		return 0, err
	}
	if unit <= 0 {
		return 0, fmt.Errorf("%w: zero unit value for [%v, %v] at %v", ErrValuation, lower, upper, price)
	}
	return value / unit, nil
}
