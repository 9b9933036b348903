package portfolio

import "fmt"

// Baseline portfolios the strategy run is compared against. They hold raw
// tokens, never LP positions, so they earn no fees and suffer no ranges.

// Hodl5050 splits capital evenly between the two tokens at entry and can
// be rebalanced back to an even split on a schedule.
type Hodl5050 struct {
	amount0 float64
	amount1 float64
	primed  bool
}

// Init deploys quote cash at the entry price.
func (h *Hodl5050) Init(price, cash float64) error {
	if !(price > 0) || !(cash > 0) {
		return fmt.Errorf("%w: hodl init price %v cash %v", ErrLedger, price, cash)
	}
	h.amount0 = cash / 2 / price
	h.amount1 = cash / 2
	h.primed = true
	return nil
}

func (h *Hodl5050) Primed() bool { return h.primed }

// Rebalance swaps back to an even value split at the given price.
func (h *Hodl5050) Rebalance(price float64) {
	if !h.primed || price <= 0 {
		return
	}
	total := h.amount0*price + h.amount1
	h.amount0 = total / 2 / price
	h.amount1 = total / 2
}

// Value marks the holding at the given price.
func (h *Hodl5050) Value(price float64) float64 {
	return h.amount0*price + h.amount1
}

// SingleAsset holds all capital in one token from entry onward.
type SingleAsset struct {
	amount0 float64
	amount1 float64
	primed  bool
}

// Init deploys quote cash at the entry price, into token0 when inToken0 is
// set and into token1 otherwise.
func (s *SingleAsset) Init(price, cash float64, inToken0 bool) error {
	if !(price > 0) || !(cash > 0) {
		return fmt.Errorf("%w: single asset init price %v cash %v", ErrLedger, price, cash)
	}
	if inToken0 {
		s.amount0 = cash / price
	} else {
		s.amount1 = cash
	}
	s.primed = true
	return nil
}

func (s *SingleAsset) Primed() bool { return s.primed }

func (s *SingleAsset) Value(price float64) float64 {
	return s.amount0*price + s.amount1
}
