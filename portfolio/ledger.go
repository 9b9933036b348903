// Package portfolio tracks the cash, positions and accrued fees of a
// strategy run and enforces the accounting identity equity = cash +
// position value + uncollected fees at every mark.
package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/ammbt/position"
	"github.com/rustyeddy/ammbt/strategies"
	"github.com/rustyeddy/ammbt/univ3"
)

// ErrLedger marks an invalid ledger operation.
var ErrLedger = errors.New("portfolio: invalid operation")

// EquityPoint is one bar's mark of the portfolio.
type EquityPoint struct {
	Time          time.Time
	Equity        float64
	Cash          float64
	PositionValue float64
	// Fees is the quote value of fees accrued since the last rebalance.
	Fees float64
}

// Ledger is the portfolio state of a single run. Cash and fees are held
// per token; deployed capital lives in the position.
type Ledger struct {
	cash0 float64
	cash1 float64
	fees0 float64
	fees1 float64
	pos   position.Position

	feesEarned0 float64
	feesEarned1 float64

	entryPrice   float64
	entryAmount0 float64
	entryAmount1 float64
	entryPos     position.Position
	entryCash    float64

	totalFrictions float64
	rebalances     int
	lastRebalance  time.Time
	equity         []EquityPoint
}

// NewLedger starts a ledger holding only quote cash.
func NewLedger(initialQuote float64) (*Ledger, error) {
	if !(initialQuote > 0) {
		return nil, fmt.Errorf("%w: initial cash %v", ErrLedger, initialQuote)
	}
	return &Ledger{cash1: initialQuote}, nil
}

func (l *Ledger) Position() position.Position { return l.pos }
func (l *Ledger) RebalanceCount() int         { return l.rebalances }
func (l *Ledger) TotalFrictions() float64     { return l.totalFrictions }
func (l *Ledger) LastRebalance() time.Time    { return l.lastRebalance }
func (l *Ledger) History() []EquityPoint      { return l.equity }

// FeesEarned returns the lifetime fee income per token.
func (l *Ledger) FeesEarned() (fee0, fee1 float64) { return l.feesEarned0, l.feesEarned1 }

// Entry returns the composition recorded at the first deployment: price,
// total token amounts, the deployed position and the leftover cash.
func (l *Ledger) Entry() (price, amount0, amount1 float64, pos position.Position, cash float64) {
	return l.entryPrice, l.entryAmount0, l.entryAmount1, l.entryPos, l.entryCash
}

// Amounts returns the total token composition at the given price: cash,
// position holdings and uncollected fees.
func (l *Ledger) Amounts(price float64) (amount0, amount1 float64, err error) {
	a0, a1, err := l.pos.AmountsAt(price)
	if err != nil {
		return 0, 0, err
	}
	return a0 + l.cash0 + l.fees0, a1 + l.cash1 + l.fees1, nil
}

// Equity is the portfolio's total quote value at the given price.
func (l *Ledger) Equity(price float64) (float64, error) {
	pv, err := l.pos.ValueAt(price)
	if err != nil {
		return 0, err
	}
	return l.cashValue(price) + pv + l.feeValue(price), nil
}

func (l *Ledger) cashValue(price float64) float64 { return l.cash0*price + l.cash1 }
func (l *Ledger) feeValue(price float64) float64  { return l.fees0*price + l.fees1 }

// AccruedFees is the quote value of fees accrued since the last rebalance.
func (l *Ledger) AccruedFees(price float64) float64 { return l.feeValue(price) }

// CreditFees adds one bar's fee income. Fees sit outside the position
// until the next rebalance sweeps them into cash.
func (l *Ledger) CreditFees(fee0, fee1 float64) {
	if fee0 > 0 {
		l.fees0 += fee0
		l.feesEarned0 += fee0
	}
	if fee1 > 0 {
		l.fees1 += fee1
		l.feesEarned1 += fee1
	}
}

// Mark records the equity point for one bar. The recorded equity is the
// exact sum of its recorded components.
func (l *Ledger) Mark(t time.Time, price float64) (EquityPoint, error) {
	pv, err := l.pos.ValueAt(price)
	if err != nil {
		return EquityPoint{}, err
	}
	pt := EquityPoint{
		Time:          t,
		Cash:          l.cashValue(price),
		PositionValue: pv,
		Fees:          l.feeValue(price),
	}
	pt.Equity = pt.Cash + pt.PositionValue + pt.Fees
	l.equity = append(l.equity, pt)
	return pt, nil
}

// Rebalance atomically moves the whole portfolio into the target ranges:
// the old position and accrued fees are swept to cash, the friction cost
// is deducted, and what the targets leave unweighted stays in quote cash.
func (l *Ledger) Rebalance(t time.Time, price float64, targets []strategies.Target, cost float64) error {
	total, err := l.Equity(price)
	if err != nil {
		return err
	}
	if cost < 0 || cost > total {
		return fmt.Errorf("%w: cost %v against equity %v", ErrLedger, cost, total)
	}
	var weight float64
	for _, tgt := range targets {
		if tgt.Weight < 0 {
			return fmt.Errorf("%w: negative target weight %v", ErrLedger, tgt.Weight)
		}
		weight += tgt.Weight
	}
	if weight > 1+1e-9 {
		return fmt.Errorf("%w: target weights sum to %v", ErrLedger, weight)
	}

	deployable := total - cost
	ranges := make([]position.Range, 0, len(targets))
	for _, tgt := range targets {
		liq, err := univ3.LiquidityForValue(price, tgt.Lower, tgt.Upper, deployable*tgt.Weight)
		if err != nil {
			return err
		}
		r, err := position.NewRange(tgt.Lower, tgt.Upper, liq)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}
	newPos := position.Position{Ranges: ranges}
	deployed, err := newPos.ValueAt(price)
	if err != nil {
		return err
	}

	l.pos = newPos
	l.cash0 = 0
	l.cash1 = total - cost - deployed
	l.fees0 = 0
	l.fees1 = 0
	l.totalFrictions += cost
	l.rebalances++
	l.lastRebalance = t

	if l.entryPrice == 0 {
		a0, a1, err := newPos.AmountsAt(price)
		if err != nil {
			return err
		}
		l.entryPrice = price
		l.entryAmount0 = a0
		l.entryAmount1 = a1 + l.cash1
		l.entryPos = newPos
		l.entryCash = l.cash1
	}
	return nil
}
