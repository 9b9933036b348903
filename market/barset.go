package market

import (
	"fmt"
	"math"
	"time"
)

// BarSet is a validated, time-ordered series of bars on a fixed interval.
type BarSet struct {
	Bars     []Bar
	Interval time.Duration
}

// NewBarSet validates bars and wraps them. Timestamps must be strictly
// increasing, every price field finite and positive, high >= low, and
// close inside [low, high]. When interval > 0, a gap larger than
// (gapTolerance+1) intervals between consecutive bars is rejected;
// gapTolerance 0 demands a perfectly dense series.
func NewBarSet(bars []Bar, interval time.Duration, gapTolerance int) (*BarSet, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", ErrData)
	}
	if gapTolerance < 0 {
		return nil, fmt.Errorf("%w: negative gap tolerance %d", ErrData, gapTolerance)
	}
	for i, b := range bars {
		if err := checkBar(b); err != nil {
			return nil, fmt.Errorf("bar %d at %s: %w", i, b.Time.Format(time.RFC3339), err)
		}
		if i == 0 {
			continue
		}
		prev := bars[i-1]
		if !b.Time.After(prev.Time) {
			return nil, fmt.Errorf("%w: bar %d timestamp %s not after %s",
				ErrData, i, b.Time.Format(time.RFC3339), prev.Time.Format(time.RFC3339))
		}
		if interval > 0 {
			gap := b.Time.Sub(prev.Time)
			if gap > interval*time.Duration(gapTolerance+1) {
				return nil, fmt.Errorf("%w: gap of %s before bar %d exceeds tolerance of %d missing bars",
					ErrData, gap, i, gapTolerance)
			}
		}
	}
	return &BarSet{Bars: bars, Interval: interval}, nil
}

func checkBar(b Bar) error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: non-positive or non-finite price %v", ErrData, v)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %v below low %v", ErrData, b.High, b.Low)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: close %v outside [%v, %v]", ErrData, b.Close, b.Low, b.High)
	}
	if b.Volume < 0 || math.IsNaN(b.Volume) || b.QuoteVolume < 0 || math.IsNaN(b.QuoteVolume) {
		return fmt.Errorf("%w: negative volume", ErrData)
	}
	return nil
}

func (s *BarSet) Len() int { return len(s.Bars) }

// Start and End return the timestamps of the first and last bar.
func (s *BarSet) Start() time.Time { return s.Bars[0].Time }
func (s *BarSet) End() time.Time   { return s.Bars[len(s.Bars)-1].Time }

// Slice returns a BarSet over bars [from, to). A negative from starts at
// the beginning; to <= 0 or past the end runs to the last bar.
func (s *BarSet) Slice(from, to int) (*BarSet, error) {
	if from < 0 {
		from = 0
	}
	if to <= 0 || to > len(s.Bars) {
		to = len(s.Bars)
	}
	if from >= to {
		return nil, fmt.Errorf("%w: empty slice [%d, %d) of %d bars", ErrData, from, to, len(s.Bars))
	}
	return &BarSet{Bars: s.Bars[from:to], Interval: s.Interval}, nil
}

// PeriodsPerYear derives the annualization factor from the bar interval.
// Returns 0 when the interval is unset.
func (s *BarSet) PeriodsPerYear() float64 {
	if s.Interval <= 0 {
		return 0
	}
	return float64(365*24*time.Hour) / float64(s.Interval)
}

// ValidatePool checks a pool state series against the bar series. Pool bars
// must be strictly increasing in time, with finite non-negative liquidity
// and volumes, and each must line up with a bar timestamp.
func (s *BarSet) ValidatePool(pool []PoolBar) error {
	times := make(map[int64]struct{}, len(s.Bars))
	for _, b := range s.Bars {
		times[b.Time.Unix()] = struct{}{}
	}
	for i, p := range pool {
		if i > 0 && !p.Time.After(pool[i-1].Time) {
			return fmt.Errorf("%w: pool bar %d out of order", ErrData, i)
		}
		if p.Liquidity < 0 || math.IsNaN(p.Liquidity) || math.IsInf(p.Liquidity, 0) {
			return fmt.Errorf("%w: pool bar %d liquidity %v", ErrData, i, p.Liquidity)
		}
		if p.VolumeToken0 < 0 || p.VolumeToken1 < 0 {
			return fmt.Errorf("%w: pool bar %d negative volume", ErrData, i)
		}
		if _, ok := times[p.Time.Unix()]; !ok {
			return fmt.Errorf("%w: pool bar %d at %s matches no price bar",
				ErrData, i, p.Time.Format(time.RFC3339))
		}
	}
	return nil
}
