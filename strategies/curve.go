package strategies

import (
	"fmt"
	"math"
)

// Curve shapes how capital spreads across the bins of a multi-bin
// placement. Weights returns one normalized weight per bin.
type Curve interface {
	Weights(bins int) []float64
}

// UniformCurve spreads capital evenly.
type UniformCurve struct{}

func (UniformCurve) Weights(bins int) []float64 {
	w := make([]float64, bins)
	for i := range w {
		w[i] = 1 / float64(bins)
	}
	return w
}

// LinearCurve tapers weight linearly away from the center bin, floored at
// a tenth of the uniform share so the tails keep some depth.
type LinearCurve struct {
	Slope float64
}

func (c LinearCurve) Weights(bins int) []float64 {
	slope := c.Slope
	if slope <= 0 {
		slope = 1
	}
	w := make([]float64, bins)
	half := float64(bins-1) / 2
	for i := range w {
		dist := 0.0
		if half > 0 {
			dist = math.Abs(float64(i)-half) / half
		}
		w[i] = math.Max(1-dist*slope, 0.1)
	}
	return normalize(w)
}

// GaussianCurve concentrates weight around the center bin with the given
// standard deviation in units of the half width.
type GaussianCurve struct {
	StdDev float64
}

func (c GaussianCurve) Weights(bins int) []float64 {
	sd := c.StdDev
	if sd <= 0 {
		sd = 0.5
	}
	w := make([]float64, bins)
	half := float64(bins-1) / 2
	for i := range w {
		x := 0.0
		if half > 0 {
			x = (float64(i) - half) / half
		}
		w[i] = math.Exp(-x * x / (2 * sd * sd))
	}
	return normalize(w)
}

func normalize(w []float64) []float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return UniformCurve{}.Weights(len(w))
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func curveFromSpec(spec Spec) (Curve, error) {
	switch spec.Curve {
	case "", "gaussian":
		return GaussianCurve{StdDev: spec.CurveStdDev}, nil
	case "uniform":
		return UniformCurve{}, nil
	case "linear":
		return LinearCurve{Slope: spec.CurveSlope}, nil
	default:
		return nil, fmt.Errorf("%w: unknown curve %q", ErrConfig, spec.Curve)
	}
}

// distribute splits a symmetric band around center into contiguous bins
// and assigns each the curve's share of the deploy fraction. The band
// floor is clamped to a hundredth of the center so ranges stay positive.
func distribute(center, widthPct, deploy float64, bins int, c Curve) []Target {
	if bins < 1 {
		bins = 1
	}
	width := center * widthPct / 100
	lower := center - width/2
	upper := center + width/2
	if min := center * 0.01; lower < min {
		lower = min
	}
	if upper <= lower {
		upper = lower * 1.001
	}

	weights := c.Weights(bins)
	step := (upper - lower) / float64(bins)
	targets := make([]Target, 0, bins)
	for i := 0; i < bins; i++ {
		targets = append(targets, Target{
			Lower:  lower + float64(i)*step,
			Upper:  lower + float64(i+1)*step,
			Weight: deploy * weights[i],
		})
	}
	return targets
}
