package random

import (
	"fmt"
	"math"
)

// Box-Muller output is mapped into [0,1] with v/normalSpread + normalCenter.
const (
	normalSpread = 10.0
	normalCenter = 0.5
)

// Choice pairs an item with its selection weight.
type Choice[T any] struct {
	Item   T
	Weight float64
}

// WeightedChoice picks one item with probability proportional to its weight.
//
// The draw is uniform in [0, total). Cumulative weights are walked in input
// order and the first item whose running sum reaches the draw wins, so the
// order of choices must be stable for a draw to be reproducible. The last
// item is the fallback for floating-point edge cases.
func WeightedChoice[T any](src Source, choices []Choice[T]) (T, error) {
	var zero T
	if len(choices) == 0 {
		return zero, fmt.Errorf("%w: no choices", ErrInvalidWeight)
	}
	total := 0.0
	for i, c := range choices {
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) || c.Weight < 0 {
			return zero, fmt.Errorf("%w: choice %d has weight %v", ErrInvalidWeight, i, c.Weight)
		}
		total += c.Weight
	}
	if total <= 0 {
		return zero, fmt.Errorf("%w: all weights are zero", ErrInvalidWeight)
	}

	draw := src.Float64() * total
	cumulative := 0.0
	for _, c := range choices {
		// zero-weight items can never be selected, even on a zero draw
		if c.Weight == 0 {
			continue
		}
		cumulative += c.Weight
		if cumulative >= draw {
			return c.Item, nil
		}
	}
	for i := len(choices) - 1; i >= 0; i-- {
		if choices[i].Weight > 0 {
			return choices[i].Item, nil
		}
	}
	return choices[len(choices)-1].Item, nil
}

// BoundedNormal samples an integer in [min, max] from a normal variate.
//
// A standard normal is drawn with Box-Muller and mapped into [0,1] by
// v/10 + 0.5; values outside [0,1] are resampled. The mapped value is raised
// to skew (skew > 1 pulls toward min, skew < 1 toward max), rescaled into
// [min, max] and rounded to the nearest integer.
func BoundedNormal(src Source, min, max, skew float64) (int, error) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, fmt.Errorf("%w: bounds must be finite", ErrInvalidRange)
	}
	if max < min {
		return 0, fmt.Errorf("%w: max %v < min %v", ErrInvalidRange, max, min)
	}
	if !(skew > 0) || math.IsInf(skew, 0) {
		return 0, fmt.Errorf("%w: skew %v must be positive and finite", ErrInvalidRange, skew)
	}

	v := standardNormal(src)/normalSpread + normalCenter
	for v < 0 || v > 1 {
		v = standardNormal(src)/normalSpread + normalCenter
	}
	v = math.Pow(v, skew)
	return int(math.Round(min + v*(max-min))), nil
}

// standardNormal draws one N(0,1) variate with the Box-Muller transform.
func standardNormal(src Source) float64 {
	u1 := src.Float64()
	for u1 == 0 {
		u1 = src.Float64()
	}
	u2 := src.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// UniformInt returns a uniform integer in [min, max], inclusive.
func UniformInt(src Source, min, max int) (int, error) {
	if max < min {
		return 0, fmt.Errorf("%w: max %d < min %d", ErrInvalidRange, max, min)
	}
	span := float64(max-min) + 1
	n := min + int(math.Floor(src.Float64()*span))
	if n > max {
		n = max
	}
	return n, nil
}

// Chance reports true with probability p, clamped to [0,1].
func Chance(src Source, p float64) bool {
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(1, p))
	ok, err := WeightedChoice(src, []Choice[bool]{
		{Item: true, Weight: p},
		{Item: false, Weight: 1 - p},
	})
	if err != nil {
		return false
	}
	return ok
}
