package atbat

import "math"

const (
	fatigueBaseThreshold = 40.0
	fatigueStaminaScale  = 0.8
	fatigueCarryScale    = 0.5
	fatigueDecayPerPitch = 0.006
	fatigueFloor         = 0.55
)

// FatigueFactor scales a pitcher's effectiveness. It is 1.0 up to a
// threshold set by stamina (lowered by fatigue carried in from earlier
// games) and then falls linearly per pitch to a floor. It never increases
// with pitches thrown.
func FatigueFactor(pitchesThrown, stamina int, carried float64) float64 {
	threshold := fatigueBaseThreshold + float64(stamina)*fatigueStaminaScale - carried*fatigueCarryScale
	if threshold < 0 {
		threshold = 0
	}
	over := float64(pitchesThrown) - threshold
	if over <= 0 {
		return 1
	}
	return math.Max(fatigueFloor, 1-over*fatigueDecayPerPitch)
}
