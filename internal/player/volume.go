package player

import "math"

// levelToVolume converts a linear 0..1 level to the exponent used by
// effects.Volume with Base 2. Level 1.0 maps to 0 (unity gain) and the
// curve approximates perceived loudness.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	return math.Log2(level)
}
