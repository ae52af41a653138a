// Package filter smooths noisy sensor signals and keeps joint angle
// sequences continuous across the ±180° seam.
package filter

import "math"

// Unwrap returns the angle congruent to next (mod 360) that lies within
// 180° of prev. Angles are in degrees.
func Unwrap(next, prev float64) float64 {
	return prev + Delta(next, prev)
}

// UnwrapAll applies Unwrap element-wise. The slices must have equal length.
func UnwrapAll(next, prev []float64) []float64 {
	out := make([]float64, len(next))
	for i := range next {
		out[i] = Unwrap(next[i], prev[i])
	}
	return out
}

// Delta is the signed shortest rotation from prev to next, in [-180, 180].
func Delta(next, prev float64) float64 {
	d := math.Mod(next-prev, 360)
	switch {
	case d > 180:
		d -= 360
	case d < -180:
		d += 360
	}
	return d
}

func wrap180(a float64) float64 {
	if d := Delta(a, 0); d != -180 {
		return d
	}
	return 180
}
