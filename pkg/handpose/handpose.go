// Package handpose defines the hand observation produced once per tracking
// frame at the sensor boundary.
package handpose

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// ErrInvalidPose is returned for observations with missing or non-finite fields.
var ErrInvalidPose = errors.New("invalid hand pose")

// Side identifies which hand was tracked.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// HandPose is one raw sensor observation. Values are immutable once built.
type HandPose struct {
	// Position is the palm center in sensor millimetres.
	Position r3.Vector

	// Orientation is a unit quaternion: Real is w, Imag/Jmag/Kmag are x/y/z.
	Orientation quat.Number

	// Grab is the grab strength in [0, 1].
	Grab float64

	Side Side
}

// Euler holds roll/pitch/yaw in degrees.
type Euler struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Validate reports whether the pose can be fed to the pipeline.
func (h HandPose) Validate() error {
	for _, v := range []float64{h.Position.X, h.Position.Y, h.Position.Z} {
		if !finite(v) {
			return fmt.Errorf("%w: position %v", ErrInvalidPose, h.Position)
		}
	}
	q := h.Orientation
	for _, v := range []float64{q.Real, q.Imag, q.Jmag, q.Kmag} {
		if !finite(v) {
			return fmt.Errorf("%w: orientation %v", ErrInvalidPose, q)
		}
	}
	if quat.Abs(q) < 1e-9 {
		return fmt.Errorf("%w: zero quaternion", ErrInvalidPose)
	}
	if !finite(h.Grab) || h.Grab < 0 || h.Grab > 1 {
		return fmt.Errorf("%w: grab %v outside [0, 1]", ErrInvalidPose, h.Grab)
	}
	return nil
}

// Euler converts the orientation to roll/pitch/yaw degrees. The quaternion
// is normalized first.
func (h HandPose) Euler() Euler {
	q := h.Orientation
	if n := quat.Abs(q); n > 0 && n != 1 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch := math.Asin(math.Max(-1, math.Min(1, 2*(w*y-z*x))))
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Euler{
		Roll:  roll * 180 / math.Pi,
		Pitch: pitch * 180 / math.Pi,
		Yaw:   yaw * 180 / math.Pi,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Pick returns the first hand on the preferred side, falling back to the
// first hand seen. It reports false for an empty frame.
func Pick(hands []HandPose, prefer Side) (HandPose, bool) {
	if len(hands) == 0 {
		return HandPose{}, false
	}
	for _, h := range hands {
		if h.Side == prefer {
			return h, true
		}
	}
	return hands[0], true
}
