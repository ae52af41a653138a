package filter

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// EMA is an exponential moving average. The first sample primes the
// accumulator without blending.
type EMA struct {
	alpha  float64
	value  float64
	primed bool
}

// NewEMA creates an EMA with smoothing factor alpha in (0, 1]. Higher
// alpha follows the input more closely.
func NewEMA(alpha float64) (*EMA, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	return &EMA{alpha: alpha}, nil
}

// Update blends raw into the average and returns the new value.
func (e *EMA) Update(raw float64) float64 {
	if !e.primed {
		e.value, e.primed = raw, true
		return raw
	}
	e.value = e.alpha*raw + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current average.
func (e *EMA) Value() float64 { return e.value }

// Primed reports whether a sample has been seen since the last reset.
func (e *EMA) Primed() bool { return e.primed }

// Reset forgets the accumulated value.
func (e *EMA) Reset() {
	e.value, e.primed = 0, false
}

// AngleEMA smooths an angle in degrees along the shortest arc, so input
// that jitters across ±180° does not average toward zero. Output is in
// (-180, 180].
type AngleEMA struct {
	alpha  float64
	value  float64
	primed bool
}

// NewAngleEMA creates an angle-aware EMA.
func NewAngleEMA(alpha float64) (*AngleEMA, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	return &AngleEMA{alpha: alpha}, nil
}

// Update blends raw into the average and returns the new value.
func (e *AngleEMA) Update(raw float64) float64 {
	if !e.primed {
		e.value, e.primed = wrap180(raw), true
		return e.value
	}
	prev := Unwrap(e.value, raw)
	e.value = wrap180(prev + e.alpha*(raw-prev))
	return e.value
}

// Reset forgets the accumulated value.
func (e *AngleEMA) Reset() {
	e.value, e.primed = 0, false
}

// VectorEMA smooths each component of a vector with the same factor.
type VectorEMA struct {
	x, y, z EMA
}

// NewVectorEMA creates a component-wise EMA.
func NewVectorEMA(alpha float64) (*VectorEMA, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	return &VectorEMA{x: EMA{alpha: alpha}, y: EMA{alpha: alpha}, z: EMA{alpha: alpha}}, nil
}

// Update blends raw into the average and returns the new value.
func (v *VectorEMA) Update(raw r3.Vector) r3.Vector {
	return r3.Vector{X: v.x.Update(raw.X), Y: v.y.Update(raw.Y), Z: v.z.Update(raw.Z)}
}

// Reset forgets the accumulated value.
func (v *VectorEMA) Reset() {
	v.x.Reset()
	v.y.Reset()
	v.z.Reset()
}

func checkAlpha(alpha float64) error {
	if alpha <= 0 || alpha > 1 {
		return fmt.Errorf("smoothing factor must be in (0, 1], got %v", alpha)
	}
	return nil
}
