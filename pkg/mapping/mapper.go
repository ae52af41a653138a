package mapping

import (
	"math"

	"github.com/golang/geo/r3"
)

// Rotation is a logical rotation in degrees.
type Rotation struct {
	RX float64 `yaml:"rx" json:"rx"`
	RY float64 `yaml:"ry" json:"ry"`
	RZ float64 `yaml:"rz" json:"rz"`
}

// Add returns the component-wise sum.
func (r Rotation) Add(o Rotation) Rotation {
	return Rotation{RX: r.RX + o.RX, RY: r.RY + o.RY, RZ: r.RZ + o.RZ}
}

// Sub returns the component-wise difference.
func (r Rotation) Sub(o Rotation) Rotation {
	return Rotation{RX: r.RX - o.RX, RY: r.RY - o.RY, RZ: r.RZ - o.RZ}
}

// Normalize maps every component into (-180, 180].
func (r Rotation) Normalize() Rotation {
	return Rotation{RX: NormalizeAngle(r.RX), RY: NormalizeAngle(r.RY), RZ: NormalizeAngle(r.RZ)}
}

// Target is the mapped arm target: position in output units and rotation
// in degrees.
type Target struct {
	Position r3.Vector `json:"position"`
	Rotation Rotation  `json:"rotation"`
}

// MapAsymmetric maps a displacement linearly from zero to max over
// [0, inputMM] and from zero to min over [0, -inputMM], clamped to [min, max].
func MapAsymmetric(d float64, r AxisRange) float64 {
	if r.InputMM == 0 {
		return r.Zero
	}
	var v float64
	if d >= 0 {
		v = r.Zero + d/r.InputMM*(r.Max-r.Zero)
	} else {
		v = r.Zero - d/-r.InputMM*(r.Zero-r.Min)
	}
	return Clamp(v, r.Min, r.Max)
}

// Quantize rounds v to a multiple of step, half to even. A step of zero or
// less truncates toward zero.
func Quantize(v, step float64) float64 {
	if step <= 0 {
		return math.Trunc(v)
	}
	return math.RoundToEven(v/step) * step
}

// NormalizeAngle maps degrees into (-180, 180].
func NormalizeAngle(a float64) float64 {
	r := math.Mod(a+180, 360)
	if r < 0 {
		r += 360
	}
	r -= 180
	if r == -180 {
		return 180
	}
	return r
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
