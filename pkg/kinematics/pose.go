package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Pose is an end-effector pose in the base frame.
type Pose struct {
	Position r3.Vector
	Rotation *mat.Dense // 3x3
}

// NewPose builds a pose from a position in mm and the command rotation
// axes in degrees. rx drives yaw, rz drives pitch and ry drives roll of a
// Z-Y-X Euler sequence.
func NewPose(position r3.Vector, rx, ry, rz float64) Pose {
	const rad = math.Pi / 180
	return Pose{
		Position: position,
		Rotation: EulerZYX(rx*rad, rz*rad, ry*rad),
	}
}

// Approach returns the tool z axis (third rotation column).
func (p Pose) Approach() r3.Vector {
	return r3.Vector{X: p.Rotation.At(0, 2), Y: p.Rotation.At(1, 2), Z: p.Rotation.At(2, 2)}
}

func poseOf(t *mat.Dense) Pose {
	return Pose{
		Position: r3.Vector{X: t.At(0, 3), Y: t.At(1, 3), Z: t.At(2, 3)},
		Rotation: mat.DenseCopyOf(t.Slice(0, 3, 0, 3)),
	}
}

// RotZ returns a rotation of a radians about z.
func RotZ(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(3, 3, []float64{c, -s, 0, s, c, 0, 0, 0, 1})
}

// RotY returns a rotation of a radians about y.
func RotY(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(3, 3, []float64{c, 0, s, 0, 1, 0, -s, 0, c})
}

// RotX returns a rotation of a radians about x.
func RotX(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, -s, 0, s, c})
}

// EulerZYX returns Rz(yaw)·Ry(pitch)·Rx(roll).
func EulerZYX(yaw, pitch, roll float64) *mat.Dense {
	var zy, r mat.Dense
	zy.Mul(RotZ(yaw), RotY(pitch))
	r.Mul(&zy, RotX(roll))
	return &r
}

// ToEulerZYX inverts EulerZYX. At pitch = ±90° roll is reported as 0.
func ToEulerZYX(r mat.Matrix) (yaw, pitch, roll float64) {
	pitch = math.Asin(math.Max(-1, math.Min(1, -r.At(2, 0))))
	if math.Abs(r.At(2, 0)) > 1-1e-12 {
		return math.Atan2(-r.At(0, 1), r.At(1, 1)), pitch, 0
	}
	return math.Atan2(r.At(1, 0), r.At(0, 0)), pitch, math.Atan2(r.At(2, 1), r.At(2, 2))
}

// RotationError returns the rotation vector (axis times angle, radians)
// that carries current onto desired, expressed in the base frame.
func RotationError(desired, current mat.Matrix) r3.Vector {
	var e mat.Dense
	e.Mul(desired, current.T())

	angle := math.Acos(math.Max(-1, math.Min(1, (mat.Trace(&e)-1)/2)))
	if angle < 1e-9 {
		return r3.Vector{}
	}
	s := 2 * math.Sin(angle)
	if math.Abs(s) < 1e-9 {
		// angle is pi: recover the axis from the symmetric part
		ax := r3.Vector{
			X: math.Sqrt(math.Max(0, (e.At(0, 0)+1)/2)),
			Y: math.Sqrt(math.Max(0, (e.At(1, 1)+1)/2)),
			Z: math.Sqrt(math.Max(0, (e.At(2, 2)+1)/2)),
		}
		switch {
		case ax.X > 1e-6:
			ax.Y = math.Copysign(ax.Y, e.At(0, 1))
			ax.Z = math.Copysign(ax.Z, e.At(0, 2))
		case ax.Y > 1e-6:
			ax.Z = math.Copysign(ax.Z, e.At(1, 2))
		}
		return ax.Mul(angle)
	}
	return r3.Vector{
		X: (e.At(2, 1) - e.At(1, 2)) / s,
		Y: (e.At(0, 2) - e.At(2, 0)) / s,
		Z: (e.At(1, 0) - e.At(0, 1)) / s,
	}.Mul(angle)
}
