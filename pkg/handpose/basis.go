package handpose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// FromBasis builds the hand orientation from the palm normal and the
// finger direction as reported by the tracking service. The hand frame
// has y opposite the palm normal and z opposite the finger direction.
func FromBasis(palmNormal, direction r3.Vector) quat.Number {
	y := palmNormal.Mul(-1).Normalize()
	z := direction.Mul(-1)
	// re-orthogonalize z against y
	z = z.Sub(y.Mul(z.Dot(y))).Normalize()
	x := y.Cross(z)
	return fromColumns(x, y, z)
}

// FromAxisAngle returns the rotation of angle radians about axis.
func FromAxisAngle(axis r3.Vector, angle float64) quat.Number {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return quat.Number{Real: math.Cos(angle / 2), Imag: a.X * s, Jmag: a.Y * s, Kmag: a.Z * s}
}

// fromColumns converts an orthonormal basis to a unit quaternion.
func fromColumns(x, y, z r3.Vector) quat.Number {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return q
}
