// Package kinematics implements forward and inverse kinematics for the
// fixed six-joint arm described by a standard Denavit-Hartenberg table.
//
// Angles at the package boundary (Joints, limits) are in degrees. Link
// twists and everything internal are in radians. Lengths are millimetres.
package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NumJoints is the number of revolute joints in the chain.
const NumJoints = 6

// Joints is a joint vector in degrees, base to flange.
type Joints [NumJoints]float64

// Link is one row of a standard DH table.
type Link struct {
	Alpha float64 `yaml:"alpha" json:"alpha"` // twist, radians
	A     float64 `yaml:"a" json:"a"`         // length, mm
	D     float64 `yaml:"d" json:"d"`         // offset, mm
}

// Transform returns the homogeneous link transform Rz(theta)·Tz(d)·Tx(a)·Rx(alpha).
func (l Link) Transform(theta float64) *mat.Dense {
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(l.Alpha), math.Sin(l.Alpha)
	return mat.NewDense(4, 4, []float64{
		ct, -st * ca, st * sa, l.A * ct,
		st, ct * ca, -ct * sa, l.A * st,
		0, sa, ca, l.D,
		0, 0, 0, 1,
	})
}

// Chain is the arm geometry plus per-joint limits in degrees.
type Chain struct {
	Links  [NumJoints]Link       `yaml:"links" json:"links"`
	Limits [NumJoints][2]float64 `yaml:"limits" json:"limits"`
}

// DefaultChain returns the geometry of the deployed arm.
//
// The shoulder-to-elbow link lies along x of frame 1, the forearm along z
// of frame 3, and joints 4..6 intersect at the wrist center.
func DefaultChain() Chain {
	c := Chain{
		Links: [NumJoints]Link{
			{Alpha: -math.Pi / 2, D: 136.1},
			{A: 252.625},
			{Alpha: math.Pi / 2},
			{Alpha: -math.Pi / 2, D: 214.6},
			{Alpha: math.Pi / 2},
			{D: 119.47},
		},
	}
	for i := range c.Limits {
		c.Limits[i] = [2]float64{-180, 180}
	}
	return c
}

// Validate checks that the chain can be solved analytically.
func (c *Chain) Validate() error {
	if c.Links[1].A <= 0 {
		return fmt.Errorf("upper arm length must be positive, got %v", c.Links[1].A)
	}
	if c.Links[3].D <= 0 {
		return fmt.Errorf("forearm length must be positive, got %v", c.Links[3].D)
	}
	for i, l := range c.Limits {
		if l[0] >= l[1] {
			return fmt.Errorf("joint %d: limit min %v must be below max %v", i, l[0], l[1])
		}
	}
	return nil
}

// Clamp limits every joint to its configured range.
func (c *Chain) Clamp(q Joints) Joints {
	for i := range q {
		q[i] = math.Max(c.Limits[i][0], math.Min(c.Limits[i][1], q[i]))
	}
	return q
}

// frame returns the transform from the base to frame n for joint angles in radians.
func (c *Chain) frame(q [NumJoints]float64, n int) *mat.Dense {
	t := eye(4)
	for i := 0; i < n; i++ {
		var next mat.Dense
		next.Mul(t, c.Links[i].Transform(q[i]))
		t = &next
	}
	return t
}

// Forward returns the flange pose for a joint vector in degrees.
func (c *Chain) Forward(q Joints) Pose {
	return poseOf(c.frame(toRadians(q), NumJoints))
}

func toRadians(q Joints) [NumJoints]float64 {
	var r [NumJoints]float64
	for i, v := range q {
		r[i] = v * math.Pi / 180
	}
	return r
}

func toDegrees(q [NumJoints]float64) Joints {
	var d Joints
	for i, v := range q {
		d[i] = wrap(v) * 180 / math.Pi
	}
	return d
}

// wrap maps an angle in radians to (-pi, pi].
func wrap(a float64) float64 {
	return math.Atan2(math.Sin(a), math.Cos(a))
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
