package mapping

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-leaparm/pkg/handpose"
)

// Mapper applies a Config to hand poses.
type Mapper struct {
	cfg Config
}

// New creates a Mapper. The config is copied.
func New(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mapping config: %w", err)
	}
	return &Mapper{cfg: cfg}, nil
}

// Config returns the active configuration.
func (m *Mapper) Config() Config { return m.cfg }

// RemapPosition applies the axis table and inversion flags.
func (m *Mapper) RemapPosition(v r3.Vector) r3.Vector {
	out := r3.Vector{
		X: component(v, m.cfg.PositionAxes.X),
		Y: component(v, m.cfg.PositionAxes.Y),
		Z: component(v, m.cfg.PositionAxes.Z),
	}
	return invert(out, m.cfg.InvertPosition)
}

// RemapRotation selects the sensor angles for rx/ry/rz and applies inversion.
func (m *Mapper) RemapRotation(e handpose.Euler) Rotation {
	v := invert(r3.Vector{
		X: angle(e, m.cfg.RotationAxes.RX),
		Y: angle(e, m.cfg.RotationAxes.RY),
		Z: angle(e, m.cfg.RotationAxes.RZ),
	}, m.cfg.InvertRotation)
	return Rotation{RX: v.X, RY: v.Y, RZ: v.Z}
}

// Displacement is the remapped offset of raw from the calibrated origin.
func (m *Mapper) Displacement(raw r3.Vector, cal *Calibration) r3.Vector {
	return m.RemapPosition(raw.Sub(cal.Origin()))
}

// CalibratedRotation is the remapped rotation plus the calibration offset,
// normalized into (-180, 180].
func (m *Mapper) CalibratedRotation(e handpose.Euler, cal *Calibration) Rotation {
	return m.RemapRotation(e).Add(cal.Offset()).Normalize()
}

// Capture returns the origin and rotation offset that make pose read as
// the rest rotation.
func (m *Mapper) Capture(pose handpose.HandPose) (r3.Vector, Rotation) {
	return pose.Position, m.cfg.Rest.Sub(m.RemapRotation(pose.Euler()))
}

// Map runs a displacement and calibrated rotation through the range tables.
// The result is continuous; see Quantize.
func (m *Mapper) Map(d r3.Vector, rot Rotation) Target {
	p := m.cfg.Position
	return Target{
		Position: r3.Vector{
			X: MapAsymmetric(d.X, p.X),
			Y: MapAsymmetric(d.Y, p.Y),
			Z: MapAsymmetric(d.Z, p.Z),
		},
		Rotation: m.ClampRotation(rot),
	}
}

// ClampRotation limits each rotation to its configured range. Smoothed
// rotations must pass through it again: a shortest-arc blend of two
// in-range angles can land outside a range narrower than a full turn.
func (m *Mapper) ClampRotation(rot Rotation) Rotation {
	r := m.cfg.Rotation
	return Rotation{
		RX: Clamp(rot.RX, r.RX.Min, r.RX.Max),
		RY: Clamp(rot.RY, r.RY.Min, r.RY.Max),
		RZ: Clamp(rot.RZ, r.RZ.Min, r.RZ.Max),
	}
}

// Normalize runs the full pose path: zero referencing, remapping, range
// mapping. The calibration must be zeroed.
func (m *Mapper) Normalize(pose handpose.HandPose, cal *Calibration) Target {
	return m.Map(m.Displacement(pose.Position, cal), m.CalibratedRotation(pose.Euler(), cal))
}

// Quantize snaps a target to the configured steps.
func (m *Mapper) Quantize(t Target) Target {
	ps := m.cfg.PositionStep
	r := m.cfg.Rotation
	return Target{
		Position: r3.Vector{X: Quantize(t.Position.X, ps), Y: Quantize(t.Position.Y, ps), Z: Quantize(t.Position.Z, ps)},
		Rotation: Rotation{
			RX: m.quantizeAngle(t.Rotation.RX, r.RX),
			RY: m.quantizeAngle(t.Rotation.RY, r.RY),
			RZ: m.quantizeAngle(t.Rotation.RZ, r.RZ),
		},
	}
}

// quantizeAngle keeps -180 and 180 from reading as different targets when
// both are inside the range.
func (m *Mapper) quantizeAngle(v float64, r RotationRange) float64 {
	q := Quantize(v, m.cfg.RotationStep)
	if q == -180 && r.Max >= 180 {
		return 180
	}
	return q
}

// Rest returns the output-zero position with the rest rotation.
func (m *Mapper) Rest() Target {
	p := m.cfg.Position
	return Target{
		Position: r3.Vector{X: p.X.Zero, Y: p.Y.Zero, Z: p.Z.Zero},
		Rotation: m.cfg.Rest,
	}
}

func component(v r3.Vector, a Axis) float64 {
	switch a {
	case X:
		return v.X
	case Y:
		return v.Y
	default:
		return v.Z
	}
}

func angle(e handpose.Euler, a Angle) float64 {
	switch a {
	case Roll:
		return e.Roll
	case Pitch:
		return e.Pitch
	default:
		return e.Yaw
	}
}

func invert(v r3.Vector, inv Inversion) r3.Vector {
	if inv.X {
		v.X = -v.X
	}
	if inv.Y {
		v.Y = -v.Y
	}
	if inv.Z {
		v.Z = -v.Z
	}
	return v
}
