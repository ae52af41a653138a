// Package mapping turns raw hand poses into quantized arm targets: axis
// remapping, zero referencing, asymmetric range mapping and quantization.
package mapping

import (
	"fmt"
)

// Axis names a Cartesian axis.
type Axis string

const (
	X Axis = "x"
	Y Axis = "y"
	Z Axis = "z"
)

// Angle names a sensor Euler angle.
type Angle string

const (
	Roll  Angle = "roll"
	Pitch Angle = "pitch"
	Yaw   Angle = "yaw"
)

// AxisRange maps a relative displacement onto an output coordinate.
type AxisRange struct {
	// InputMM is the displacement that reaches Max (or Min when negative).
	InputMM float64 `yaml:"input_mm" json:"input_mm"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Zero    float64 `yaml:"zero" json:"zero"`
}

// RotationRange clamps a calibrated rotation in degrees.
type RotationRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// PositionRanges holds one AxisRange per logical position axis.
type PositionRanges struct {
	X AxisRange `yaml:"x" json:"x"`
	Y AxisRange `yaml:"y" json:"y"`
	Z AxisRange `yaml:"z" json:"z"`
}

// RotationRanges holds one RotationRange per logical rotation axis.
type RotationRanges struct {
	RX RotationRange `yaml:"rx" json:"rx"`
	RY RotationRange `yaml:"ry" json:"ry"`
	RZ RotationRange `yaml:"rz" json:"rz"`
}

// AxisMap names the sensor axis feeding each logical position axis.
type AxisMap struct {
	X Axis `yaml:"x" json:"x"`
	Y Axis `yaml:"y" json:"y"`
	Z Axis `yaml:"z" json:"z"`
}

// AngleMap names the sensor angle feeding each logical rotation axis.
type AngleMap struct {
	RX Angle `yaml:"rx" json:"rx"`
	RY Angle `yaml:"ry" json:"ry"`
	RZ Angle `yaml:"rz" json:"rz"`
}

// Inversion flags negate a logical axis after remapping.
type Inversion struct {
	X bool `yaml:"x" json:"x"`
	Y bool `yaml:"y" json:"y"`
	Z bool `yaml:"z" json:"z"`
}

// Config is the static mapping table, loaded once at startup.
type Config struct {
	Position PositionRanges `yaml:"position" json:"position"`
	Rotation RotationRanges `yaml:"rotation" json:"rotation"`

	PositionAxes AxisMap  `yaml:"position_axes" json:"position_axes"`
	RotationAxes AngleMap `yaml:"rotation_axes" json:"rotation_axes"`

	InvertPosition Inversion `yaml:"invert_position" json:"invert_position"`
	// InvertRotation uses X/Y/Z for rx/ry/rz.
	InvertRotation Inversion `yaml:"invert_rotation" json:"invert_rotation"`

	// Minimum change steps; 0 truncates to integers.
	PositionStep float64 `yaml:"position_step" json:"position_step"`
	RotationStep float64 `yaml:"rotation_step" json:"rotation_step"`

	// Rest is the rotation the hand reads as right after a zero command.
	Rest Rotation `yaml:"rest" json:"rest"`
}

// DefaultConfig returns the desktop tracking setup with a palm-down rest pose.
func DefaultConfig() Config {
	return Config{
		Position: PositionRanges{
			X: AxisRange{InputMM: 100, Min: 70, Max: 400, Zero: 150},
			Y: AxisRange{InputMM: 100, Min: -300, Max: 300, Zero: 0},
			Z: AxisRange{InputMM: 100, Min: 30, Max: 350, Zero: 150},
		},
		Rotation: RotationRanges{
			RX: RotationRange{Min: -180, Max: 180},
			RY: RotationRange{Min: -180, Max: 180},
			RZ: RotationRange{Min: -180, Max: 180},
		},
		PositionAxes:   AxisMap{X: Z, Y: X, Z: Y},
		RotationAxes:   AngleMap{RX: Yaw, RY: Roll, RZ: Pitch},
		InvertRotation: Inversion{X: true, Y: true},
		PositionStep:   1,
		RotationStep:   2,
		Rest:           Rotation{RX: 0, RY: 180, RZ: 0},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	for name, r := range map[string]AxisRange{"x": c.Position.X, "y": c.Position.Y, "z": c.Position.Z} {
		if r.InputMM < 0 {
			return fmt.Errorf("position %s: input_mm must not be negative", name)
		}
		if r.Min > r.Max || r.Zero < r.Min || r.Zero > r.Max {
			return fmt.Errorf("position %s: need min <= zero <= max, got %v/%v/%v", name, r.Min, r.Zero, r.Max)
		}
	}
	for name, r := range map[string]RotationRange{"rx": c.Rotation.RX, "ry": c.Rotation.RY, "rz": c.Rotation.RZ} {
		if r.Min > r.Max {
			return fmt.Errorf("rotation %s: min %v above max %v", name, r.Min, r.Max)
		}
	}
	for _, a := range []Axis{c.PositionAxes.X, c.PositionAxes.Y, c.PositionAxes.Z} {
		if a != X && a != Y && a != Z {
			return fmt.Errorf("unknown position axis %q", a)
		}
	}
	for _, a := range []Angle{c.RotationAxes.RX, c.RotationAxes.RY, c.RotationAxes.RZ} {
		if a != Roll && a != Pitch && a != Yaw {
			return fmt.Errorf("unknown rotation angle %q", a)
		}
	}
	if c.PositionStep < 0 || c.RotationStep < 0 {
		return fmt.Errorf("quantization steps must not be negative")
	}
	return nil
}
