// Package bridge runs the hand-to-arm pipeline: it owns the calibration,
// smoothing and publish memo state, and turns sensor frames and control
// commands into arm commands on a Publisher.
package bridge

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-leaparm/pkg/command"
	"github.com/teslashibe/go-leaparm/pkg/handpose"
	"github.com/teslashibe/go-leaparm/pkg/kinematics"
	"github.com/teslashibe/go-leaparm/pkg/mapping"
)

// Mode selects the command grammar for a deployment.
type Mode string

const (
	// ModeIK publishes Cartesian "IK" commands and lets the controller solve.
	ModeIK Mode = "ik"

	// ModeJoints solves locally and publishes "jm" joint commands.
	ModeJoints Mode = "joints"
)

// Smoothing holds the EMA factors per signal class.
type Smoothing struct {
	Position float64 `yaml:"position" json:"position"`
	Rotation float64 `yaml:"rotation" json:"rotation"`
	Grab     float64 `yaml:"grab" json:"grab"`
}

// Gripper configures the gripper channel.
type Gripper struct {
	// Max is the fully open command value.
	Max int `yaml:"max" json:"max"`

	// ResendCount is how many cycles a new value is sent for.
	ResendCount int `yaml:"resend_count" json:"resend_count"`

	// LockThreshold freezes grab smoothing while ry is below it, degrees.
	LockThreshold float64 `yaml:"lock_threshold" json:"lock_threshold"`
}

// Config holds pipeline configuration.
type Config struct {
	Mode Mode `yaml:"mode" json:"mode"`

	// Hand is the preferred side when both hands are tracked.
	Hand handpose.Side `yaml:"hand" json:"hand"`

	// PublishFPS bounds the processed frame rate.
	PublishFPS float64 `yaml:"publish_fps" json:"publish_fps"`

	// CommandDelay spaces the gripper command after a pose command.
	CommandDelay time.Duration `yaml:"command_delay" json:"command_delay"`

	// DelayMode is "blocking" or "timer".
	DelayMode string `yaml:"delay_mode" json:"delay_mode"`

	// RequireZero holds all output until the first zero command.
	RequireZero bool `yaml:"require_zero" json:"require_zero"`

	RotationUnit command.RotationUnit `yaml:"rotation_unit" json:"rotation_unit"`
	MaxPayload   int                  `yaml:"max_payload" json:"max_payload"`

	Smoothing Smoothing `yaml:"smoothing" json:"smoothing"`
	Gripper   Gripper   `yaml:"gripper" json:"gripper"`

	Mapping    mapping.Config    `yaml:"mapping" json:"mapping"`
	Kinematics kinematics.Config `yaml:"kinematics" json:"kinematics"`
}

// DefaultConfig returns a 30 FPS Cartesian deployment.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeIK,
		Hand:         handpose.Right,
		PublishFPS:   30,
		CommandDelay: 10 * time.Millisecond,
		DelayMode:    "blocking",
		RequireZero:  true,
		RotationUnit: command.Radians,
		MaxPayload:   command.DefaultMaxBytes,
		Smoothing:    Smoothing{Position: 0.2, Rotation: 0.2, Grab: 0.2},
		Gripper:      Gripper{Max: 180, ResendCount: 3, LockThreshold: -360},
		Mapping:      mapping.DefaultConfig(),
		Kinematics:   kinematics.DefaultConfig(),
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeIK && c.Mode != ModeJoints {
		return fmt.Errorf("mode must be 'ik' or 'joints', got '%s'", c.Mode)
	}
	if c.PublishFPS <= 0 {
		return fmt.Errorf("publish_fps must be positive, got %v", c.PublishFPS)
	}
	if c.CommandDelay < 0 {
		return fmt.Errorf("command_delay must not be negative")
	}
	if c.DelayMode != "" && c.DelayMode != "blocking" && c.DelayMode != "timer" {
		return fmt.Errorf("delay_mode must be 'blocking' or 'timer', got '%s'", c.DelayMode)
	}
	if c.Gripper.Max <= 0 {
		return fmt.Errorf("gripper max must be positive, got %d", c.Gripper.Max)
	}
	if c.Gripper.ResendCount < 1 {
		return fmt.Errorf("gripper resend_count must be at least 1, got %d", c.Gripper.ResendCount)
	}
	if err := c.Mapping.Validate(); err != nil {
		return fmt.Errorf("mapping: %w", err)
	}
	if err := c.Kinematics.Validate(); err != nil {
		return fmt.Errorf("kinematics: %w", err)
	}
	return nil
}
