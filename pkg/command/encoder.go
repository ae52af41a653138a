// Package command serializes arm targets into the short text commands the
// controller accepts and decides when they are worth sending.
package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// DefaultMaxBytes is the transport's payload ceiling.
const DefaultMaxBytes = 32

// Command tags.
const (
	TagIK      = "IK"
	TagJoints  = "jm"
	TagGripper = "clm"
)

// RotationUnit selects how IK rotations are printed.
type RotationUnit string

const (
	Radians RotationUnit = "rad"
	Degrees RotationUnit = "deg"
)

// Result is an encoded payload.
type Result struct {
	Payload string `json:"payload"`

	// Precision is the number of decimals used for rotations, or -1 when
	// the payload had to be truncated.
	Precision int `json:"precision"`

	// Truncated marks a payload cut at the ceiling. It must not be
	// trusted as a valid command.
	Truncated bool `json:"truncated"`
}

// Encoder builds size-bounded payloads.
type Encoder struct {
	maxBytes int
	unit     RotationUnit
}

// NewEncoder creates an encoder. maxBytes <= 0 selects DefaultMaxBytes.
func NewEncoder(maxBytes int, unit RotationUnit) (*Encoder, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if unit == "" {
		unit = Radians
	}
	if unit != Radians && unit != Degrees {
		return nil, fmt.Errorf("rotation unit must be 'rad' or 'deg', got '%s'", unit)
	}
	return &Encoder{maxBytes: maxBytes, unit: unit}, nil
}

// MaxBytes returns the payload ceiling.
func (e *Encoder) MaxBytes() int { return e.maxBytes }

// IK encodes "IK x y z rx ry rz". Rotations are given in degrees and
// printed in the encoder's unit with 2, then 1, then 0 decimals until the
// payload fits. Positions use at most the same number of decimals, without
// trailing zeros.
func (e *Encoder) IK(pos r3.Vector, rx, ry, rz float64) Result {
	if e.unit == Radians {
		rx, ry, rz = rx*math.Pi/180, ry*math.Pi/180, rz*math.Pi/180
	}

	var payload string
	for prec := 2; prec >= 0; prec-- {
		payload = strings.Join([]string{
			TagIK,
			formatTrim(pos.X, prec), formatTrim(pos.Y, prec), formatTrim(pos.Z, prec),
			formatFixed(rx, prec), formatFixed(ry, prec), formatFixed(rz, prec),
		}, " ")
		if len(payload) <= e.maxBytes {
			return Result{Payload: payload, Precision: prec}
		}
	}
	return e.truncate(payload)
}

// Joints encodes "jm a0 .. a5" with each angle rounded to whole degrees.
func (e *Encoder) Joints(q [6]float64) Result {
	parts := make([]string, 0, len(q)+1)
	parts = append(parts, TagJoints)
	for _, v := range q {
		parts = append(parts, formatFixed(v, 0))
	}
	return e.fit(strings.Join(parts, " "))
}

// Gripper encodes "clm v".
func (e *Encoder) Gripper(v int) Result {
	return e.fit(TagGripper + " " + strconv.Itoa(v))
}

func (e *Encoder) fit(payload string) Result {
	if len(payload) <= e.maxBytes {
		return Result{Payload: payload}
	}
	return e.truncate(payload)
}

func (e *Encoder) truncate(payload string) Result {
	return Result{Payload: payload[:e.maxBytes], Precision: -1, Truncated: true}
}

// formatTrim prints v with at most prec decimals, so whole numbers carry
// no decimal point.
func formatTrim(v float64, prec int) string {
	s := formatFixed(v, prec)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return cleanZero(s)
}

// formatFixed prints v with prec decimals, rounding half to even.
func formatFixed(v float64, prec int) string {
	if prec == 0 {
		v = math.RoundToEven(v)
	}
	return cleanZero(strconv.FormatFloat(v, 'f', prec, 64))
}

// cleanZero drops the sign from a printed negative zero.
func cleanZero(s string) string {
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		return s[1:]
	}
	return s
}
