package command

import (
	"testing"

	"github.com/golang/geo/r3"
)

func newEncoder(t *testing.T, unit RotationUnit) *Encoder {
	t.Helper()
	e, err := NewEncoder(0, unit)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	return e
}

func TestIKRestPose(t *testing.T) {
	e := newEncoder(t, Radians)
	got := e.IK(r3.Vector{X: 150, Y: 0, Z: 150}, 0, 180, 0)
	want := Result{Payload: "IK 150 0 150 0.00 3.14 0.00", Precision: 2}
	if got != want {
		t.Errorf("IK() = %+v, want %+v", got, want)
	}
}

func TestIKReducesPrecision(t *testing.T) {
	e := newEncoder(t, Radians)

	// "IK -300 -300 -300 -3.14 -3.14 -3.14" is 35 bytes
	got := e.IK(r3.Vector{X: -300, Y: -300, Z: -300}, -180, -180, -180)
	if got.Truncated {
		t.Fatalf("payload truncated: %+v", got)
	}
	if got.Precision != 1 {
		t.Errorf("Precision = %d, want 1", got.Precision)
	}
	if got.Payload != "IK -300 -300 -300 -3.1 -3.1 -3.1" {
		t.Errorf("Payload = %q", got.Payload)
	}
	if len(got.Payload) > DefaultMaxBytes {
		t.Errorf("payload is %d bytes", len(got.Payload))
	}
}

func TestIKFractionalPosition(t *testing.T) {
	e := newEncoder(t, Radians)

	// three 0.1mm steps do not sum to exactly 0.3
	got := e.IK(r3.Vector{X: 150, Y: 0.1 * 3, Z: 150}, 0, 180, 0)
	want := Result{Payload: "IK 150 0.3 150 0.00 3.14 0.00", Precision: 2}
	if got != want {
		t.Errorf("IK() = %+v, want %+v", got, want)
	}

	// positions lose decimals together with rotations
	got = e.IK(r3.Vector{X: -300.25, Y: -300, Z: -300}, -180, -180, -180)
	if got.Truncated || got.Precision != 0 {
		t.Fatalf("got %+v, want precision 0", got)
	}
	if got.Payload != "IK -300 -300 -300 -3 -3 -3" {
		t.Errorf("Payload = %q", got.Payload)
	}
}

func TestIKIntegerPrecision(t *testing.T) {
	e := newEncoder(t, Radians)
	got := e.IK(r3.Vector{X: -1000, Y: -300, Z: -300}, -180, -180, -180)
	if got.Precision != 0 || got.Truncated {
		t.Fatalf("got %+v, want precision 0", got)
	}
	if got.Payload != "IK -1000 -300 -300 -3 -3 -3" {
		t.Errorf("Payload = %q", got.Payload)
	}
}

func TestIKTruncates(t *testing.T) {
	e := newEncoder(t, Degrees)
	got := e.IK(r3.Vector{X: -1000, Y: -1000, Z: -1000}, -180, -180, -180)
	if !got.Truncated || got.Precision != -1 {
		t.Fatalf("got %+v, want truncated", got)
	}
	if len(got.Payload) != DefaultMaxBytes {
		t.Errorf("payload is %d bytes, want %d", len(got.Payload), DefaultMaxBytes)
	}
}

func TestIKDegrees(t *testing.T) {
	e := newEncoder(t, Degrees)
	got := e.IK(r3.Vector{X: 150, Z: 150}, -0.0, 180, -4)
	if got.Payload != "IK 150 0 150 0.00 180.00 -4.00" {
		t.Errorf("Payload = %q", got.Payload)
	}
}

func TestJoints(t *testing.T) {
	e := newEncoder(t, Radians)
	tests := []struct {
		name string
		q    [6]float64
		want string
	}{
		{"rounded", [6]float64{0, -96.72, -140.08, 0.4, 56.8, -180}, "jm 0 -97 -140 0 57 -180"},
		{"half to even", [6]float64{0.5, 1.5, -0.5, 2.5, 0, 0}, "jm 0 2 0 2 0 0"},
		{"widest", [6]float64{-180, -180, -180, -180, -180, -180}, "jm -180 -180 -180 -180 -180 -180"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Joints(tt.q)
			if got.Payload != tt.want || got.Truncated {
				t.Errorf("Joints() = %+v, want %q", got, tt.want)
			}
		})
	}
}

func TestGripperAndCeiling(t *testing.T) {
	e := newEncoder(t, Radians)
	if got := e.Gripper(180); got.Payload != "clm 180" {
		t.Errorf("Gripper() = %q", got.Payload)
	}

	small, err := NewEncoder(8, Radians)
	if err != nil {
		t.Fatal(err)
	}
	got := small.Joints([6]float64{1, 2, 3, 4, 5, 6})
	if !got.Truncated || got.Payload != "jm 1 2 3" {
		t.Errorf("Joints() on 8 byte ceiling = %+v", got)
	}
}

func TestNewEncoderRejectsUnit(t *testing.T) {
	if _, err := NewEncoder(32, "grad"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
