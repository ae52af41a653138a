package mapping

import (
	"math"
	"testing"
)

func TestMapAsymmetricBoundaries(t *testing.T) {
	r := AxisRange{InputMM: 100, Min: 70, Max: 400, Zero: 150}

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 150},
		{"plus input", 100, 400},
		{"minus input", -100, 70},
		{"half positive", 50, 275},
		{"half negative", -50, 110},
		{"beyond max", 250, 400},
		{"beyond min", -250, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapAsymmetric(tt.in, r); got != tt.want {
				t.Errorf("MapAsymmetric(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapAsymmetricZeroInput(t *testing.T) {
	r := AxisRange{InputMM: 0, Min: -10, Max: 10, Zero: 3}
	for _, d := range []float64{-1000, 0, 1000} {
		if got := MapAsymmetric(d, r); got != 3 {
			t.Errorf("MapAsymmetric(%v) = %v, want 3", d, got)
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v, step, want float64
	}{
		{151.4, 1, 151},
		{151.6, 1, 152},
		{150.5, 1, 150}, // half to even
		{151.5, 1, 152},
		{179, 2, 180},
		{-3.2, 2, -4},
		{7.9, 0, 7},
		{-7.9, 0, -7},
		{0.26, 0.1, 0.30000000000000004},
	}
	for _, tt := range tests {
		if got := Quantize(tt.v, tt.step); got != tt.want {
			t.Errorf("Quantize(%v, %v) = %v, want %v", tt.v, tt.step, got, tt.want)
		}
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	for _, step := range []float64{0, 0.1, 0.5, 1, 2, 5} {
		for v := -400.0; v <= 400; v += 0.37 {
			q := Quantize(v, step)
			if qq := Quantize(q, step); qq != q {
				t.Fatalf("Quantize(Quantize(%v, %v)) = %v, want %v", v, step, qq, q)
			}
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{540, 180},
		{-540, 180},
		{359, -1},
		{720.5, 0.5},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAngleIdempotentAndInRange(t *testing.T) {
	for a := -1080.0; a <= 1080; a += 0.25 {
		n := NormalizeAngle(a)
		if n <= -180 || n > 180 {
			t.Fatalf("NormalizeAngle(%v) = %v outside (-180, 180]", a, n)
		}
		if nn := NormalizeAngle(n); nn != n {
			t.Fatalf("NormalizeAngle not idempotent at %v: %v then %v", a, n, nn)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero outside range", func(c *Config) { c.Position.X.Zero = 500 }},
		{"negative input", func(c *Config) { c.Position.Y.InputMM = -1 }},
		{"inverted rotation range", func(c *Config) { c.Rotation.RZ = RotationRange{Min: 10, Max: -10} }},
		{"bad axis", func(c *Config) { c.PositionAxes.Y = "w" }},
		{"bad angle", func(c *Config) { c.RotationAxes.RX = "spin" }},
		{"negative step", func(c *Config) { c.RotationStep = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
