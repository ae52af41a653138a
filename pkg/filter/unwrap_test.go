package filter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		prev := rng.Float64()*2000 - 1000
		next := rng.Float64()*2000 - 1000
		u := Unwrap(next, prev)

		if math.Abs(u-prev) > 180+1e-9 {
			t.Fatalf("Unwrap(%v, %v) = %v, more than 180 from prev", next, prev, u)
		}
		m := math.Mod(math.Abs(u-next), 360)
		if m > 1e-9 && 360-m > 1e-9 {
			t.Fatalf("Unwrap(%v, %v) = %v, not congruent to next", next, prev, u)
		}
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name             string
		next, prev, want float64
	}{
		{"no jump", 10, 5, 10},
		{"cross plus seam", -179, 179, 181},
		{"cross minus seam", 179, -179, -181},
		{"accumulated turns", -170, 530, 550},
		{"exact half turn", 180, 0, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Unwrap(tt.next, tt.prev), 1e-9)
		})
	}
}

func TestUnwrapAll(t *testing.T) {
	got := UnwrapAll([]float64{-179, 10, 170}, []float64{179, 0, -170})
	want := []float64{181, 10, -190}
	assert.InDeltaSlice(t, want, got, 1e-9)
}
