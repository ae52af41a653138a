// Package governor bounds how often the pipeline publishes and spaces out
// dependent messages.
package governor

import (
	"fmt"
	"time"
)

// Gate admits at most one frame per interval. Frames arriving early are
// dropped, not queued. It is not safe for concurrent use.
type Gate struct {
	interval time.Duration
	last     time.Time
	started  bool
}

// NewGate creates a gate for the given rate in frames per second.
func NewGate(fps float64) (*Gate, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("publish rate must be positive, got %v", fps)
	}
	return &Gate{interval: time.Duration(float64(time.Second) / fps)}, nil
}

// Interval returns the minimum spacing between admitted frames.
func (g *Gate) Interval() time.Duration { return g.interval }

// Allow reports whether a frame at now is admitted, and if so records it.
func (g *Gate) Allow(now time.Time) bool {
	if g.started && now.Sub(g.last) < g.interval {
		return false
	}
	g.last, g.started = now, true
	return true
}

// Reset admits the next frame unconditionally.
func (g *Gate) Reset() {
	g.started = false
}
