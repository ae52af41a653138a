package governor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateDropsFramesInsideInterval(t *testing.T) {
	g, err := NewGate(30)
	require.NoError(t, err)

	t0 := time.Unix(1700000000, 0)
	assert.True(t, g.Allow(t0))
	assert.False(t, g.Allow(t0.Add(10*time.Millisecond)))
	assert.False(t, g.Allow(t0.Add(33*time.Millisecond)))
	assert.True(t, g.Allow(t0.Add(34*time.Millisecond)))

	// dropped frames do not move the reference point
	assert.False(t, g.Allow(t0.Add(50*time.Millisecond)))
	assert.True(t, g.Allow(t0.Add(68*time.Millisecond)))
}

func TestGateReset(t *testing.T) {
	g, _ := NewGate(5)
	t0 := time.Unix(0, 0)
	assert.True(t, g.Allow(t0))
	g.Reset()
	assert.True(t, g.Allow(t0.Add(time.Millisecond)))
	assert.Equal(t, 200*time.Millisecond, g.Interval())
}

func TestNewGateRejectsRate(t *testing.T) {
	_, err := NewGate(0)
	assert.Error(t, err)
}

func TestBlockingDelayer(t *testing.T) {
	var slept time.Duration
	var order []string
	d := Blocking{Sleep: func(d time.Duration) {
		slept = d
		order = append(order, "sleep")
	}}

	d.After(10*time.Millisecond, func() { order = append(order, "send") })
	assert.Equal(t, 10*time.Millisecond, slept)
	assert.Equal(t, []string{"sleep", "send"}, order)

	order = nil
	d.After(0, func() { order = append(order, "send") })
	assert.Equal(t, []string{"send"}, order)
}

func TestTimerDelayer(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	start := time.Now()
	Timer{}.After(5*time.Millisecond, wg.Done)
	wg.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Timer{}, New("timer"))
	assert.IsType(t, Blocking{}, New("blocking"))
	assert.IsType(t, Blocking{}, New(""))
}
