package bridge

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"zero", CommandZero, false},
		{"  ZERO\n", CommandZero, false},
		{"Reset", CommandReset, false},
		{"pause", CommandPause, false},
		{"resume ", CommandResume, false},
		{"toggle", CommandToggle, false},
		{"STOP", CommandStop, false},
		{"", "", true},
		{"jump", "", true},
		{"zero now", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleCommandUnknownIsHarmless(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.b.HandleCommand("dance"), ErrUnknownCommand)
	assert.True(t, h.b.Running())
	assert.Empty(t, h.rec.Messages())
}

func TestZeroWithoutPose(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.b.HandleCommand("zero"), ErrNoPose)
	assert.False(t, h.b.Status().Zeroed)
	assert.Empty(t, h.rec.Messages())
}

func TestZeroRestartsSmoothing(t *testing.T) {
	h := newHarness(t, nil)
	h.zero(t)
	h.frame(r3.Vector{}, 0)
	h.frame(r3.Vector{Z: 40}, 0)

	// re-zero at the displaced pose: it reads as rest again with no lag
	require.NoError(t, h.b.HandleCommand("Zero"))
	h.rec.Reset()
	h.frame(r3.Vector{Z: 40}, 0)
	assert.Equal(t, []string{restIK}, h.rec.On(ChannelIK))
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t, nil)
	h.zero(t)

	require.NoError(t, h.b.HandleCommand("pause"))
	h.frame(r3.Vector{}, 0)
	assert.Empty(t, h.rec.On(ChannelIK))
	assert.True(t, h.b.Status().Paused)

	require.NoError(t, h.b.HandleCommand("resume"))
	h.frame(r3.Vector{}, 0)
	assert.Equal(t, []string{restIK}, h.rec.On(ChannelIK))

	require.NoError(t, h.b.HandleCommand("toggle"))
	assert.True(t, h.b.Status().Paused)
	require.NoError(t, h.b.HandleCommand("toggle"))
	assert.False(t, h.b.Status().Paused)
}

func TestPauseKeepsTrackingRawPose(t *testing.T) {
	h := newHarness(t, nil)
	h.b.Pause()
	h.frame(r3.Vector{}, 0)

	// the paused frame is still the zero reference
	require.NoError(t, h.b.Zero())
	assert.False(t, h.b.Status().Paused)
}

func TestResumeWithoutZeroStaysSilent(t *testing.T) {
	h := newHarness(t, nil)
	h.b.Resume()
	h.frame(r3.Vector{}, 0)

	s := h.b.Status()
	assert.True(t, s.Enabled)
	assert.False(t, s.Zeroed)
	assert.Empty(t, h.rec.Messages())
}

func TestResetPublishesRestPose(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.b.HandleCommand("reset"))

	assert.Equal(t, []string{restIK}, h.rec.On(ChannelIK))
	assert.Equal(t, []string{"clm 180"}, h.rec.On(ChannelGripper))
}

func TestResetJointMode(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Mode = ModeJoints
		c.Gripper.Max = 100
	})
	require.NoError(t, h.b.Reset())

	jm := h.rec.On(ChannelJoints)
	require.Len(t, jm, 1)
	assert.Regexp(t, `^jm 0 `, jm[0])
	assert.Equal(t, []string{"clm 100"}, h.rec.On(ChannelGripper))
	assert.NotNil(t, h.b.Status().Joints)
}

func TestResetKeepsJointsContinuous(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Mode = ModeJoints })
	require.NoError(t, h.b.Reset())
	rest := *h.b.Status().Joints

	h.b.mu.Lock()
	h.b.st.joints[0] = rest[0] + 350
	h.b.mu.Unlock()

	require.NoError(t, h.b.Reset())
	q := *h.b.Status().Joints
	assert.InDelta(t, rest[0]+360, q[0], 1e-6)
	for i := 1; i < len(q); i++ {
		assert.InDelta(t, rest[i], q[i], 1e-6, "joint %d", i)
	}
}

func TestStop(t *testing.T) {
	h := newHarness(t, nil)
	h.zero(t)

	require.NoError(t, h.b.HandleCommand("stop"))
	select {
	case <-h.b.Done():
	default:
		t.Fatal("Done() not closed after stop")
	}
	assert.False(t, h.b.Running())

	before := len(h.rec.Messages())
	h.frame(r3.Vector{}, 0)
	assert.Len(t, h.rec.Messages(), before)

	assert.ErrorIs(t, h.b.HandleCommand("zero"), ErrStopped)
	h.b.Stop()
}

func TestEventsEmitted(t *testing.T) {
	h := newHarness(t, nil)
	h.zero(t)
	h.frame(r3.Vector{}, 0)
	h.b.Pause()
	h.b.HandleDevice(false, "LP123")

	var kinds []EventKind
	for _, ev := range h.events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		EventCommand, // zero broadcast
		EventZero,
		EventCommand, // IK
		EventCommand, // clm
		EventPause,
		EventDevice,
	}, kinds)
	assert.Equal(t, ChannelIK, h.events[2].Channel)
	assert.Equal(t, restIK, h.events[2].Payload)
	assert.Equal(t, 2, h.events[2].Precision)
	assert.Equal(t, "disconnected LP123", h.events[5].Detail)
}
