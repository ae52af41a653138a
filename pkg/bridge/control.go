package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-leaparm/pkg/command"
	"github.com/teslashibe/go-leaparm/pkg/kinematics"
)

var (
	// ErrUnknownCommand is returned for control strings outside the grammar.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoPose is returned by zero before any valid hand has been seen.
	ErrNoPose = errors.New("no hand pose to zero against")

	// ErrStopped is returned for commands received after stop.
	ErrStopped = errors.New("bridge stopped")
)

// Command is a control verb.
type Command string

const (
	CommandZero   Command = "zero"
	CommandReset  Command = "reset"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandToggle Command = "toggle"
	CommandStop   Command = "stop"
)

// zeroBroadcast tells listeners the arm origin moved.
const zeroBroadcast = `{"x":0,"y":0,"z":0,"h":0}`

// ParseCommand normalizes a control string. Matching is case-insensitive
// and ignores surrounding whitespace.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CommandZero, CommandReset, CommandPause, CommandResume, CommandToggle, CommandStop:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// HandleCommand parses and executes a control string.
func (b *Bridge) HandleCommand(s string) error {
	c, err := ParseCommand(s)
	if err != nil {
		b.logger.Warn("ignoring command", "command", s)
		return err
	}
	return b.Execute(c)
}

// Execute runs a parsed control command.
func (b *Bridge) Execute(c Command) error {
	if !b.running.Load() {
		return ErrStopped
	}
	switch c {
	case CommandZero:
		return b.Zero()
	case CommandReset:
		return b.Reset()
	case CommandPause:
		b.Pause()
	case CommandResume:
		b.Resume()
	case CommandToggle:
		b.Toggle()
	case CommandStop:
		b.Stop()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c)
	}
	return nil
}

// Zero makes the most recent hand pose the origin and the rest rotation.
// Publishing is enabled and all smoothing and memo state starts over.
func (b *Bridge) Zero() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.st.hasRaw {
		b.logger.Warn("zero ignored, no hand pose yet")
		return ErrNoPose
	}

	origin, offset := b.mapper.Capture(b.st.raw)
	b.st.cal.Set(origin, offset)
	b.st.sentPosition.Clear()
	b.st.sentRotation.Clear()
	b.st.resetSmoothing()
	b.st.joints, b.st.hasJoints = kinematics.Joints{}, false
	b.st.hasTarget = false
	b.st.enabled, b.st.paused = true, false
	b.gate.Reset()

	b.logger.Info("zeroed",
		"origin", fmt.Sprintf("%.1f,%.1f,%.1f", origin.X, origin.Y, origin.Z),
		"offset", fmt.Sprintf("%.1f,%.1f,%.1f", offset.RX, offset.RY, offset.RZ),
	)

	b.send(ChannelZero, command.Result{Payload: zeroBroadcast})
	b.emit(Event{Kind: EventZero, Time: b.now()})
	return nil
}

// Reset drives the arm to the rest pose with the gripper open. It does not
// need a calibration.
func (b *Bridge) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rest := b.mapper.Rest()
	r := rest.Rotation

	switch b.cfg.Mode {
	case ModeJoints:
		sol, err := b.solver.Solve(kinematics.NewPose(rest.Position, r.RX, r.RY, r.RZ), b.st.joints)
		if err != nil {
			b.stats.noSolution.Add(1)
			return fmt.Errorf("solving rest pose: %w", err)
		}
		q := b.continuous(sol.Joints)
		b.st.joints, b.st.hasJoints = q, true
		b.send(ChannelJoints, b.encoder.Joints(b.cfg.Kinematics.Chain.Clamp(q)))
	default:
		b.send(ChannelIK, b.encoder.IK(rest.Position, r.RX, r.RY, r.RZ))
	}
	b.send(ChannelGripper, b.encoder.Gripper(b.cfg.Gripper.Max))

	b.st.sentPosition.Clear()
	b.st.sentRotation.Clear()

	b.logger.Info("reset to rest pose")
	b.emit(Event{Kind: EventReset, Time: b.now()})
	return nil
}

// Pause suspends publishing. Frames still update the latest raw pose.
func (b *Bridge) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauseLocked(true)
}

// Resume re-enables publishing.
func (b *Bridge) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauseLocked(false)
}

// Toggle flips between paused and running.
func (b *Bridge) Toggle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauseLocked(!b.st.paused)
}

func (b *Bridge) pauseLocked(paused bool) {
	b.st.paused = paused
	if paused {
		b.logger.Info("publishing paused")
		b.emit(Event{Kind: EventPause, Time: b.now()})
		return
	}
	b.st.enabled = true
	b.logger.Info("publishing resumed", "zeroed", b.st.cal.Zeroed())
	b.emit(Event{Kind: EventResume, Time: b.now()})
}

// Stop ends frame processing and closes Done. It is idempotent.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.running.Store(false)

		b.mu.Lock()
		b.emit(Event{Kind: EventStop, Time: b.now()})
		b.mu.Unlock()

		b.logger.Info("stopped")
		close(b.done)
	})
}

// HandleDevice records a tracking device connect or disconnect.
func (b *Bridge) HandleDevice(connected bool, serial string) {
	state := "disconnected"
	if connected {
		state = "connected"
		b.logger.Info("tracking device connected", "serial", serial)
	} else {
		b.logger.Warn("tracking device disconnected", "serial", serial)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.emit(Event{Kind: EventDevice, Time: b.now(), Detail: state + " " + serial})
}
