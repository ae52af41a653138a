package bridge

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-leaparm/pkg/command"
	"github.com/teslashibe/go-leaparm/pkg/filter"
	"github.com/teslashibe/go-leaparm/pkg/governor"
	"github.com/teslashibe/go-leaparm/pkg/handpose"
	"github.com/teslashibe/go-leaparm/pkg/kinematics"
	"github.com/teslashibe/go-leaparm/pkg/mapping"
)

// State is all mutable pipeline state. It is guarded by Bridge.mu.
type State struct {
	raw    handpose.HandPose
	hasRaw bool

	cal mapping.Calibration

	position *filter.VectorEMA
	rotation [3]*filter.AngleEMA
	grab     *filter.EMA

	sentPosition command.Memo[r3.Vector]
	sentRotation command.Memo[mapping.Rotation]
	gripper      *command.Resender

	joints    kinematics.Joints
	hasJoints bool

	target    mapping.Target
	hasTarget bool

	enabled bool
	paused  bool
}

// resetSmoothing returns all smoothers to the unprimed state.
func (s *State) resetSmoothing() {
	s.position.Reset()
	for _, r := range s.rotation {
		r.Reset()
	}
	s.grab.Reset()
}

// Bridge converts hand frames into arm commands.
type Bridge struct {
	cfg    Config
	logger *slog.Logger
	pub    Publisher

	mapper  *mapping.Mapper
	solver  kinematics.Solver
	encoder *command.Encoder
	gate    *governor.Gate
	delay   governor.Delayer

	now       func() time.Time
	observers []Observer

	mu sync.Mutex
	st State

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once

	stats counters
}

// New creates a Bridge publishing to pub.
func New(cfg Config, pub Publisher, logger *slog.Logger, opts ...Option) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mapper, err := mapping.New(cfg.Mapping)
	if err != nil {
		return nil, err
	}
	solver, err := kinematics.NewSolver(cfg.Kinematics)
	if err != nil {
		return nil, err
	}
	encoder, err := command.NewEncoder(cfg.MaxPayload, cfg.RotationUnit)
	if err != nil {
		return nil, err
	}
	gate, err := governor.NewGate(cfg.PublishFPS)
	if err != nil {
		return nil, err
	}

	st := State{
		gripper: command.NewResender(cfg.Gripper.ResendCount),
		enabled: !cfg.RequireZero,
	}
	if st.position, err = filter.NewVectorEMA(cfg.Smoothing.Position); err != nil {
		return nil, fmt.Errorf("position smoothing: %w", err)
	}
	for i := range st.rotation {
		if st.rotation[i], err = filter.NewAngleEMA(cfg.Smoothing.Rotation); err != nil {
			return nil, fmt.Errorf("rotation smoothing: %w", err)
		}
	}
	if st.grab, err = filter.NewEMA(cfg.Smoothing.Grab); err != nil {
		return nil, fmt.Errorf("grab smoothing: %w", err)
	}

	b := &Bridge{
		cfg:     cfg,
		logger:  logger,
		pub:     pub,
		mapper:  mapper,
		solver:  solver,
		encoder: encoder,
		gate:    gate,
		delay:   governor.New(cfg.DelayMode),
		now:     time.Now,
		st:      st,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.running.Store(true)

	return b, nil
}

// Config returns the active configuration.
func (b *Bridge) Config() Config { return b.cfg }

// Done is closed after a stop command.
func (b *Bridge) Done() <-chan struct{} { return b.done }

// Running reports whether the bridge still accepts frames.
func (b *Bridge) Running() bool { return b.running.Load() }

// HandleFrame processes one tracking frame with zero or more hands.
func (b *Bridge) HandleFrame(hands []handpose.HandPose) {
	if !b.running.Load() {
		return
	}
	hand, ok := handpose.Pick(hands, b.cfg.Hand)
	if !ok {
		return
	}
	b.stats.frames.Add(1)

	if err := hand.Validate(); err != nil {
		b.stats.invalidFrames.Add(1)
		b.logger.Debug("skipping frame", "error", err)
		return
	}

	b.mu.Lock()
	b.st.raw, b.st.hasRaw = hand, true

	if !b.st.enabled || b.st.paused || !b.st.cal.Zeroed() {
		b.mu.Unlock()
		return
	}
	if !b.gate.Allow(b.now()) {
		b.mu.Unlock()
		b.stats.rateDropped.Add(1)
		return
	}
	b.stats.processed.Add(1)
	deferred := b.process(hand)
	b.mu.Unlock()

	if deferred != nil {
		b.delay.After(b.cfg.CommandDelay, func() {
			if !b.running.Load() {
				return
			}
			b.mu.Lock()
			defer b.mu.Unlock()
			b.send(ChannelGripper, *deferred)
		})
	}
}

// process runs one admitted frame and returns a gripper command that must
// wait for the command delay, if any. Caller holds mu.
func (b *Bridge) process(hand handpose.HandPose) *command.Result {
	raw := b.mapper.Normalize(hand, &b.st.cal)
	smoothed := mapping.Target{
		Position: b.st.position.Update(raw.Position),
		Rotation: b.mapper.ClampRotation(mapping.Rotation{
			RX: b.st.rotation[0].Update(raw.Rotation.RX),
			RY: b.st.rotation[1].Update(raw.Rotation.RY),
			RZ: b.st.rotation[2].Update(raw.Rotation.RZ),
		}),
	}
	target := b.mapper.Quantize(smoothed)
	b.st.target, b.st.hasTarget = target, true

	posChanged := b.st.sentPosition.Changed(target.Position)
	rotChanged := b.st.sentRotation.Changed(target.Rotation)
	poseSent := false

	if posChanged || rotChanged {
		switch b.cfg.Mode {
		case ModeJoints:
			if q, ok := b.solve(target, posChanged); ok {
				poseSent = b.send(ChannelJoints, b.encoder.Joints(b.cfg.Kinematics.Chain.Clamp(q)))
			}
		default:
			r := target.Rotation
			poseSent = b.send(ChannelIK, b.encoder.IK(target.Position, r.RX, r.RY, r.RZ))
		}
		b.st.sentPosition.Store(target.Position)
		b.st.sentRotation.Store(target.Rotation)
	}

	return b.updateGripper(target.Rotation.RY, hand.Grab, poseSent)
}

// solve returns the joint vector to publish for target, holding the last
// good vector when the solver fails. Caller holds mu.
func (b *Bridge) solve(target mapping.Target, posChanged bool) (kinematics.Joints, bool) {
	r := target.Rotation
	pose := kinematics.NewPose(target.Position, r.RX, r.RY, r.RZ)

	var (
		sol kinematics.Solution
		err error
	)
	if ws, ok := b.solver.(kinematics.WristSolver); ok && !posChanged && b.st.hasJoints {
		sol, err = ws.SolveWrist(pose, b.st.joints)
	} else {
		sol, err = b.solver.Solve(pose, b.st.joints)
	}
	if err != nil {
		b.stats.noSolution.Add(1)
		b.logger.Warn("no joint solution, holding last",
			"target", fmt.Sprintf("%v", target.Position),
			"error", err,
			"have_last", b.st.hasJoints,
		)
		return b.st.joints, b.st.hasJoints
	}

	q := b.continuous(sol.Joints)
	b.st.joints, b.st.hasJoints = q, true
	return q, true
}

// continuous unwraps q onto the last published joint vector so no joint
// jumps across the ±180° seam. Caller holds mu.
func (b *Bridge) continuous(q kinematics.Joints) kinematics.Joints {
	if !b.st.hasJoints {
		return q
	}
	copy(q[:], filter.UnwrapAll(q[:], b.st.joints[:]))
	return q
}

// updateGripper smooths grab strength and sends the gripper value while
// its resend budget lasts. After a pose command the send is handed back
// to the caller to be delayed. Caller holds mu.
func (b *Bridge) updateGripper(ry, grab float64, afterPose bool) *command.Result {
	g := b.cfg.Gripper
	if ry >= g.LockThreshold {
		b.st.grab.Update(grab)
	}

	open := float64(g.Max)
	h := int(mapping.Clamp(math.RoundToEven((1-b.st.grab.Value())*open), 0, open))
	if !b.st.gripper.Offer(h) {
		return nil
	}

	res := b.encoder.Gripper(h)
	if afterPose && b.cfg.CommandDelay > 0 {
		return &res
	}
	b.send(ChannelGripper, res)
	return nil
}

// send publishes an encoded command. Truncated payloads are reported and
// dropped.
func (b *Bridge) send(ch Channel, res command.Result) bool {
	ev := Event{
		Kind:      EventCommand,
		Time:      b.now(),
		Channel:   ch,
		Payload:   res.Payload,
		Precision: res.Precision,
		Truncated: res.Truncated,
	}

	if res.Truncated {
		b.stats.truncated.Add(1)
		b.logger.Warn("payload exceeds ceiling, not sent",
			"channel", ch,
			"payload", res.Payload,
			"max_bytes", b.encoder.MaxBytes(),
		)
		ev.Error = "truncated"
		b.emit(ev)
		return false
	}

	if err := b.pub.Publish(ch, []byte(res.Payload)); err != nil {
		b.stats.publishErrors.Add(1)
		b.logger.Warn("publish failed", "channel", ch, "payload", res.Payload, "error", err)
		ev.Error = err.Error()
		b.emit(ev)
		return false
	}

	b.stats.published.Add(1)
	b.logger.Debug("published", "channel", ch, "payload", res.Payload, "precision", res.Precision)
	b.emit(ev)
	return true
}

func (b *Bridge) emit(ev Event) {
	for _, o := range b.observers {
		o(ev)
	}
}

// Status is a point-in-time view of the pipeline.
type Status struct {
	Running bool               `json:"running"`
	Enabled bool               `json:"enabled"`
	Paused  bool               `json:"paused"`
	Zeroed  bool               `json:"zeroed"`
	Mode    Mode               `json:"mode"`
	Target  *mapping.Target    `json:"target,omitempty"`
	Joints  *kinematics.Joints `json:"joints,omitempty"`
	Stats   Stats              `json:"stats"`
}

// Status returns a snapshot of the pipeline state.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		Running: b.running.Load(),
		Enabled: b.st.enabled,
		Paused:  b.st.paused,
		Zeroed:  b.st.cal.Zeroed(),
		Mode:    b.cfg.Mode,
		Stats:   b.stats.snapshot(),
	}
	if b.st.hasTarget {
		t := b.st.target
		s.Target = &t
	}
	if b.st.hasJoints {
		q := b.st.joints
		s.Joints = &q
	}
	return s
}

// Stats returns the pipeline counters.
func (b *Bridge) Stats() Stats {
	return b.stats.snapshot()
}
