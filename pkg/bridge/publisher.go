package bridge

import (
	"errors"
	"sync"
)

// Channel is a logical output channel. Transports map channels to topics.
type Channel string

const (
	// ChannelIK carries "IK x y z rx ry rz" pose commands.
	ChannelIK Channel = "ik"

	// ChannelJoints carries "jm a0 .. a5" joint commands.
	ChannelJoints Channel = "joints"

	// ChannelGripper carries "clm v" gripper commands.
	ChannelGripper Channel = "gripper"

	// ChannelZero carries the zero broadcast notification.
	ChannelZero Channel = "zero"
)

// Publisher sends a payload on a channel. Implementations must be safe for
// concurrent use and must not block on delivery.
type Publisher interface {
	Publish(ch Channel, payload []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ch Channel, payload []byte) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ch Channel, payload []byte) error {
	return f(ch, payload)
}

// Tee publishes to every publisher and joins their errors.
type Tee []Publisher

// Publish implements Publisher.
func (t Tee) Publish(ch Channel, payload []byte) error {
	var errs []error
	for _, p := range t {
		if err := p.Publish(ch, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message is one recorded publish.
type Message struct {
	Channel Channel
	Payload string
}

// Recorder is a Publisher that keeps every message in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

// Publish implements Publisher.
func (r *Recorder) Publish(ch Channel, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, Message{Channel: ch, Payload: string(payload)})
	return nil
}

// FailWith makes subsequent publishes return err. Nil restores success.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// On returns the payloads recorded on ch.
func (r *Recorder) On(ch Channel) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Channel == ch {
			out = append(out, m.Payload)
		}
	}
	return out
}

// Reset discards recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
