package bridge

import (
	"time"

	"github.com/teslashibe/go-leaparm/pkg/governor"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithClock replaces time.Now for rate gating and event stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

// WithDelayer overrides the delayer selected by Config.DelayMode.
func WithDelayer(d governor.Delayer) Option {
	return func(b *Bridge) {
		b.delay = d
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(b *Bridge) {
		b.observers = append(b.observers, o)
	}
}
