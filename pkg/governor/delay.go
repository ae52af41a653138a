package governor

import "time"

// Delayer runs fn after d. Implementations decide whether the caller waits.
type Delayer interface {
	After(d time.Duration, fn func())
}

// Blocking sleeps on the calling goroutine, then runs fn. The caller is
// held for at most d.
type Blocking struct {
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// After implements Delayer.
func (b Blocking) After(d time.Duration, fn func()) {
	if d > 0 {
		sleep := b.Sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(d)
	}
	fn()
}

// Timer schedules fn on its own goroutine and returns immediately.
type Timer struct{}

// After implements Delayer.
func (Timer) After(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	time.AfterFunc(d, fn)
}

// New returns the Delayer for a mode name: "blocking" (default) or "timer".
func New(mode string) Delayer {
	if mode == "timer" {
		return Timer{}
	}
	return Blocking{}
}
