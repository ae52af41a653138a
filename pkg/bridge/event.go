package bridge

import "time"

// EventKind classifies an Event.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventZero    EventKind = "zero"
	EventReset   EventKind = "reset"
	EventPause   EventKind = "pause"
	EventResume  EventKind = "resume"
	EventStop    EventKind = "stop"
	EventDevice  EventKind = "device"
)

// Event reports something the pipeline did.
type Event struct {
	Kind      EventKind `json:"kind"`
	Time      time.Time `json:"time"`
	Channel   Channel   `json:"channel,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Precision int       `json:"precision,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
	Error     string    `json:"error,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Observer receives events. It is called with the pipeline lock held and
// must not block or call back into the Bridge.
type Observer func(Event)
