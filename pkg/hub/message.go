// Package hub fans pre-encoded telemetry out to websocket subscribers and
// routes their inbound frames to a handler.
package hub

// Message is a pre-encoded JSON text frame.
type Message struct {
	Data []byte
}

// Handler receives a text frame read from a client. The returned message,
// if any, is sent back to that client only.
type Handler func(data []byte) *Message
