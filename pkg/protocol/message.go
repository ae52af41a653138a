// Package protocol defines the WebSocket message types for the telemetry
// stream between the bridge and dashboards.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Bridge → Dashboard messages
	TypeEvent  MessageType = "event"  // Pipeline event
	TypeStatus MessageType = "status" // Status snapshot

	// Dashboard → Bridge messages
	TypeCommand MessageType = "command" // Control command

	// Bidirectional
	TypePing  MessageType = "ping"  // Health check
	TypePong  MessageType = "pong"  // Health check response
	TypeError MessageType = "error" // Rejected request
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Bridge → Dashboard Message Types
// =============================================================================

// EventData mirrors one pipeline event
type EventData struct {
	Kind      string `json:"kind"`              // command, zero, reset, pause, ...
	Channel   string `json:"channel,omitempty"` // ik, joints, gripper, zero
	Payload   string `json:"payload,omitempty"` // wire text as sent
	Precision int    `json:"precision,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Time      int64  `json:"time"` // Unix milliseconds
}

// =============================================================================
// Dashboard → Bridge Message Types
// =============================================================================

// CommandData carries a control verb: zero, reset, pause, resume, stop
type CommandData struct {
	Name string `json:"name"`
}

// ErrorData explains a rejected request
type ErrorData struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
