package protocol

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewEventMessage creates an event message
func NewEventMessage(ev EventData) (*Message, error) {
	return NewMessage(TypeEvent, ev)
}

// NewStatusMessage creates a status message from any JSON-encodable snapshot
func NewStatusMessage(status interface{}) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewCommandMessage creates a control command message
func NewCommandMessage(name string) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{Name: name})
}

// NewErrorMessage creates an error reply
func NewErrorMessage(request string, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Request: request, Message: err.Error()})
}

// NewPingMessage creates a ping message with a fresh ID
func NewPingMessage() (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response for a ping
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}

// =============================================================================
// Helper functions for parsing message data
// =============================================================================

// GetEventData extracts EventData from an event message
func (m *Message) GetEventData() (*EventData, error) {
	if m.Type != TypeEvent {
		return nil, fmt.Errorf("expected event message, got %s", m.Type)
	}
	var data EventData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCommandData extracts CommandData from a command message
func (m *Message) GetCommandData() (*CommandData, error) {
	if m.Type != TypeCommand {
		return nil, fmt.Errorf("expected command message, got %s", m.Type)
	}
	var data CommandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts PingData from a ping message
func (m *Message) GetPingData() (*PingData, error) {
	if m.Type != TypePing {
		return nil, fmt.Errorf("expected ping message, got %s", m.Type)
	}
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
