package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "event message",
			msgType: TypeEvent,
			data:    EventData{Kind: "command", Channel: "ik", Payload: "IK 150 0 150 0.00 3.14 0.00"},
			wantErr: false,
		},
		{
			name:    "command message",
			msgType: TypeCommand,
			data:    CommandData{Name: "zero"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unencodable data",
			msgType: TypeStatus,
			data:    map[string]interface{}{"bad": make(chan int)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestEventMessageRoundTrip(t *testing.T) {
	original := EventData{
		Kind:      "command",
		Channel:   "ik",
		Payload:   "IK -300 -300 -300 -3.1 -3.1 -3.1",
		Precision: 1,
		Time:      time.Now().UnixMilli(),
	}

	msg, err := NewEventMessage(original)
	if err != nil {
		t.Fatalf("NewEventMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeEvent {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeEvent)
	}

	ev, err := parsed.GetEventData()
	if err != nil {
		t.Fatalf("GetEventData() error = %v", err)
	}
	if *ev != original {
		t.Errorf("GetEventData() = %+v, want %+v", *ev, original)
	}

	if _, err := parsed.GetCommandData(); err == nil {
		t.Error("GetCommandData() on an event should fail")
	}
}

func TestCommandMessage(t *testing.T) {
	msg, err := NewCommandMessage("pause")
	if err != nil {
		t.Fatalf("NewCommandMessage() error = %v", err)
	}

	cmd, err := msg.GetCommandData()
	if err != nil {
		t.Fatalf("GetCommandData() error = %v", err)
	}
	if cmd.Name != "pause" {
		t.Errorf("Name = %v, want pause", cmd.Name)
	}
}

func TestStatusMessage(t *testing.T) {
	status := map[string]interface{}{"zeroed": true, "mode": "ik"}
	msg, err := NewStatusMessage(status)
	if err != nil {
		t.Fatalf("NewStatusMessage() error = %v", err)
	}

	var got map[string]interface{}
	if err := msg.ParseData(&got); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if got["zeroed"] != true || got["mode"] != "ik" {
		t.Errorf("ParseData() = %v", got)
	}
}

func TestErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage("jump", errors.New("unknown command"))
	if err != nil {
		t.Fatalf("NewErrorMessage() error = %v", err)
	}

	var data ErrorData
	if err := msg.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.Request != "jump" || data.Message != "unknown command" {
		t.Errorf("ErrorData = %+v", data)
	}
}

func TestPingPong(t *testing.T) {
	ping, err := NewPingMessage()
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	pingData, err := ping.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID == "" {
		t.Error("ping ID should be set")
	}

	pong, err := NewPongMessage(*pingData)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	if pong.Type != TypePong {
		t.Errorf("Type = %v, want %v", pong.Type, TypePong)
	}

	var pongData PongData
	if err := pong.ParseData(&pongData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pongData.ID != pingData.ID {
		t.Errorf("pong ID = %v, want %v", pongData.ID, pingData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, want >= 0", pongData.LatencyMs)
	}
}

func TestParseMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", "{not json"},
		{"missing type", `{"data":{"name":"zero"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMessage([]byte(tt.data)); err == nil {
				t.Error("ParseMessage() expected error")
			}
		})
	}
}

func TestParseDataNil(t *testing.T) {
	msg := &Message{Type: TypePing}
	var data PingData
	if err := msg.ParseData(&data); err != nil {
		t.Errorf("ParseData() with nil data error = %v", err)
	}
}

func TestMessageJSONFormat(t *testing.T) {
	msg, _ := NewCommandMessage("zero")
	bytes, _ := msg.Bytes()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes, &raw); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	for _, key := range []string{"type", "ts", "data"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("encoded message missing %q", key)
		}
	}
}
