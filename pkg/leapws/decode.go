package leapws

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-leaparm/pkg/handpose"
)

// Kind classifies a decoded service message.
type Kind int

const (
	KindFrame Kind = iota
	KindDevice
	KindVersion
)

// Message is one decoded service message. Only the fields for its Kind are
// set.
type Message struct {
	Kind Kind

	// KindFrame
	FrameID   int64
	Timestamp int64 // microseconds, service clock
	Hands     []handpose.HandPose

	// KindDevice
	Attached  bool
	Streaming bool
	Serial    string

	// KindVersion
	Version        int
	ServiceVersion string
}

type wireMessage struct {
	ID             int64      `json:"id"`
	Timestamp      int64      `json:"timestamp"`
	Hands          []wireHand `json:"hands"`
	Event          *wireEvent `json:"event"`
	Version        int        `json:"version"`
	ServiceVersion string     `json:"serviceVersion"`
}

type wireHand struct {
	ID           int64       `json:"id"`
	Type         string      `json:"type"`
	PalmPosition *[3]float64 `json:"palmPosition"`
	PalmNormal   *[3]float64 `json:"palmNormal"`
	Direction    *[3]float64 `json:"direction"`
	GrabStrength float64     `json:"grabStrength"`
}

type wireEvent struct {
	Type  string `json:"type"`
	State struct {
		Attached  bool   `json:"attached"`
		Streaming bool   `json:"streaming"`
		ID        string `json:"id"`
	} `json:"state"`
}

// Decode parses one text message from the tracking service.
func Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("failed to parse message: %w", err)
	}

	switch {
	case w.Event != nil:
		if w.Event.Type != "deviceEvent" {
			return Message{}, fmt.Errorf("unsupported event type %q", w.Event.Type)
		}
		return Message{
			Kind:      KindDevice,
			Attached:  w.Event.State.Attached,
			Streaming: w.Event.State.Streaming,
			Serial:    w.Event.State.ID,
		}, nil

	case w.Version != 0 && w.ID == 0 && w.Hands == nil:
		return Message{Kind: KindVersion, Version: w.Version, ServiceVersion: w.ServiceVersion}, nil
	}

	msg := Message{Kind: KindFrame, FrameID: w.ID, Timestamp: w.Timestamp}
	for i, h := range w.Hands {
		pose, err := h.pose()
		if err != nil {
			return Message{}, fmt.Errorf("frame %d hand %d: %w", w.ID, i, err)
		}
		msg.Hands = append(msg.Hands, pose)
	}
	return msg, nil
}

func (h wireHand) pose() (handpose.HandPose, error) {
	if h.PalmPosition == nil || h.PalmNormal == nil || h.Direction == nil {
		return handpose.HandPose{}, fmt.Errorf("%w: missing palm vectors", handpose.ErrInvalidPose)
	}

	var side handpose.Side
	switch h.Type {
	case "right":
		side = handpose.Right
	case "left":
		side = handpose.Left
	default:
		return handpose.HandPose{}, fmt.Errorf("%w: hand type %q", handpose.ErrInvalidPose, h.Type)
	}

	normal, dir := vec(*h.PalmNormal), vec(*h.Direction)
	if normal.Cross(dir).Norm() < 1e-6*normal.Norm()*dir.Norm() || normal.Norm() == 0 || dir.Norm() == 0 {
		return handpose.HandPose{}, fmt.Errorf("%w: degenerate palm basis", handpose.ErrInvalidPose)
	}

	return handpose.HandPose{
		Position:    vec(*h.PalmPosition),
		Orientation: handpose.FromBasis(normal, dir),
		Grab:        h.GrabStrength,
		Side:        side,
	}, nil
}

func vec(v [3]float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
