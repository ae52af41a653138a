package busclient

import (
	"fmt"

	"github.com/teslashibe/go-leaparm/pkg/bridge"
)

// Topic names under the configured prefix (default: "servo/arm2").

// TopicControl is the remote control topic.
// Subscribes: zero | reset | pause | resume | stop
const TopicControl = "cmd"

// TopicIK is the Cartesian pose topic.
// Publishes: "IK x y z rx ry rz"
const TopicIK = "ik"

// TopicJoints is the joint command topic.
// Publishes: "jm a0 a1 a2 a3 a4 a5"
const TopicJoints = "servo"

// TopicGripper is the gripper topic.
// Publishes: "clm v"
const TopicGripper = "clm"

// TopicZero is the zero broadcast topic.
// Publishes: JSON with the new origin
const TopicZero = "zero"

// Topics is a helper to build fully-qualified topic names.
type Topics struct {
	prefix string
}

// NewTopics creates a Topics helper with the given prefix.
func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

// Control returns the full control topic path.
func (t *Topics) Control() string {
	return fmt.Sprintf("%s/%s", t.prefix, TopicControl)
}

// IK returns the full IK topic path.
func (t *Topics) IK() string {
	return fmt.Sprintf("%s/%s", t.prefix, TopicIK)
}

// Joints returns the full joint command topic path.
func (t *Topics) Joints() string {
	return fmt.Sprintf("%s/%s", t.prefix, TopicJoints)
}

// Gripper returns the full gripper topic path.
func (t *Topics) Gripper() string {
	return fmt.Sprintf("%s/%s", t.prefix, TopicGripper)
}

// Zero returns the full zero broadcast topic path.
func (t *Topics) Zero() string {
	return fmt.Sprintf("%s/%s", t.prefix, TopicZero)
}

// ForChannel maps a pipeline output channel to its topic.
func (t *Topics) ForChannel(ch bridge.Channel) (string, error) {
	switch ch {
	case bridge.ChannelIK:
		return t.IK(), nil
	case bridge.ChannelJoints:
		return t.Joints(), nil
	case bridge.ChannelGripper:
		return t.Gripper(), nil
	case bridge.ChannelZero:
		return t.Zero(), nil
	}
	return "", fmt.Errorf("no topic for channel %q", ch)
}
