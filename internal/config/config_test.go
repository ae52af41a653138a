package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-leaparm/pkg/bridge"
	"github.com/teslashibe/go-leaparm/pkg/kinematics"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaparm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeFile(t, `
log_level: debug
bridge:
  mode: joints
  publish_fps: 20
  command_delay: 25ms
  gripper:
    max: 100
  kinematics:
    elbow: down
bus:
  broker: tcp://arm.local:1883
  prefix: servo/arm1
leap:
  background: false
web:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, bridge.ModeJoints, cfg.Bridge.Mode)
	assert.Equal(t, 20.0, cfg.Bridge.PublishFPS)
	assert.Equal(t, 25*time.Millisecond, cfg.Bridge.CommandDelay)
	assert.Equal(t, 100, cfg.Bridge.Gripper.Max)
	assert.Equal(t, kinematics.ElbowDown, cfg.Bridge.Kinematics.Elbow)
	assert.Equal(t, "tcp://arm.local:1883", cfg.Bus.Broker)
	assert.Equal(t, "servo/arm1", cfg.Bus.Prefix)
	assert.False(t, cfg.Leap.Background)
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.Addr)

	// untouched keys keep their defaults
	def := Default()
	assert.Equal(t, def.Bridge.Gripper.ResendCount, cfg.Bridge.Gripper.ResendCount)
	assert.Equal(t, def.Bridge.Mapping, cfg.Bridge.Mapping)
	assert.Equal(t, def.Bus.KeepAlive, cfg.Bus.KeepAlive)
	assert.Equal(t, def.Leap.URL, cfg.Leap.URL)
	assert.True(t, cfg.Web.Enabled)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvBroker, "tcp://10.0.0.5:1883")
	t.Setenv(EnvLeapURL, "ws://10.0.0.6:6437/v6.json")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvSerialPort, "/dev/ttyUSB0")

	cfg, err := Load(writeFile(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.5:1883", cfg.Bus.Broker)
	assert.Equal(t, "ws://10.0.0.6:6437/v6.json", cfg.Leap.URL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Serial.Enabled)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "bridge: [\n"},
		{"unknown key", "bridge:\n  moed: ik\n"},
		{"bad mode", "bridge:\n  mode: cartesian\n"},
		{"bad qos", "bus:\n  qos: 3\n"},
		{"serial without path", "serial:\n  enabled: true\n"},
		{"web without addr", "web:\n  addr: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
