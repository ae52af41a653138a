// Package config loads the go-leaparm service configuration: a YAML file
// layered over package defaults, then environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-leaparm/pkg/bridge"
	"github.com/teslashibe/go-leaparm/pkg/busclient"
	"github.com/teslashibe/go-leaparm/pkg/leapws"
	"github.com/teslashibe/go-leaparm/pkg/serialout"
)

// Environment overrides.
const (
	EnvBroker     = "MQTT_BROKER"
	EnvLeapURL    = "LEAP_URL"
	EnvLogLevel   = "LOG_LEVEL"
	EnvSerialPort = "SERIAL_PORT"
)

// Serial enables direct serial output next to the bus.
type Serial struct {
	Enabled bool                  `yaml:"enabled" json:"enabled"`
	Port    serialout.PortOptions `yaml:"port" json:"port"`
}

// Web configures the status and telemetry server.
type Web struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// Config is the full service configuration.
type Config struct {
	LogLevel string `yaml:"log_level" json:"log_level"`

	Bridge bridge.Config    `yaml:"bridge" json:"bridge"`
	Bus    busclient.Config `yaml:"bus" json:"bus"`
	Leap   leapws.Config    `yaml:"leap" json:"leap"`
	Serial Serial           `yaml:"serial" json:"serial"`
	Web    Web              `yaml:"web" json:"web"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Bridge:   bridge.DefaultConfig(),
		Bus:      busclient.DefaultConfig(),
		Leap:     leapws.DefaultConfig(),
		Web:      Web{Enabled: true, Addr: ":8090"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBroker); ok && v != "" {
		c.Bus.Broker = v
	}
	if v, ok := lookup(EnvLeapURL); ok && v != "" {
		c.Leap.URL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvSerialPort); ok && v != "" {
		c.Serial.Enabled = true
		c.Serial.Port.Path = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Bridge.Validate(); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	if err := c.Bus.Validate(); err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	if err := c.Leap.Validate(); err != nil {
		return fmt.Errorf("leap: %w", err)
	}
	if c.Serial.Enabled {
		if _, err := c.Serial.Port.Normalize(); err != nil {
			return fmt.Errorf("serial: %w", err)
		}
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		return fmt.Errorf("web: addr is required")
	}
	return nil
}
