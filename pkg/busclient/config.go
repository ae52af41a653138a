// Package busclient provides a high-level wrapper around an MQTT broker
// connection for the arm command topics.
//
// This package handles:
//   - Session management with automatic reconnection
//   - Fire-and-forget command publishing
//   - Control topic subscription, restored after reconnects
package busclient

import (
	"fmt"
	"time"
)

// Config holds bus client configuration.
type Config struct {
	// Broker is the MQTT broker URL.
	// Examples: "tcp://localhost:1883", "ws://192.168.1.20:9001"
	Broker string `yaml:"broker" json:"broker"`

	// ClientID identifies this session to the broker. Empty generates one.
	ClientID string `yaml:"client_id" json:"client_id"`

	// Prefix is the topic prefix for all arm topics.
	// Default: "servo/arm2"
	Prefix string `yaml:"prefix" json:"prefix"`

	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`

	// QoS is the delivery level for publishes and subscriptions (0-2).
	QoS byte `yaml:"qos" json:"qos"`

	KeepAlive      time.Duration `yaml:"keep_alive" json:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`

	// ReconnectInterval is how often to attempt reconnection on failure.
	ReconnectInterval time.Duration `yaml:"reconnect_interval" json:"reconnect_interval"`

	// MaxReconnectAttempts is the maximum number of connection attempts.
	// 0 means unlimited.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Broker:               "tcp://localhost:1883",
		Prefix:               "servo/arm2",
		QoS:                  0,
		KeepAlive:            30 * time.Second,
		ConnectTimeout:       5 * time.Second,
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 0, // Unlimited
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", c.QoS)
	}
	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect_interval must be positive")
	}
	return nil
}
