// Package leapws reads hand frames from the Leap Motion service over its
// local WebSocket API and hands them to the pipeline.
package leapws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-leaparm/pkg/handpose"
)

// Handler consumes decoded sensor output.
type Handler interface {
	HandleFrame(hands []handpose.HandPose)
	HandleDevice(connected bool, serial string)
}

// Config holds sensor client configuration.
type Config struct {
	// URL of the tracking service.
	URL string `yaml:"url" json:"url"`

	// Background asks the service to stream while the client is unfocused.
	Background bool `yaml:"background" json:"background"`

	HandshakeTimeout  time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval" json:"reconnect_interval"`
}

// DefaultConfig returns the local service on its standard port.
func DefaultConfig() Config {
	return Config{
		URL:               "ws://127.0.0.1:6437/v6.json",
		Background:        true,
		HandshakeTimeout:  5 * time.Second,
		ReconnectInterval: 2 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect_interval must be positive")
	}
	return nil
}

// Client streams frames from the service to a Handler.
type Client struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
	dialer  *websocket.Dialer

	frames       atomic.Int64
	decodeErrors atomic.Int64
	connects     atomic.Int64
}

// New creates a sensor client.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}, nil
}

// Run connects and reads until ctx is done, reconnecting after failures.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("tracking service connection ended, retrying",
			"url", c.cfg.URL,
			"error", err,
			"retry_in", c.cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

// session runs one connection until it fails or ctx is done.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()
	c.connects.Add(1)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if c.cfg.Background {
		if err := conn.WriteJSON(map[string]bool{"background": true}); err != nil {
			return fmt.Errorf("configure stream: %w", err)
		}
	}

	c.logger.Info("connected to tracking service", "url", c.cfg.URL)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("service closed the connection")
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	msg, err := Decode(data)
	if err != nil {
		c.decodeErrors.Add(1)
		c.logger.Debug("dropping sensor message", "error", err)
		return
	}

	switch msg.Kind {
	case KindVersion:
		c.logger.Info("tracking service", "protocol", msg.Version, "service_version", msg.ServiceVersion)
	case KindDevice:
		c.handler.HandleDevice(msg.Attached && msg.Streaming, msg.Serial)
	case KindFrame:
		c.frames.Add(1)
		c.handler.HandleFrame(msg.Hands)
	}
}

// Stats returns client statistics.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		Frames:       c.frames.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Connects:     c.connects.Load(),
	}
}

// ClientStats contains client statistics.
type ClientStats struct {
	Frames       int64 `json:"frames"`
	DecodeErrors int64 `json:"decode_errors"`
	Connects     int64 `json:"connects"`
}
