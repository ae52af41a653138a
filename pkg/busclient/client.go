package busclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/teslashibe/go-leaparm/pkg/bridge"
)

// ErrNotConnected is returned when publishing without a live session.
var ErrNotConnected = errors.New("not connected")

// disconnectQuiesce is how long Close lets in-flight work drain, in ms.
const disconnectQuiesce = 250

// Client provides a high-level interface to the MQTT broker for the arm.
type Client struct {
	cfg    Config
	logger *slog.Logger
	topics *Topics
	dial   func(*mqtt.ClientOptions) mqtt.Client

	mu     sync.RWMutex
	conn   mqtt.Client
	closed bool

	// Handlers by topic, restored on every (re)connect
	subs map[string]func(data []byte)

	// Stats
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	reconnectCount   atomic.Int64
	connectionLost   atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces mqtt.NewClient, for tests.
func WithDialer(dial func(*mqtt.ClientOptions) mqtt.Client) Option {
	return func(c *Client) {
		c.dial = dial
	}
}

// New creates a new bus client.
// Call Connect() to establish the session.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ClientID == "" {
		cfg.ClientID = "leaparm-" + uuid.NewString()[:8]
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		topics: NewTopics(cfg.Prefix),
		dial:   mqtt.NewClient,
		subs:   make(map[string]func([]byte)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.Broker).
		SetClientID(c.cfg.ClientID).
		SetKeepAlive(c.cfg.KeepAlive).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(c.cfg.ReconnectInterval).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}
	return opts
}

// Connect establishes the broker session.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	closed, connected := c.closed, c.conn != nil
	c.mu.RUnlock()

	if closed {
		return io.ErrClosedPipe
	}
	if connected {
		return nil // Already connected
	}

	c.logger.Info("connecting to MQTT broker",
		"broker", c.cfg.Broker,
		"client_id", c.cfg.ClientID,
	)

	conn := c.dial(c.options())
	token := conn.Connect()

	select {
	case <-ctx.Done():
		conn.Disconnect(0)
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.Broker, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Disconnect(0)
		return io.ErrClosedPipe
	}
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("connected to MQTT broker", "broker", c.cfg.Broker, "prefix", c.cfg.Prefix)
	return nil
}

// ConnectWithRetry connects with automatic retry on failure.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := c.Connect(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, io.ErrClosedPipe) || ctx.Err() != nil {
			return err
		}

		attempts++
		c.reconnectCount.Add(1)

		if c.cfg.MaxReconnectAttempts > 0 && attempts >= c.cfg.MaxReconnectAttempts {
			return fmt.Errorf("max reconnect attempts (%d) reached: %w", c.cfg.MaxReconnectAttempts, err)
		}

		c.logger.Warn("MQTT connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", c.cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

// onConnect restores subscriptions. The broker forgets them on a clean
// session, so this runs after every reconnect as well.
func (c *Client) onConnect(conn mqtt.Client) {
	c.mu.RLock()
	subs := make(map[string]func([]byte), len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.RUnlock()

	for topic, h := range subs {
		if err := c.subscribe(conn, topic, h); err != nil {
			c.logger.Warn("resubscribe failed", "topic", topic, "error", err)
		}
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connectionLost.Add(1)
	c.logger.Warn("MQTT connection lost, reconnecting", "error", err)
}

// Topics returns the topics helper.
func (c *Client) Topics() *Topics {
	return c.topics
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed && c.conn.IsConnected()
}

// Publish sends data to a topic without waiting for delivery.
func (c *Client) Publish(topic string, data []byte) error {
	c.mu.RLock()
	conn, closed := c.conn, c.closed
	c.mu.RUnlock()

	if closed {
		return io.ErrClosedPipe
	}
	if conn == nil || !conn.IsConnected() {
		return fmt.Errorf("publish to %s: %w", topic, ErrNotConnected)
	}

	conn.Publish(topic, c.cfg.QoS, false, data)
	c.messagesSent.Add(1)
	return nil
}

// Publisher adapts the client to a pipeline channel publisher.
func (c *Client) Publisher() bridge.Publisher {
	return bridge.PublisherFunc(func(ch bridge.Channel, payload []byte) error {
		topic, err := c.topics.ForChannel(ch)
		if err != nil {
			return err
		}
		return c.Publish(topic, payload)
	})
}

// Subscribe subscribes to a topic and calls the handler for each message.
// The subscription is kept across reconnects.
func (c *Client) Subscribe(topic string, handler func(data []byte)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return io.ErrClosedPipe
	}
	c.subs[topic] = handler
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		// Subscribed by onConnect once the session is up
		return nil
	}
	return c.subscribe(conn, topic, handler)
}

func (c *Client) subscribe(conn mqtt.Client, topic string, handler func([]byte)) error {
	token := conn.Subscribe(topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		c.messagesReceived.Add(1)
		handler(msg.Payload())
	})

	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("subscribe to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	c.logger.Debug("subscribed to topic", "topic", topic)
	return nil
}

// Close disconnects from the broker and releases resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.subs = nil

	if c.conn != nil {
		c.conn.Disconnect(disconnectQuiesce)
		c.conn = nil
	}

	c.logger.Info("MQTT client closed")
	return nil
}

// Stats returns client statistics.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		Connected:        c.IsConnected(),
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
		ReconnectCount:   c.reconnectCount.Load(),
		ConnectionLost:   c.connectionLost.Load(),
	}
}

// ClientStats contains client statistics.
type ClientStats struct {
	Connected        bool  `json:"connected"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	ReconnectCount   int64 `json:"reconnect_count"`
	ConnectionLost   int64 `json:"connection_lost"`
}
