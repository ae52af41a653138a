package hub

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	// clientBuffer bounds how far a client may lag before it is evicted.
	clientBuffer = 256
)

// Client is one websocket subscriber.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	handler Handler

	mu     sync.Mutex
	queue  chan Message
	closed bool
}

// NewClient queues the greeting messages, then registers the client with
// the hub so history and live broadcasts follow them. handler may be nil
// when clients only listen.
func NewClient(hub *Hub, conn *websocket.Conn, handler Handler, greeting ...Message) *Client {
	c := &Client{
		hub:     hub,
		conn:    conn,
		handler: handler,
		queue:   make(chan Message, clientBuffer),
	}
	for _, msg := range greeting {
		c.Send(msg)
	}

	select {
	case hub.register <- c:
	case <-hub.done:
		c.close()
	}
	return c
}

// Send queues a message for this client only. It reports false if the
// client's buffer is full or the client is gone.
func (c *Client) Send(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.queue <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
}

// Run pumps the connection until it closes.
// This should be called in the websocket handler
func (c *Client) Run() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// readLoop dispatches inbound text frames to the handler and answers
// pongs. It returns when the peer goes away.
func (c *Client) readLoop() {
	defer func() {
		c.leave()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage || c.handler == nil {
			continue
		}
		reply := c.handler(data)
		if reply != nil && !c.Send(*reply) {
			c.hub.logger.Warn("reply dropped, client buffer full")
		}
	}
}

// writeLoop is the only writer on the connection.
func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
