package hub

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// DefaultQueueSize is the broadcast queue length.
const DefaultQueueSize = 256

// Option configures a Hub.
type Option func(*Hub)

// WithHistory keeps the last n broadcasts and replays them to every new
// client after its greeting.
func WithHistory(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historySize = n
		}
	}
}

// Hub fans telemetry out to websocket clients. All client bookkeeping
// happens on the Run goroutine.
type Hub struct {
	name   string
	logger *slog.Logger

	clients map[*Client]struct{}
	count   atomic.Int32

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	// Owned by Run
	history     []Message
	historySize int

	delivered atomic.Int64
	dropped   atomic.Int64
	evicted   atomic.Int64

	// Closed when Run returns
	done chan struct{}
}

// New creates a new Hub
func New(name string, logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, DefaultQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations and broadcasts until ctx is cancelled.
// This should be called in a goroutine
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.Info("client disconnected", "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			h.record(msg)
			for client := range h.clients {
				if client.Send(msg) {
					h.delivered.Add(1)
					continue
				}
				// too slow to keep up
				h.evicted.Add(1)
				h.remove(client)
				h.logger.Warn("dropped slow client", "clients", len(h.clients))
			}
		}
	}
}

func (h *Hub) add(client *Client) {
	for _, msg := range h.history {
		if !client.Send(msg) {
			break
		}
	}
	h.clients[client] = struct{}{}
	h.count.Store(int32(len(h.clients)))
	h.logger.Info("client connected", "clients", len(h.clients), "replayed", len(h.history))
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	client.close()
	h.count.Store(int32(len(h.clients)))
}

func (h *Hub) record(msg Message) {
	if h.historySize == 0 {
		return
	}
	if len(h.history) == h.historySize {
		copy(h.history, h.history[1:])
		h.history = h.history[:len(h.history)-1]
	}
	h.history = append(h.history, msg)
}

// Broadcast queues a message for every client. It never blocks; when the
// queue is full the message is counted as dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Debug("broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped returns how many broadcasts were lost to a full queue
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Stats returns hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients:   h.ClientCount(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
		Evicted:   h.evicted.Load(),
	}
}

// Stats contains hub counters.
type Stats struct {
	Clients   int   `json:"clients"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Evicted   int64 `json:"evicted"`
}

