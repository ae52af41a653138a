// Package web serves the bridge control API and the live telemetry stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-leaparm/pkg/bridge"
	"github.com/teslashibe/go-leaparm/pkg/hub"
	"github.com/teslashibe/go-leaparm/pkg/protocol"
)

// telemetryHistory is how many recent events a new subscriber receives.
const telemetryHistory = 32

var errUnsupported = errors.New("unsupported message type")

// Controller is the part of the bridge the server drives.
type Controller interface {
	HandleCommand(cmd string) error
	Status() bridge.Status
}

var _ Controller = (*bridge.Bridge)(nil)

// Server is the control and telemetry server
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
	ctrl   Controller

	// Hub for websocket broadcast
	telemetry *hub.Hub

	// Config snapshot for /api/config
	config   interface{}
	configMu sync.RWMutex

	// BusStats reports transport counters for /api/bus, if set
	BusStats func() interface{}
}

// NewServer creates a new server bound to addr, e.g. ":8090"
func NewServer(addr string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      addr,
		logger:    logger,
		ctrl:      ctrl,
		telemetry: hub.New("telemetry", logger, hub.WithHistory(telemetryHistory)),
	}

	app := fiber.New(fiber.Config{
		AppName:               "leaparm",
		DisableStartupMessage: true,
	})

	// CORS for local dashboards
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)
	api.Get("/bus", s.handleBus)
	api.Get("/telemetry", s.handleTelemetryStats)
	api.Post("/command/:name", s.handleCommand)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))

	s.app = app
	return s
}

// SetConfig sets the value served by /api/config
func (s *Server) SetConfig(cfg interface{}) {
	s.configMu.Lock()
	s.config = cfg
	s.configMu.Unlock()
}

// Start runs the hub and listens on the configured address until the
// server is shut down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hub and serves on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("web server listening", "addr", ln.Addr().String())
	go s.telemetry.Run(ctx)
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Warn("web server error", "error", err)
		}
	}()
}

// Observe broadcasts a pipeline event to telemetry clients. It never
// blocks, so it can be registered as a bridge observer.
func (s *Server) Observe(ev bridge.Event) {
	msg, err := protocol.NewEventMessage(protocol.EventData{
		Kind:      string(ev.Kind),
		Channel:   string(ev.Channel),
		Payload:   ev.Payload,
		Precision: ev.Precision,
		Truncated: ev.Truncated,
		Error:     ev.Error,
		Detail:    ev.Detail,
		Time:      ev.Time.UnixMilli(),
	})
	if err != nil {
		return
	}
	s.broadcast(msg)
}

func (s *Server) broadcast(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("failed to encode telemetry", "type", msg.Type, "error", err)
		return
	}
	s.telemetry.Broadcast(hub.Message{Data: data})
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// commandStatus maps a control error to an HTTP status code.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, bridge.ErrUnknownCommand):
		return fiber.StatusBadRequest
	case errors.Is(err, bridge.ErrNoPose):
		return fiber.StatusConflict
	case errors.Is(err, bridge.ErrStopped):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func encode(msg *protocol.Message, err error) *hub.Message {
	if err != nil {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return &hub.Message{Data: data}
}
