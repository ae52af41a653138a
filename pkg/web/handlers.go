package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-leaparm/pkg/hub"
	"github.com/teslashibe/go-leaparm/pkg/protocol"
)

// handleStatus returns the pipeline status snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

// handleConfig returns the active configuration
func (s *Server) handleConfig(c *fiber.Ctx) error {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	if s.config == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "config not available",
		})
	}
	return c.JSON(s.config)
}

// handleBus returns transport statistics
func (s *Server) handleBus(c *fiber.Ctx) error {
	if s.BusStats == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "bus not configured",
		})
	}
	return c.JSON(s.BusStats())
}

// handleTelemetryStats returns hub counters
func (s *Server) handleTelemetryStats(c *fiber.Ctx) error {
	return c.JSON(s.telemetry.Stats())
}

// handleCommand runs a control command
func (s *Server) handleCommand(c *fiber.Ctx) error {
	name := c.Params("name")

	if err := s.ctrl.HandleCommand(name); err != nil {
		return c.Status(commandStatus(err)).JSON(fiber.Map{
			"command": name,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"command": name,
		"status":  s.ctrl.Status(),
	})
}

// handleTelemetryWS sends a status snapshot and the recent event history,
// then streams events and accepts commands
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	var greeting []hub.Message
	if msg := encode(protocol.NewStatusMessage(s.ctrl.Status())); msg != nil {
		greeting = append(greeting, *msg)
	}

	hub.NewClient(s.telemetry, c, s.handleInbound, greeting...).Run()
}

// handleInbound answers one message from a telemetry client
func (s *Server) handleInbound(data []byte) *hub.Message {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return encode(protocol.NewErrorMessage("", err))
	}

	switch msg.Type {
	case protocol.TypeCommand:
		cmd, err := msg.GetCommandData()
		if err != nil {
			return encode(protocol.NewErrorMessage(string(msg.Type), err))
		}
		if err := s.ctrl.HandleCommand(cmd.Name); err != nil {
			return encode(protocol.NewErrorMessage(cmd.Name, err))
		}
		return encode(protocol.NewStatusMessage(s.ctrl.Status()))

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return encode(protocol.NewErrorMessage(string(msg.Type), err))
		}
		return encode(protocol.NewPongMessage(*ping))

	default:
		return encode(protocol.NewErrorMessage(string(msg.Type), errUnsupported))
	}
}
