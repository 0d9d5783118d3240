package ingest

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/affectlab/gazeflow/pkg/export"
)

// handleStart begins a new recording session.
func (s *Server) handleStart(c *fiber.Ctx) error {
	sess, err := s.startSession()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sess)
}

// handleStop ends the current session and returns its final record.
func (s *Server) handleStop(c *fiber.Ctx) error {
	sess, err := s.stopSession()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sess)
}

// handleStatus returns the current collector status.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleSessions lists recorded sessions, newest first.
func (s *Server) handleSessions(c *fiber.Ctx) error {
	if s.sessions == nil {
		return c.JSON([]any{})
	}
	list, err := s.sessions.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(list)
}

// handleExport serves the reconciled CSV for the retained buffers.
// Works after stop too, since buffers survive until the next start.
func (s *Server) handleExport(c *fiber.Ctx) error {
	data, err := s.col.ExportCSV()
	if err != nil {
		if errors.Is(err, export.ErrNoData) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no samples recorded"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="session.csv"`)
	return c.Send(data)
}
