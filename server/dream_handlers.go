package server

import (
	"time"

	"somnia/middleware"
	"somnia/models"

	"github.com/gofiber/fiber/v2"
)

// InterpretDream handles POST /api/interpret-dream. The response envelope
// uses a success flag rather than the status string, matching what the
// frontend expects from this endpoint.
func (s *Server) InterpretDream(c *fiber.Ctx) error {
	var req models.InterpretDreamRequest
	if err := parseBody(c, &req); err != nil || req.Dream == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "The dream text is missing",
		})
	}
	if err := models.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "The dream text is too long",
		})
	}

	interpretation, err := s.interpreter.Interpret(c.Context(), req.Dream)
	if err != nil {
		middleware.Logger.Error("dream interpretation failed", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to interpret the dream",
		})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"interpretation": interpretation,
		"interactionId":  time.Now().UnixMilli(),
	})
}
