package middleware

import (
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// RequireJSON rejects request bodies that are not declared as JSON.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !c.Is("json") {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{
				Error: true, Message: "Content-Type must be application/json",
			})
		}
		return c.Next()
	}
}
