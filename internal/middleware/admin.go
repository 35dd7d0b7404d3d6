package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "admin_token"

// IsAdmin reports whether the presented header value matches the configured
// secret. An empty secret never matches.
func IsAdmin(presented, secret string) bool {
	if presented == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}

// AdminRequired rejects requests without a valid admin_token header.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsAdmin(c.Get(AdminTokenHeader), cfg.AdminToken) {
			return c.Next()
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin token missing or incorrect",
		})
	}
}
