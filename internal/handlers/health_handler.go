package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/search"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	index search.Index
}

func NewHealthHandler(db *gorm.DB, index search.Index) *HealthHandler {
	return &HealthHandler{db: db, index: index}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Search:    "ok",
	}

	if err := database.Ping(c.UserContext(), h.db); err != nil {
		resp.DB = "unhealthy: " + err.Error()
		resp.Status = "degraded"
	}
	if err := h.index.Ping(c.UserContext()); err != nil {
		resp.Search = "unhealthy: " + err.Error()
		resp.Status = "degraded"
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
