package handlers

import (
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PunchcardHandler struct {
	punchcards *services.PunchcardService
}

func NewPunchcardHandler(punchcards *services.PunchcardService) *PunchcardHandler {
	return &PunchcardHandler{punchcards: punchcards}
}

// Create punches the card of the token holder: POST /punchcards/:company_id
func (h *PunchcardHandler) Create(c *fiber.Ctx) error {
	punch, err := h.punchcards.Punch(c.UserContext(), c.Params("company_id"), middleware.UserToken(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PunchResponse{PunchID: punch.ID})
}
