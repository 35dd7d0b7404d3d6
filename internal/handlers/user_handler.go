package handlers

import (
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return c.JSON(out)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(userResponse(user))
}

// Create registers a user. The response is the only place the token appears.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req validation.UserCandidate
	if err := decodeStrict(c.Body(), &req); err != nil {
		return fail(c, err)
	}

	user, token, err := h.users.Register(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateUserResponse{
		UserResponse: userResponse(user),
		Token:        token,
	})
}

func userResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Age:       u.Age,
		Gender:    u.Gender,
		CreatedAt: u.CreatedAt,
	}
}
