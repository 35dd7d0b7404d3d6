package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// fail translates a service error into exactly one HTTP response.
func fail(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{
			Error: true, Message: verr.Error(), Fields: verr.Fields,
		})
	case errors.Is(err, services.ErrCompanyNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrTitleTaken),
		errors.Is(err, services.ErrPunchcardExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrMissingUserToken),
		errors.Is(err, services.ErrInvalidUserToken):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	slog.Error("request failed",
		"request_id", requestID(c),
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error(),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: err.Error(),
	})
}

// decodeStrict decodes a JSON object body into dst. Unknown fields, trailing
// data and malformed JSON are validation failures.
func decodeStrict(body []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.NewError("body", "request body is empty")
		}
		return validation.NewError("body", err.Error())
	}
	if dec.More() {
		return validation.NewError("body", "request body has trailing data")
	}
	return nil
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
