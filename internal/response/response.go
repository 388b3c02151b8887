package response

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
)

// Body is the envelope every endpoint responds with.
type Body struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func OK(c *fiber.Ctx, data any) error {
	return c.JSON(Body{Success: true, Data: data})
}

func OKMessage(c *fiber.Ctx, msg string, data any) error {
	return c.JSON(Body{Success: true, Message: msg, Data: data})
}

func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Body{Success: true, Data: data})
}

// Err maps a domain *apperr.Error to its status; everything else is an
// infrastructure failure and is reported as a plain 500 without translation.
func Err(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok {
		return c.Status(e.Status).JSON(Body{Success: false, Message: e.Message, Errors: e.Fields})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(Body{Success: false, Message: "internal server error"})
}
