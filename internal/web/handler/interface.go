package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrNilDependency is returned by Init when a required dependency is missing.
var ErrNilDependency = errors.New(ErrNilFatalLogMsg)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error  string          `json:"error"`
	Fields []ErrorResponse `json:"fields,omitempty"`
}

// Error writes an error response.
func Error(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorBody{Error: msg})
}

// Invalid writes a 400 response listing the failed fields.
func Invalid(c *fiber.Ctx, fields []ErrorResponse) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorBody{Error: "invalid request", Fields: fields})
}
