package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error is a domain error that carries the HTTP status it should surface
// with. Anything that is not an *Error is treated as an infrastructure
// failure and reported as a generic internal error.
type Error struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(msg string) *Error {
	return &Error{Status: fiber.StatusNotFound, Code: "NOT_FOUND", Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: fiber.StatusForbidden, Code: "FORBIDDEN", Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: fiber.StatusConflict, Code: "CONFLICT", Message: msg}
}

func InsufficientStock(msg string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Code: "INSUFFICIENT_STOCK", Message: msg}
}

func InvalidSignature(msg string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Code: "INVALID_SIGNATURE", Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Code: "BAD_REQUEST", Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: fiber.StatusUnauthorized, Code: "UNAUTHORIZED", Message: msg}
}

// Locked is returned when an account is temporarily locked after repeated
// failed login attempts.
func Locked(msg string) *Error {
	return &Error{Status: fiber.StatusLocked, Code: "ACCOUNT_LOCKED", Message: msg}
}

// Validation carries per-field messages for malformed request payloads.
func Validation(fields map[string]string) *Error {
	return &Error{
		Status:  fiber.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: "request validation failed",
		Fields:  fields,
	}
}

func Internal(msg string) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Code: "INTERNAL", Message: msg}
}

// As unwraps err into an *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
