package serverutils

import (
	"errors"

	"dashboard-assistant-be/pkg/knowledge"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON
// responses with a matching status code
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse(validationErr.Fields))
		}

		code := StatusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, knowledge.ErrUnknownSource):
		return fiber.StatusBadRequest
	case errors.Is(err, knowledge.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, knowledge.ErrSessionDeleted):
		return fiber.StatusGone
	case errors.Is(err, knowledge.ErrSuperseded):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
