package serverutils

import (
	"errors"
	"log"

	"product-notes-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a domain error onto an HTTP status and the message sent
// back to the caller. Unknown errors become an opaque 500.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	var partial *apperror.PartialBatchError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, apperror.ErrUnrecognizedAction):
		return fiber.StatusBadRequest, "Invalid action"
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.As(err, &partial):
		return fiber.StatusMultiStatus, partial.Error()
	case errors.Is(err, apperror.ErrIngestionFault):
		return fiber.StatusInternalServerError, "Webhook error"
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// ErrorHandlerMiddleware turns errors returned by downstream handlers into
// ErrorResponse bodies.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return writeError(ctx, err)
	}
}

// ErrorHandler is the fiber.Config hook for errors raised outside the
// middleware chain, such as routing misses.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	return writeError(ctx, err)
}

func writeError(ctx *fiber.Ctx, err error) error {
	code, message := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}
