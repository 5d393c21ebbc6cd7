package serverutils

import (
	"errors"

	"uml-nli-be/internal/websocket"
	"uml-nli-be/pkg/dispatch"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps errors returned by handlers to HTTP status codes.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErr *ValidationError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	case errors.Is(err, dispatch.ErrQueryInFlight):
		return fiber.StatusConflict
	case errors.Is(err, dispatch.ErrSessionNotFound),
		errors.Is(err, dispatch.ErrEntryNotFound),
		errors.Is(err, websocket.ErrNotConnected):
		return fiber.StatusNotFound
	}

	switch dispatch.KindOf(err) {
	case dispatch.KindInputEmpty:
		return fiber.StatusBadRequest
	case dispatch.KindPreconditionUnmet, dispatch.KindResolutionFailed:
		return fiber.StatusUnprocessableEntity
	case dispatch.KindServiceUnavailable:
		return fiber.StatusServiceUnavailable
	case dispatch.KindTimeout:
		return fiber.StatusGatewayTimeout
	case dispatch.KindRequestFailed:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware renders any error returned further down the chain
// as a BaseResponse.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}
