package serverutils

import (
	"errors"

	"mediagrid-be/internal/platform/identity"
	"mediagrid-be/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandlerMiddleware converts errors returned by handlers into the
// standard response envelope with an appropriate status code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := statusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch identity.ReasonOf(err) {
	case identity.ReasonInvalidCredential:
		return fiber.StatusUnauthorized
	case identity.ReasonEmailInUse:
		return fiber.StatusConflict
	case identity.ReasonWeakPassword, identity.ReasonInvalidEmail:
		return fiber.StatusBadRequest
	case identity.ReasonNetwork:
		return fiber.StatusBadGateway
	}

	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, session.ErrSelfFollow):
		return fiber.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	}

	return fiber.StatusInternalServerError
}
