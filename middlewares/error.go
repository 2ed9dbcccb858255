package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"companyhub-backend/database"
	"companyhub-backend/token"
)

// NewErrorHandler centralizes error responses: the core error taxonomy maps
// onto statuses and messages stay sanitized.
func NewErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		// 2) Validation errors (422 + per-field info)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make(map[string]string, len(ve))
			for _, fieldErr := range ve {
				out[fieldErr.Field()] = fieldErr.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "validation failed",
				"errors":  out,
			})
		}

		// 3) Core taxonomy
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "token expired, please log in again"})
		case errors.Is(err, token.ErrTokenInvalid), errors.Is(err, database.ErrTenantNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		case errors.Is(err, database.ErrTenantInactive):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "account is deactivated"})
		case errors.Is(err, database.ErrSchemaConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "database name conflict; registration must be retried with a new name",
			})
		case errors.Is(err, database.ErrConnectTimeout),
			errors.Is(err, database.ErrDialFailed),
			errors.Is(err, database.ErrCacheClosed):
			log.Warn("tenant store unavailable", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message": "service temporarily unavailable, please retry",
			})
		}

		// 4) Unknown errors (500)
		log.Error("internal error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}
