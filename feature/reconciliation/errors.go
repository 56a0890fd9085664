package reconciliation

import (
	"context"
	"errors"

	"sheet-reconciler/core/apperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusRequestTimeout
	case apperror.Is(err, apperror.KindValidation), apperror.Is(err, apperror.KindDataShape):
		return fiber.StatusBadRequest
	case apperror.Is(err, apperror.KindResourceLimit):
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes {"error", "details"} for err. Internal details stay in the log.
func fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := statusFor(err)
	message, details := err.Error(), ""

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Cause != nil && appErr.Kind != apperror.KindInternal {
			details = appErr.Cause.Error()
		}
	}
	if status == fiber.StatusRequestTimeout {
		message = "request timed out"
	}

	if status >= fiber.StatusInternalServerError {
		fields := []zap.Field{zap.Error(err)}
		if appErr != nil && appErr.Detail != "" {
			fields = append(fields, zap.String("detail", appErr.Detail))
		}
		l.Error("Request failed", fields...)
		message = "internal error"
	} else {
		l.Warn("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{"error": message, "details": details})
}
