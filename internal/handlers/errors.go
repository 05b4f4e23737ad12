package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/services"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrExpired):
		return fiber.StatusGone
	case errors.Is(err, services.ErrDeliveryFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage is the error text a client sees. Authorization failures are
// collapsed so callers cannot tell an unknown admin from a wrong password.
func publicMessage(err error, status int) string {
	switch status {
	case fiber.StatusUnauthorized:
		return "Unauthorized"
	case fiber.StatusInternalServerError:
		return "Internal server error"
	case fiber.StatusBadGateway:
		return "Message delivery failed"
	default:
		return err.Error()
	}
}

func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": publicMessage(err, status),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
