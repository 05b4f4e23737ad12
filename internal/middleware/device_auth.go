package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/utils"
)

// DeviceSignatureHeader carries base64 HMAC-SHA256 of METHOD + path + body.
const DeviceSignatureHeader = "X-Device-Signature"

// ValidateDeviceSignature rejects field-device requests that are not signed
// with secret. An empty secret disables the check.
func ValidateDeviceSignature(secret string, logger *zap.Logger) fiber.Handler {
	if secret == "" {
		logger.Warn("device signature validation DISABLED, DEVICE_SECRET is empty")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		signature := c.Get(DeviceSignatureHeader)
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing device signature",
			})
		}

		if !utils.ValidDeviceSignature(secret, c.Method(), c.Path(), c.Body(), signature) {
			logger.Warn("invalid device signature", zap.String("path", c.Path()), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}
