package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/services"
)

// OTPHandler handles verification code requests
type OTPHandler struct {
	otp      *services.OTPService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(otp *services.OTPService, logger *zap.Logger) *OTPHandler {
	return &OTPHandler{
		otp:      otp,
		validate: validator.New(),
		logger:   logger,
	}
}

type verifyOTPRequest struct {
	UserEmail string `json:"userEmail" validate:"required"`
	Code      string `json:"code" validate:"required,numeric,len=6"`
}

// RequestOTP sends a code to the requester on behalf of a hospital
func (h *OTPHandler) RequestOTP(c *fiber.Ctx) error {
	var req services.OTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "hospitalName and userEmail are required")
	}

	if err := h.otp.RequestCode(c.UserContext(), req); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"message": "OTP sent",
	})
}

// VerifyOTP checks a code without creating a session
func (h *OTPHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "userEmail and a 6 digit code are required")
	}

	result, err := h.otp.Verify(c.UserContext(), req.UserEmail, req.Code)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	switch result {
	case models.CodeVerified:
		return c.JSON(fiber.Map{"message": "OTP verified", "result": result})
	case models.CodeExpired:
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "OTP expired", "result": result})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid OTP", "result": result})
	}
}
