package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/services"
	"github.com/Ananth-NQI/greenway-backend/internal/utils"
)

const qrSize = 350

// SessionHandler handles vehicle tracking sessions
type SessionHandler struct {
	sessions  *services.SessionManager
	otp       *services.OTPService
	publicURL string
	stream    config.StreamConfig
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionManager, otp *services.OTPService, publicURL string, stream config.StreamConfig, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		otp:       otp,
		publicURL: strings.TrimRight(publicURL, "/"),
		stream:    stream,
		validate:  validator.New(),
		logger:    logger,
	}
}

type createSessionRequest struct {
	UserEmail string `json:"userEmail" validate:"required"`
	Code      string `json:"code" validate:"required"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// ConfirmURL is the link a hospital administrator opens to stop tracking.
func (h *SessionHandler) ConfirmURL(vehicleID, token string) string {
	return fmt.Sprintf("%s/api/confirm-qr/%s/%s", h.publicURL, url.PathEscape(vehicleID), url.PathEscape(token))
}

// CreateSession verifies the code and starts a tracking session
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "userEmail and code are required")
	}

	if err := h.otp.VerifyErr(c.UserContext(), req.UserEmail, req.Code); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid OTP",
			})
		}
		if errors.Is(err, services.ErrExpired) {
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "OTP expired",
			})
		}
		return respondError(c, h.logger, err)
	}

	vehicleID, token, err := h.sessions.CreateSession(services.NormalizeOwner(req.UserEmail))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"vehicleId":  vehicleID,
		"token":      token,
		"confirmUrl": h.ConfirmURL(vehicleID, token),
		"qrUrl":      fmt.Sprintf("%s/api/sessions/%s/qr?token=%s", h.publicURL, url.PathEscape(vehicleID), url.QueryEscape(token)),
		"streamUrl":  fmt.Sprintf("%s/api/subscribe/%s", h.publicURL, url.PathEscape(vehicleID)),
		"status":     h.sessions.GetStatus(vehicleID),
	})
}

// QRCode renders the confirmation link as a PNG
func (h *SessionHandler) QRCode(c *fiber.Ctx) error {
	vehicleID := c.Params("vehicle")
	token := c.Query("token")
	if !h.sessions.ValidateToken(vehicleID, token) {
		return respondError(c, h.logger, services.ErrInvalidLink)
	}

	png, err := utils.RenderQRPNG(h.ConfirmURL(strings.ToUpper(vehicleID), token), qrSize)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(png)
}

// Status returns the tracking status of a vehicle
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	vehicleID := c.Params("vehicle")
	info, err := h.sessions.Info(vehicleID)
	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(fiber.Map{
			"vehicleId": strings.ToUpper(vehicleID),
			"status":    h.sessions.GetStatus(vehicleID),
		})
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"vehicleId":   info.VehicleID,
		"status":      info.Status,
		"handshake":   info.Handshake,
		"location":    info.Location,
		"subscribers": info.Subscribers,
		"stoppedAt":   info.StoppedAt,
	})
}

// UpdateLocation records a position reported by the vehicle's device
func (h *SessionHandler) UpdateLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "latitude and longitude are required and must be in range")
	}

	loc, err := h.sessions.UpdateLocation(c.Params("vehicle"), *req.Latitude, *req.Longitude)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"location": loc,
	})
}

// Subscribe streams session events to the client
func (h *SessionHandler) Subscribe(c *fiber.Ctx) error {
	sub, err := h.sessions.Subscribe(c.Params("vehicle"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return streamEvents(c, sub, h.stream, h.logger)
}
