package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/services"
)

// SignalHandler handles traffic signal preemption requests
type SignalHandler struct {
	signals   *services.SignalRegistry
	stream    config.StreamConfig
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(signals *services.SignalRegistry, stream config.StreamConfig, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		signals:   signals,
		stream:    stream,
		validate:  validator.New(),
		logger:    logger,
	}
}

type claimRequest struct {
	SignalLocation string `json:"signalLocation" validate:"required"`
	Direction      string `json:"direction" validate:"required,oneof=North South East West"`
	VehicleNumber  string `json:"vehicleNumber" validate:"required"`
}

type clearRequest struct {
	SignalLocation string `json:"signalLocation" validate:"required"`
	VehicleNumber  string `json:"vehicleNumber" validate:"required"`
}

// Claim registers an emergency at a signal, replacing any existing claim
func (h *SignalHandler) Claim(c *fiber.Ctx) error {
	var req claimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "signalLocation, vehicleNumber and a direction of North, South, East or West are required")
	}

	claim, err := h.signals.Claim(req.SignalLocation, req.Direction, req.VehicleNumber)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"claim":   claim,
	})
}

// Query returns the claim at a signal or {active:false}
func (h *SignalHandler) Query(c *fiber.Ctx) error {
	return c.JSON(h.signals.Query(c.Params("signalLocation")))
}

// Clear removes a claim when the caller owns it
func (h *SignalHandler) Clear(c *fiber.Ctx) error {
	var req clearRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "signalLocation and vehicleNumber are required")
	}

	if !h.signals.Clear(req.SignalLocation, req.VehicleNumber) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "No matching claim for this vehicle",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// List returns every active claim
func (h *SignalHandler) List(c *fiber.Ctx) error {
	claims := h.signals.List()
	return c.JSON(fiber.Map{
		"signals": claims,
		"count":   len(claims),
	})
}

// Stream pushes claimed and cleared events for one signal
func (h *SignalHandler) Stream(c *fiber.Ctx) error {
	sub, err := h.signals.Subscribe(c.Params("signalLocation"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return streamEvents(c, sub, h.stream, h.logger)
}
