package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/services"
)

// HospitalHandler handles hospital directory and driver registration
type HospitalHandler struct {
	hospitals *services.HospitalService
	logger    *zap.Logger
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(hospitals *services.HospitalService, logger *zap.Logger) *HospitalHandler {
	return &HospitalHandler{
		hospitals: hospitals,
		logger:    logger,
	}
}

type nearbyRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Nearby lists hospitals around a point, nearest first
func (h *HospitalHandler) Nearby(c *fiber.Ctx) error {
	var req nearbyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return badRequest(c, "latitude and longitude are required")
	}

	hospitals, err := h.hospitals.Nearby(c.UserContext(), *req.Latitude, *req.Longitude)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(hospitals)
}

// RegisterUser registers a vehicle driver
func (h *HospitalHandler) RegisterUser(c *fiber.Ctx) error {
	var req models.UserRegistration
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.hospitals.RegisterUser(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}
