package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/greenway-backend/internal/services"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	Storage  string
	store    storage.Store
	sessions *services.SessionManager
	signals  *services.SignalRegistry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storageType string, store storage.Store, sessions *services.SessionManager, signals *services.SignalRegistry) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		Storage:  storageType,
		store:    store,
		sessions: sessions,
		signals:  signals,
	}
}

// Root returns the service banner
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "GreenWay emergency backend is running",
		"version": h.Version,
		"endpoints": fiber.Map{
			"health":    "/health",
			"otp":       "/api/request-otp",
			"sessions":  "/api/sessions",
			"subscribe": "/api/subscribe/:vehicle",
			"signals":   "/api/signals",
		},
	})
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.store.Ping(ctx); err != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
		dbStatus = "error: " + err.Error()
	}
	hospitals, _ := h.store.CountHospitals(ctx)

	stats := h.sessions.GetSessionStats()
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"service": "GreenWay Backend",
		"version": h.Version,
		"storage": fiber.Map{
			"type":      h.Storage,
			"status":    dbStatus,
			"hospitals": hospitals,
		},
		"sessions": stats,
		"signals": fiber.Map{
			"active":      h.signals.Len(),
			"subscribers": h.signals.Subscribers(),
		},
	})
}
