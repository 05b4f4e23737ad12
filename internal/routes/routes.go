package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/handlers"
	"github.com/Ananth-NQI/greenway-backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Health   *handlers.HealthHandler
	OTP      *handlers.OTPHandler
	Session  *handlers.SessionHandler
	Confirm  *handlers.ConfirmHandler
	Signal   *handlers.SignalHandler
	Hospital *handlers.HospitalHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers, deviceSecret string, logger *zap.Logger) {
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.Check)

	// Requests from field devices are signed when DEVICE_SECRET is set.
	device := middleware.ValidateDeviceSignature(deviceSecret, logger)

	api := app.Group("/api")

	// ========== OTP ==========
	api.Post("/request-otp", h.OTP.RequestOTP)
	api.Post("/verify-otp", h.OTP.VerifyOTP)

	// ========== TRACKING SESSIONS ==========
	sessions := api.Group("/sessions")
	sessions.Post("/", h.Session.CreateSession)
	sessions.Get("/:vehicle/qr", h.Session.QRCode)
	sessions.Get("/:vehicle/status", h.Session.Status)
	sessions.Post("/:vehicle/location", device, h.Session.UpdateLocation)

	api.Get("/subscribe/:vehicle", h.Session.Subscribe)

	api.Get("/confirm-qr/:vehicle/:token", h.Confirm.Form)
	api.Post("/confirm-qr/:vehicle/:token", h.Confirm.Confirm)

	// ========== SIGNAL PREEMPTION ==========
	api.Post("/emergency", device, h.Signal.Claim)
	api.Post("/clear-emergency", device, h.Signal.Clear)
	api.Get("/signals", h.Signal.List)
	api.Get("/signal/:signalLocation", h.Signal.Query)
	api.Get("/signal/:signalLocation/stream", h.Signal.Stream)

	// ========== DIRECTORY ==========
	api.Post("/hospitals/nearby", h.Hospital.Nearby)
	api.Post("/users/register", h.Hospital.RegisterUser)
}
