package handlers

import (
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/services"
)

var confirmFormTemplate = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Stop tracking {{.Vehicle}}</title></head>
<body style="font-family:Arial;text-align:center">
  <form method="POST">
    <h3>Hospital Admin Login</h3>
    <p>Vehicle {{.Vehicle}}</p>
    <input name="email" type="email" required placeholder="Admin Email"/><br/><br/>
    <input name="password" type="password" required placeholder="Password"/><br/><br/>
    <button>Confirm</button>
  </form>
</body>
</html>
`))

// ConfirmHandler handles the stop-tracking confirmation link
type ConfirmHandler struct {
	confirm *services.ConfirmationService
	logger  *zap.Logger
}

// NewConfirmHandler creates a new confirmation handler
func NewConfirmHandler(confirm *services.ConfirmationService, logger *zap.Logger) *ConfirmHandler {
	return &ConfirmHandler{
		confirm: confirm,
		logger:  logger,
	}
}

type confirmRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Form renders the administrator login form
func (h *ConfirmHandler) Form(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return confirmFormTemplate.Execute(c.Response().BodyWriter(), fiber.Map{
		"Vehicle": c.Params("vehicle"),
	})
}

// Confirm authenticates the administrator and stops tracking
func (h *ConfirmHandler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	state, err := h.confirm.Confirm(c.UserContext(), c.Params("vehicle"), c.Params("token"), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"message": "Tracking stopped",
		"state":   state,
	})
}
