package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// TemplateConfig describes one outgoing message. Body placeholders are
// numbered {{1}}, {{2}}, ... in Parameters order.
type TemplateConfig struct {
	Description string
	Subject     string
	Body        string
	Parameters  []string
}

// Template names.
const (
	TemplateEmergencyOTP        = "emergency_otp"
	TemplateTrackingStopped     = "tracking_stopped"
	TemplateRegistrationSuccess = "registration_success"
)

// MessageTemplates maps template names to their content.
var MessageTemplates = map[string]TemplateConfig{
	TemplateEmergencyOTP: {
		Description: "Verification code for emergency tracking",
		Subject:     "Your Emergency OTP",
		Body:        "Your OTP for accessing emergency services at {{1}} is: {{2}}\nValid for {{3}} minutes.",
		Parameters:  []string{"hospital_name", "code", "ttl_minutes"},
	},
	TemplateTrackingStopped: {
		Description: "Tracking session stopped by a hospital administrator",
		Subject:     "Emergency tracking stopped",
		Body:        "Tracking for vehicle {{1}} was stopped by {{2}} at {{3}}.",
		Parameters:  []string{"vehicle_id", "hospital_name", "stopped_at"},
	},
	TemplateRegistrationSuccess: {
		Description: "Driver registration confirmation",
		Subject:     "Welcome to GreenWay",
		Body:        "Hello {{1}}, your GreenWay account for vehicle {{2}} is ready.",
		Parameters:  []string{"name", "vehicle_number"},
	},
}

// TemplateService renders templates and sends them through a Dispatcher.
type TemplateService struct {
	dispatcher *Dispatcher
}

// NewTemplateService creates a new template service
func NewTemplateService(dispatcher *Dispatcher) *TemplateService {
	return &TemplateService{dispatcher: dispatcher}
}

// Render fills the template's subject and body.
func (ts *TemplateService) Render(templateName string, params map[string]string) (subject, body string, err error) {
	template, exists := MessageTemplates[templateName]
	if !exists {
		return "", "", fmt.Errorf("template '%s' not found", templateName)
	}

	body = template.Body
	for i, paramName := range template.Parameters {
		value, ok := params[paramName]
		if !ok {
			return "", "", fmt.Errorf("missing required parameter: %s", paramName)
		}
		body = strings.ReplaceAll(body, "{{"+strconv.Itoa(i+1)+"}}", value)
	}
	return template.Subject, body, nil
}

// SendTemplate renders a template and delivers it on channel.
func (ts *TemplateService) SendTemplate(ctx context.Context, channel, to, templateName string, params map[string]string) error {
	subject, body, err := ts.Render(templateName, params)
	if err != nil {
		return err
	}
	return ts.dispatcher.Send(ctx, channel, to, subject, body)
}
