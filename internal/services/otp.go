package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
	"github.com/Ananth-NQI/greenway-backend/internal/utils"
)

// OTPRequest asks for a verification code to be sent to Recipient on behalf
// of a hospital.
type OTPRequest struct {
	HospitalName string `json:"hospitalName" validate:"required"`
	Recipient    string `json:"userEmail" validate:"required"`
	Channel      string `json:"channel" validate:"omitempty,oneof=email sms whatsapp"`
}

// OTPService issues and verifies single-use codes.
type OTPService struct {
	codes     storage.CodeStore
	store     storage.Store
	templates *TemplateService
	ttl       time.Duration
	now       func() time.Time
	generate  func() (string, error)
	logger    *zap.Logger
}

// NewOTPService creates the service. templates may be nil when codes are only
// issued programmatically.
func NewOTPService(codes storage.CodeStore, store storage.Store, templates *TemplateService, ttl time.Duration, logger *zap.Logger) *OTPService {
	return &OTPService{
		codes:     codes,
		store:     store,
		templates: templates,
		ttl:       ttl,
		now:       time.Now,
		generate:  utils.GenerateSecureOTP,
		logger:    logger,
	}
}

// NormalizeOwner returns the key codes are stored under.
func NormalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}

// Issue creates a code for owner, replacing any previous one.
func (s *OTPService) Issue(ctx context.Context, owner string) (string, error) {
	owner = NormalizeOwner(owner)
	if owner == "" {
		return "", fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	record := models.VerificationCode{
		Owner:     owner,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.codes.Put(ctx, record); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Verify resolves a code. A code is consumed on its first resolution, whether
// that is verified or expired.
func (s *OTPService) Verify(ctx context.Context, owner, code string) (models.VerificationResult, error) {
	owner = NormalizeOwner(owner)
	code = strings.TrimSpace(code)
	if owner == "" || code == "" {
		return models.CodeNotFound, nil
	}

	record, err := s.codes.Consume(ctx, owner, code)
	if errors.Is(err, storage.ErrNotFound) {
		return models.CodeNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}

	if record.Expired(s.now()) {
		return models.CodeExpired, nil
	}
	return models.CodeVerified, nil
}

// VerifyErr is Verify with the outcome folded into an error:
// nil, ErrNotFound or ErrExpired.
func (s *OTPService) VerifyErr(ctx context.Context, owner, code string) error {
	result, err := s.Verify(ctx, owner, code)
	if err != nil {
		return err
	}
	switch result {
	case models.CodeVerified:
		return nil
	case models.CodeExpired:
		return fmt.Errorf("%w: verification code", ErrExpired)
	default:
		return fmt.Errorf("%w: invalid verification code", ErrNotFound)
	}
}

// RequestCode issues a code for the recipient and sends it. The hospital must
// exist. On delivery failure the code stays stored so the caller may retry.
func (s *OTPService) RequestCode(ctx context.Context, req OTPRequest) error {
	if s.templates == nil {
		return fmt.Errorf("%w: no message transport", ErrDeliveryFailed)
	}

	channel := req.Channel
	if channel == "" {
		channel = ChannelEmail
	}
	if !s.templates.dispatcher.Supports(channel) {
		return fmt.Errorf("%w: unsupported channel %q", ErrInvalidInput, channel)
	}

	hospital, err := s.store.GetHospitalByName(ctx, strings.TrimSpace(req.HospitalName))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: hospital %q", ErrNotFound, req.HospitalName)
	}
	if err != nil {
		return fmt.Errorf("lookup hospital: %w", err)
	}

	code, err := s.Issue(ctx, req.Recipient)
	if err != nil {
		return err
	}

	params := map[string]string{
		"hospital_name": hospital.Name,
		"code":          code,
		"ttl_minutes":   strconv.Itoa(max(1, int(s.ttl.Round(time.Minute)/time.Minute))),
	}
	if err := s.templates.SendTemplate(ctx, channel, strings.TrimSpace(req.Recipient), TemplateEmergencyOTP, params); err != nil {
		s.logger.Warn("otp delivery failed",
			zap.String("channel", channel),
			zap.String("hospital", hospital.Name),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("otp sent", zap.String("channel", channel), zap.String("hospital", hospital.Name))
	return nil
}
