package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
)

// ConfirmationService ends a tracking session once a hospital administrator
// authenticates against the session's confirmation link.
type ConfirmationService struct {
	sessions  *SessionManager
	directory storage.Store
	templates *TemplateService
	logger    *zap.Logger

	checkPassword func(hash, password string) bool
}

// NewConfirmationService wires the handshake. templates may be nil, in which
// case the session owner is not notified.
func NewConfirmationService(sessions *SessionManager, directory storage.Store, templates *TemplateService, logger *zap.Logger) *ConfirmationService {
	return &ConfirmationService{
		sessions:  sessions,
		directory: directory,
		templates: templates,
		logger:    logger,

		checkPassword: CheckPassword,
	}
}

// Confirm runs the handshake. On success the session is stopped and every
// subscriber gets the termination event. A second successful call
// re-broadcasts; a failed call never reverts a stop.
//
// Errors: ErrInvalidLink, ErrUnknownAdmin, ErrWrongPassword.
func (cs *ConfirmationService) Confirm(ctx context.Context, vehicleID, token, adminEmail, adminPassword string) (models.HandshakeState, error) {
	s := cs.sessions.lookup(vehicleID)
	if s == nil || !s.tokenMatches(token) {
		return "", ErrInvalidLink
	}

	s.mu.Lock()
	s.authorizing++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.authorizing--
		s.mu.Unlock()
	}()

	hospital, err := cs.directory.GetHospitalByAdminEmail(ctx, models.NormalizeEmail(adminEmail))
	if err != nil {
		// Rejections cost one bcrypt comparison whether or not the admin exists.
		cs.checkPassword(missingAdminHash(), adminPassword)
		if errors.Is(err, storage.ErrNotFound) {
			return cs.failed(s, ErrUnknownAdmin)
		}
		cs.logger.Error("directory lookup failed", zap.String("vehicle", s.vehicleID), zap.Error(err))
		return cs.failed(s, fmt.Errorf("%w: directory unavailable", ErrUnauthorized))
	}

	if !cs.checkPassword(hospital.AdminPasswordHash, adminPassword) {
		return cs.failed(s, ErrWrongPassword)
	}

	first, delivered := cs.sessions.stop(s, hospital.Name)
	cs.logger.Info("tracking stopped",
		zap.String("vehicle", s.vehicleID),
		zap.String("hospital", hospital.Name),
		zap.Bool("first", first),
		zap.Int("subscribers", delivered),
	)
	if first {
		cs.notifyOwner(s, hospital.Name)
	}
	return models.HandshakeStopped, nil
}

func (cs *ConfirmationService) failed(s *trackingSession, err error) (models.HandshakeState, error) {
	cs.logger.Warn("confirmation rejected", zap.String("vehicle", s.vehicleID), zap.Error(err))
	return "", err
}

// notifyOwner tells the session owner by e-mail that tracking ended. Delivery
// is best effort.
func (cs *ConfirmationService) notifyOwner(s *trackingSession, hospitalName string) {
	s.mu.Lock()
	owner := s.ownerContact
	stoppedAt := s.stoppedAt
	s.mu.Unlock()

	if cs.templates == nil || !strings.Contains(owner, "@") || stoppedAt == nil {
		return
	}

	params := map[string]string{
		"vehicle_id":    s.vehicleID,
		"hospital_name": hospitalName,
		"stopped_at":    stoppedAt.Format(time.RFC1123),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cs.templates.SendTemplate(ctx, ChannelEmail, owner, TemplateTrackingStopped, params); err != nil {
			cs.logger.Warn("stop notification failed", zap.String("vehicle", s.vehicleID), zap.Error(err))
		}
	}()
}
