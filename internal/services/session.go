package services

import (
	"crypto/subtle"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/pubsub"
	"github.com/Ananth-NQI/greenway-backend/internal/utils"
)

const (
	vehicleIDAttempts = 16
	tokenBytes        = 16
)

// trackingSession is one vehicle's tracking record. Fields are guarded by mu;
// the broker has its own lock.
type trackingSession struct {
	mu           sync.Mutex
	vehicleID    string
	token        string // empty for sessions created by a subscriber or device
	status       models.TrackingStatus
	ownerContact string
	location     *models.Location
	createdAt    time.Time
	stoppedAt    *time.Time
	authorizing  int

	events *pubsub.Broker[models.Event]
}

func (s *trackingSession) tokenMatches(token string) bool {
	s.mu.Lock()
	stored := s.token
	s.mu.Unlock()
	if stored == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}

func (s *trackingSession) handshake() models.HandshakeState {
	switch {
	case s.status == models.TrackingStopped:
		return models.HandshakeStopped
	case s.authorizing > 0:
		return models.HandshakeAuthorizing
	default:
		return models.HandshakePending
	}
}

func (s *trackingSession) snapshot() *models.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := &models.SessionInfo{
		VehicleID:    s.vehicleID,
		Status:       s.status,
		Handshake:    s.handshake(),
		OwnerContact: s.ownerContact,
		Subscribers:  s.events.Len(),
		CreatedAt:    s.createdAt,
	}
	if s.location != nil {
		loc := *s.location
		info.Location = &loc
	}
	if s.stoppedAt != nil {
		at := *s.stoppedAt
		info.StoppedAt = &at
	}
	return info
}

// SessionStats summarizes the registry.
type SessionStats struct {
	TotalSessions   int `json:"total_sessions"`
	ActiveSessions  int `json:"active_sessions"`
	StoppedSessions int `json:"stopped_sessions"`
	Subscribers     int `json:"subscribers"`
}

// SessionManager is the registry of vehicle tracking sessions. Sessions live
// until the process exits.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*trackingSession
	closed   bool

	buffer       int
	now          func() time.Time
	newVehicleID func() (string, error)
	newToken     func() (string, error)
	logger       *zap.Logger
}

// NewSessionManager creates an empty registry. buffer is the per-subscriber
// event queue size.
func NewSessionManager(buffer int, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions:     make(map[string]*trackingSession),
		buffer:       buffer,
		now:          time.Now,
		newVehicleID: utils.GenerateVehicleNumber,
		newToken:     func() (string, error) { return utils.GenerateToken(tokenBytes) },
		logger:       logger,
	}
}

func normalizeVehicleID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func (sm *SessionManager) newSession(vehicleID string) *trackingSession {
	events := pubsub.NewBroker[models.Event](sm.buffer)
	if sm.closed {
		events.Close()
	}
	return &trackingSession{
		vehicleID: vehicleID,
		status:    models.TrackingActive,
		createdAt: sm.now(),
		events:    events,
	}
}

// CreateSession mints a session with a fresh vehicle identifier and token.
func (sm *SessionManager) CreateSession(ownerContact string) (vehicleID, token string, err error) {
	token, err = sm.newToken()
	if err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	for attempt := 0; attempt < vehicleIDAttempts; attempt++ {
		id, err := sm.newVehicleID()
		if err != nil {
			return "", "", fmt.Errorf("generate vehicle id: %w", err)
		}
		id = normalizeVehicleID(id)
		if _, taken := sm.sessions[id]; taken {
			continue
		}

		s := sm.newSession(id)
		s.token = token
		s.ownerContact = ownerContact
		sm.sessions[id] = s

		sm.logger.Info("tracking session created", zap.String("vehicle", id))
		return id, token, nil
	}
	return "", "", fmt.Errorf("%w: no free vehicle identifier after %d attempts", ErrConflict, vehicleIDAttempts)
}

func (sm *SessionManager) lookup(vehicleID string) *trackingSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[normalizeVehicleID(vehicleID)]
}

// getOrCreate returns the session, creating a token-less one when unknown.
func (sm *SessionManager) getOrCreate(vehicleID string) (*trackingSession, error) {
	id := normalizeVehicleID(vehicleID)
	if id == "" {
		return nil, fmt.Errorf("%w: vehicle id is required", ErrInvalidInput)
	}
	if s := sm.lookup(id); s != nil {
		return s, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[id]; ok {
		return s, nil
	}
	s := sm.newSession(id)
	sm.sessions[id] = s
	sm.logger.Debug("session created on first contact", zap.String("vehicle", id))
	return s, nil
}

// Subscribe attaches a new subscriber to the vehicle's events. The caller
// must Close the subscription when its connection ends.
func (sm *SessionManager) Subscribe(vehicleID string) (*pubsub.Subscription[models.Event], error) {
	s, err := sm.getOrCreate(vehicleID)
	if err != nil {
		return nil, err
	}
	return s.events.Subscribe(), nil
}

// UpdateLocation records the vehicle's last known position and notifies
// subscribers.
func (sm *SessionManager) UpdateLocation(vehicleID string, lat, lon float64) (*models.Location, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	s, err := sm.getOrCreate(vehicleID)
	if err != nil {
		return nil, err
	}

	loc := models.Location{Latitude: lat, Longitude: lon, UpdatedAt: sm.now()}
	s.mu.Lock()
	s.location = &loc
	s.mu.Unlock()

	s.events.Publish(sm.event(models.EventLocation, s.vehicleID, "", loc))
	return &loc, nil
}

// GetStatus returns the tracking status, or unknown for an unseen vehicle.
func (sm *SessionManager) GetStatus(vehicleID string) models.TrackingStatus {
	s := sm.lookup(vehicleID)
	if s == nil {
		return models.TrackingUnknown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Info returns a snapshot of the session.
func (sm *SessionManager) Info(vehicleID string) (*models.SessionInfo, error) {
	s := sm.lookup(vehicleID)
	if s == nil {
		return nil, fmt.Errorf("%w: vehicle %q", ErrNotFound, vehicleID)
	}
	return s.snapshot(), nil
}

// ValidateToken reports whether token is the session's confirmation token.
func (sm *SessionManager) ValidateToken(vehicleID, token string) bool {
	s := sm.lookup(vehicleID)
	return s != nil && s.tokenMatches(token)
}

// stop marks the session stopped and broadcasts the termination event. It
// returns whether this call made the transition; repeated calls re-broadcast.
func (sm *SessionManager) stop(s *trackingSession, stoppedBy string) (first bool, delivered int) {
	s.mu.Lock()
	if s.status != models.TrackingStopped {
		now := sm.now()
		s.status = models.TrackingStopped
		s.stoppedAt = &now
		first = true
	}
	data := map[string]string{"stoppedBy": stoppedBy}
	vehicleID := s.vehicleID
	s.mu.Unlock()

	evt := sm.event(models.EventTrackingStopped, vehicleID, "Tracking stopped, location disabled", data)
	delivered = s.events.Publish(evt)
	if missed := s.events.Len() - delivered; missed > 0 {
		sm.logger.Warn("stop event dropped for slow subscribers",
			zap.String("vehicle", vehicleID), zap.Int("missed", missed))
	}
	return first, delivered
}

func (sm *SessionManager) event(eventType, subject, message string, data any) models.Event {
	return models.Event{
		ID:      ulid.Make().String(),
		Type:    eventType,
		Subject: subject,
		Message: message,
		Data:    data,
		At:      sm.now(),
	}
}

// ListSessions returns snapshots ordered by vehicle id.
func (sm *SessionManager) ListSessions() []*models.SessionInfo {
	sm.mu.RLock()
	all := make([]*trackingSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		all = append(all, s)
	}
	sm.mu.RUnlock()

	infos := make([]*models.SessionInfo, 0, len(all))
	for _, s := range all {
		infos = append(infos, s.snapshot())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].VehicleID < infos[j].VehicleID })
	return infos
}

// GetSessionStats counts sessions by status and live subscribers.
func (sm *SessionManager) GetSessionStats() *SessionStats {
	stats := &SessionStats{}
	for _, info := range sm.ListSessions() {
		stats.TotalSessions++
		stats.Subscribers += info.Subscribers
		if info.Status == models.TrackingStopped {
			stats.StoppedSessions++
		} else {
			stats.ActiveSessions++
		}
	}
	return stats
}

// Close ends every subscriber stream. Sessions created afterwards start closed.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closed = true
	for _, s := range sm.sessions {
		s.events.Close()
	}
}
