package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/pubsub"
)

var validDirections = map[string]bool{
	models.DirectionNorth: true,
	models.DirectionSouth: true,
	models.DirectionEast:  true,
	models.DirectionWest:  true,
}

// SignalRegistry holds at most one emergency claim per signal location.
// The latest claim always wins; only its claimant can clear it.
type SignalRegistry struct {
	mu     sync.Mutex
	claims map[string]models.EmergencyClaim

	watchMu  sync.Mutex
	watchers map[string]*pubsub.Broker[models.Event]
	closed   bool

	buffer int
	now    func() time.Time
	logger *zap.Logger
}

// NewSignalRegistry creates an empty registry.
func NewSignalRegistry(buffer int, logger *zap.Logger) *SignalRegistry {
	return &SignalRegistry{
		claims:   make(map[string]models.EmergencyClaim),
		watchers: make(map[string]*pubsub.Broker[models.Event]),
		buffer:   buffer,
		now:      time.Now,
		logger:   logger,
	}
}

// Claim stores an active claim for location, replacing any existing one.
func (r *SignalRegistry) Claim(location, direction, vehicleNumber string) (models.EmergencyClaim, error) {
	location = strings.TrimSpace(location)
	vehicleNumber = strings.TrimSpace(vehicleNumber)
	switch {
	case location == "":
		return models.EmergencyClaim{}, fmt.Errorf("%w: signal location is required", ErrInvalidInput)
	case vehicleNumber == "":
		return models.EmergencyClaim{}, fmt.Errorf("%w: vehicle number is required", ErrInvalidInput)
	case !validDirections[direction]:
		return models.EmergencyClaim{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, direction)
	}

	claim := models.EmergencyClaim{
		ID:             uuid.NewString(),
		SignalLocation: location,
		Direction:      direction,
		VehicleNumber:  vehicleNumber,
		Active:         true,
		ClaimedAt:      r.now(),
	}

	r.mu.Lock()
	prev, replaced := r.claims[location]
	r.claims[location] = claim
	r.publish(location, models.EventSignalClaimed, claim)
	r.mu.Unlock()

	if replaced && prev.VehicleNumber != vehicleNumber {
		r.logger.Info("emergency claim overwritten",
			zap.String("signal", location),
			zap.String("previous", prev.VehicleNumber),
			zap.String("vehicle", vehicleNumber),
		)
	} else {
		r.logger.Info("emergency claimed",
			zap.String("signal", location),
			zap.String("direction", direction),
			zap.String("vehicle", vehicleNumber),
		)
	}
	return claim, nil
}

// Query returns the claim at location, or an inactive claim.
func (r *SignalRegistry) Query(location string) models.EmergencyClaim {
	location = strings.TrimSpace(location)
	r.mu.Lock()
	defer r.mu.Unlock()
	if claim, ok := r.claims[location]; ok {
		return claim
	}
	return models.InactiveClaim(location)
}

// Clear removes the claim at location only if vehicleNumber owns it.
func (r *SignalRegistry) Clear(location, vehicleNumber string) bool {
	location = strings.TrimSpace(location)
	vehicleNumber = strings.TrimSpace(vehicleNumber)

	r.mu.Lock()
	claim, ok := r.claims[location]
	if !ok || vehicleNumber == "" || claim.VehicleNumber != vehicleNumber {
		r.mu.Unlock()
		return false
	}
	delete(r.claims, location)
	claim.Active = false
	r.publish(location, models.EventSignalCleared, claim)
	r.mu.Unlock()

	r.logger.Info("emergency cleared", zap.String("signal", location), zap.String("vehicle", vehicleNumber))
	return true
}

// List returns all active claims ordered by location.
func (r *SignalRegistry) List() []models.EmergencyClaim {
	r.mu.Lock()
	claims := make([]models.EmergencyClaim, 0, len(r.claims))
	for _, c := range r.claims {
		claims = append(claims, c)
	}
	r.mu.Unlock()

	sort.Slice(claims, func(i, j int) bool { return claims[i].SignalLocation < claims[j].SignalLocation })
	return claims
}

// Len returns the number of active claims.
func (r *SignalRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claims)
}

// Subscribe streams claimed and cleared events for location.
func (r *SignalRegistry) Subscribe(location string) (*pubsub.Subscription[models.Event], error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: signal location is required", ErrInvalidInput)
	}

	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	b, ok := r.watchers[location]
	if !ok {
		b = pubsub.NewBroker[models.Event](r.buffer)
		if r.closed {
			b.Close()
			return b.Subscribe(), nil
		}
		b.OnIdle(func() { r.dropWatcher(location, b) })
		r.watchers[location] = b
	}
	return b.Subscribe(), nil
}

// Subscribers counts open signal streams.
func (r *SignalRegistry) Subscribers() int {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	n := 0
	for _, b := range r.watchers {
		n += b.Len()
	}
	return n
}

// Close ends every signal stream.
func (r *SignalRegistry) Close() {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	r.closed = true
	for _, b := range r.watchers {
		b.Close()
	}
}

func (r *SignalRegistry) watcher(location string) *pubsub.Broker[models.Event] {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	return r.watchers[location]
}

// dropWatcher forgets a location's broker once its last stream has gone.
// Subscribe holds watchMu while subscribing, so a broker that is empty here
// cannot gain a subscriber before it is removed.
func (r *SignalRegistry) dropWatcher(location string, b *pubsub.Broker[models.Event]) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	if r.watchers[location] == b && b.Len() == 0 {
		delete(r.watchers, location)
	}
}

// publish must be called with r.mu held so events follow state order.
func (r *SignalRegistry) publish(location, eventType string, claim models.EmergencyClaim) {
	b := r.watcher(location)
	if b == nil {
		return
	}
	b.Publish(models.Event{
		ID:      ulid.Make().String(),
		Type:    eventType,
		Subject: location,
		Data:    claim,
		At:      r.now(),
	})
}
