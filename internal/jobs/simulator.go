package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/middleware"
	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/utils"
)

// SignalLocations are the junctions the simulator drives.
var SignalLocations = []string{
	"Signal_Guindy",
	"Signal_Tambaram",
	"Signal_AnnaNagar",
	"Signal_TNagar",
	"Signal_OMR",
	"Signal_Porur",
	"Signal_Koyambedu",
}

var directions = []string{
	models.DirectionNorth,
	models.DirectionSouth,
	models.DirectionEast,
	models.DirectionWest,
}

const requestTimeout = 10 * time.Second

// SignalSimulator plays a roadside signal controller against the public API:
// it raises an emergency, reads it back, holds the green phase and clears it.
type SignalSimulator struct {
	serverURL string
	secret    string
	interval  time.Duration
	green     time.Duration
	logger    *zap.Logger

	processing atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// NewSignalSimulator creates a simulator. deviceSecret signs requests when set.
func NewSignalSimulator(cfg config.SimulatorConfig, deviceSecret string, logger *zap.Logger) *SignalSimulator {
	return &SignalSimulator{
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		secret:    deviceSecret,
		interval:  cfg.Interval,
		green:     cfg.GreenDuration,
		logger:    logger,
	}
}

// Start runs a cycle every interval until Stop or ctx is done.
func (s *SignalSimulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.logger.Info("simulator already running")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("simulator started", zap.String("server", s.serverURL), zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					if err := s.RunCycle(ctx); err != nil {
						s.logger.Error("simulation cycle failed", zap.Error(err))
					}
				}()
			}
		}
	}()
}

// Stop cancels the schedule and waits for an in-flight cycle.
func (s *SignalSimulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	s.logger.Info("stopping simulator")
	cancel()
	s.wg.Wait()
}

// RunCycle performs one claim, query, hold and clear round. It returns
// immediately when a previous cycle is still running.
func (s *SignalSimulator) RunCycle(ctx context.Context) error {
	if !s.processing.CompareAndSwap(false, true) {
		s.logger.Debug("previous cycle still running, skipping")
		return nil
	}
	defer s.processing.Store(false)

	location := SignalLocations[rand.Intn(len(SignalLocations))]
	direction := directions[rand.Intn(len(directions))]
	vehicle, err := utils.GenerateVehicleNumber()
	if err != nil {
		return err
	}
	return s.runCycle(ctx, location, direction, vehicle)
}

func (s *SignalSimulator) runCycle(ctx context.Context, location, direction, vehicle string) error {
	claim := map[string]any{
		"signalLocation": location,
		"direction":      direction,
		"vehicleNumber":  vehicle,
	}
	if _, err := s.post("/api/emergency", claim); err != nil {
		return fmt.Errorf("create emergency: %w", err)
	}
	s.logger.Info("emergency created",
		zap.String("vehicle", vehicle),
		zap.String("signal", location),
		zap.String("direction", direction),
	)

	current, err := s.query(location)
	if err != nil {
		return fmt.Errorf("poll signal: %w", err)
	}
	if !current.Active || current.Direction != direction {
		s.logger.Info("no emergency for this lane", zap.String("signal", location))
		return nil
	}

	s.logger.Info("green signal on", zap.String("signal", location), zap.Duration("for", s.green))
	select {
	case <-time.After(s.green):
	case <-ctx.Done():
		s.logger.Info("green phase cut short", zap.String("signal", location))
	}
	s.logger.Info("green signal off", zap.String("signal", location))

	// The claim is cleared even when stopping so no junction stays preempted.
	cleared, err := s.post("/api/clear-emergency", map[string]any{
		"signalLocation": location,
		"vehicleNumber":  current.VehicleNumber,
	})
	if err != nil {
		return fmt.Errorf("clear emergency: %w", err)
	}
	if !cleared {
		s.logger.Warn("claim taken over before clear", zap.String("signal", location))
		return nil
	}
	s.logger.Info("emergency cleared", zap.String("signal", location), zap.String("vehicle", current.VehicleNumber))
	return nil
}

// post sends a signed JSON body. It reports false on 409 (not the owner).
func (s *SignalSimulator) post(path string, payload any) (bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}
	endpoint := s.serverURL + path

	a := fiber.Post(endpoint)
	a.Timeout(requestTimeout)
	a.ContentType(fiber.MIMEApplicationJSON)
	a.Body(raw)
	if s.secret != "" {
		a.Set(middleware.DeviceSignatureHeader, utils.DeviceSignature(s.secret, fiber.MethodPost, requestPath(endpoint), raw))
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return false, errs[0]
	}
	switch {
	case code == fiber.StatusConflict:
		return false, nil
	case code >= 300:
		return false, fmt.Errorf("status %d: %s", code, body)
	}
	return true, nil
}

func (s *SignalSimulator) query(location string) (models.EmergencyClaim, error) {
	var claim models.EmergencyClaim
	a := fiber.Get(s.serverURL + "/api/signal/" + url.PathEscape(location))
	a.Timeout(requestTimeout)

	code, body, errs := a.Struct(&claim)
	if len(errs) > 0 {
		return claim, errs[0]
	}
	if code != fiber.StatusOK {
		return claim, fmt.Errorf("status %d: %s", code, body)
	}
	return claim, nil
}

func requestPath(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Path
}
