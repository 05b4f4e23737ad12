package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
	"github.com/Ananth-NQI/greenway-backend/internal/utils"
)

// HospitalService serves directory queries and driver registration.
type HospitalService struct {
	store     storage.Store
	radiusKM  float64
	templates *TemplateService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewHospitalService creates the service. templates may be nil.
func NewHospitalService(store storage.Store, radiusKM float64, templates *TemplateService, logger *zap.Logger) *HospitalService {
	return &HospitalService{
		store:     store,
		radiusKM:  radiusKM,
		templates: templates,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Nearby returns hospitals within the configured radius, nearest first.
func (s *HospitalService) Nearby(ctx context.Context, lat, lon float64) ([]models.NearbyHospital, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}

	hospitals, err := s.store.ListHospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}

	nearby := make([]models.NearbyHospital, 0)
	for _, h := range hospitals {
		d := utils.HaversineKM(lat, lon, h.Latitude, h.Longitude)
		if d > s.radiusKM {
			continue
		}
		nearby = append(nearby, models.NearbyHospital{
			ID:         h.ID,
			Name:       h.Name,
			Latitude:   h.Latitude,
			Longitude:  h.Longitude,
			DistanceKM: math.Round(d*100) / 100,
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].DistanceKM < nearby[j].DistanceKM })
	return nearby, nil
}

// RegisterUser validates and stores a driver with a hashed password.
func (s *HospitalService) RegisterUser(ctx context.Context, reg models.UserRegistration) (*models.User, error) {
	reg.Email = models.NormalizeEmail(reg.Email)
	if err := s.validate.Struct(reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &models.User{
		Name:          reg.Name,
		Email:         reg.Email,
		PasswordHash:  hash,
		AadhaarNumber: reg.AadhaarNumber,
		Mobile:        reg.Mobile,
		Address:       reg.Address,
		LicenseNumber: reg.LicenseNumber,
		VehicleNumber: reg.VehicleNumber,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	s.sendWelcome(user)
	return user, nil
}

func (s *HospitalService) sendWelcome(user *models.User) {
	if s.templates == nil || user.Email == "" {
		return
	}
	params := map[string]string{"name": user.Name, "vehicle_number": user.VehicleNumber}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.templates.SendTemplate(ctx, ChannelEmail, user.Email, TemplateRegistrationSuccess, params); err != nil {
			s.logger.Warn("welcome message failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}()
}
