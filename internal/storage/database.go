package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

// DatabaseStore keeps the directory in PostgreSQL through GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open GORM connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) CreateHospital(ctx context.Context, h *models.Hospital) (*models.Hospital, error) {
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return nil, translate(err)
	}
	return h, nil
}

func (s *DatabaseStore) GetHospitalByName(ctx context.Context, name string) (*models.Hospital, error) {
	var h models.Hospital
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&h).Error
	if err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (s *DatabaseStore) GetHospitalByAdminEmail(ctx context.Context, email string) (*models.Hospital, error) {
	var h models.Hospital
	err := s.db.WithContext(ctx).
		Where("admin_email = ?", models.NormalizeEmail(email)).
		First(&h).Error
	if err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (s *DatabaseStore) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	var hospitals []*models.Hospital
	if err := s.db.WithContext(ctx).Order("id").Find(&hospitals).Error; err != nil {
		return nil, err
	}
	return hospitals, nil
}

func (s *DatabaseStore) CountHospitals(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Hospital{}).Count(&n).Error
	return n, err
}

func (s *DatabaseStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *DatabaseStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return err
	}
}
