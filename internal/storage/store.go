package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique field is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Store is the hospital and driver directory.
type Store interface {
	// Hospital operations
	CreateHospital(ctx context.Context, h *models.Hospital) (*models.Hospital, error)
	GetHospitalByName(ctx context.Context, name string) (*models.Hospital, error)
	GetHospitalByAdminEmail(ctx context.Context, email string) (*models.Hospital, error)
	ListHospitals(ctx context.Context) ([]*models.Hospital, error)
	CountHospitals(ctx context.Context) (int64, error)

	// User operations
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
