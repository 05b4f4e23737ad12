package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

// MemoryStore holds the directory in memory. Used for tests and local runs.
type MemoryStore struct {
	hospitals map[uint]*models.Hospital
	users     map[string]*models.User // by normalized e-mail

	hospitalMu sync.RWMutex
	userMu     sync.RWMutex

	// Counters for ID generation
	hospitalCounter uint
	userCounter     uint
}

// NewMemoryStore creates a new in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hospitals: make(map[uint]*models.Hospital),
		users:     make(map[string]*models.User),
	}
}

// Hospital operations
func (m *MemoryStore) CreateHospital(_ context.Context, h *models.Hospital) (*models.Hospital, error) {
	m.hospitalMu.Lock()
	defer m.hospitalMu.Unlock()

	email := models.NormalizeEmail(h.AdminEmail)
	for _, existing := range m.hospitals {
		if existing.AdminEmail == email {
			return nil, ErrAlreadyExists
		}
	}

	m.hospitalCounter++
	stored := *h
	stored.ID = m.hospitalCounter
	stored.AdminEmail = email
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt

	m.hospitals[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetHospitalByName(_ context.Context, name string) (*models.Hospital, error) {
	m.hospitalMu.RLock()
	defer m.hospitalMu.RUnlock()

	name = strings.TrimSpace(name)
	for _, h := range m.hospitals {
		if strings.EqualFold(h.Name, name) {
			out := *h
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetHospitalByAdminEmail(_ context.Context, email string) (*models.Hospital, error) {
	m.hospitalMu.RLock()
	defer m.hospitalMu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, h := range m.hospitals {
		if h.AdminEmail == email {
			out := *h
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListHospitals(_ context.Context) ([]*models.Hospital, error) {
	m.hospitalMu.RLock()
	defer m.hospitalMu.RUnlock()

	hospitals := make([]*models.Hospital, 0, len(m.hospitals))
	for _, h := range m.hospitals {
		out := *h
		hospitals = append(hospitals, &out)
	}
	return hospitals, nil
}

func (m *MemoryStore) CountHospitals(_ context.Context) (int64, error) {
	m.hospitalMu.RLock()
	defer m.hospitalMu.RUnlock()
	return int64(len(m.hospitals)), nil
}

// User operations
func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	email := models.NormalizeEmail(u.Email)
	if _, exists := m.users[email]; exists {
		return nil, ErrAlreadyExists
	}

	m.userCounter++
	now := time.Now()
	stored := *u
	stored.ID = m.userCounter
	stored.Email = email
	stored.VehicleNumber = strings.ToUpper(strings.ReplaceAll(u.VehicleNumber, " ", ""))
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.users[email] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	u, exists := m.users[models.NormalizeEmail(email)]
	if !exists {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
