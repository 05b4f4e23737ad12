package storage

import (
	"context"
	"sync"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

// CodeStore holds verification codes keyed by owner. At most one code per
// owner is current; Put overwrites.
type CodeStore interface {
	Put(ctx context.Context, code models.VerificationCode) error
	// Consume atomically removes and returns the owner's record when its code
	// equals code. Returns ErrNotFound otherwise and leaves state untouched.
	// Expiry is the caller's concern.
	Consume(ctx context.Context, owner, code string) (*models.VerificationCode, error)
	Len(ctx context.Context) (int, error)
}

// MemoryCodeStore is the in-process CodeStore.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]models.VerificationCode
}

// NewMemoryCodeStore creates an empty code store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]models.VerificationCode)}
}

func (s *MemoryCodeStore) Put(_ context.Context, code models.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Owner] = code
	return nil
}

func (s *MemoryCodeStore) Consume(_ context.Context, owner, code string) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.codes[owner]
	if !ok || stored.Code != code {
		return nil, ErrNotFound
	}
	delete(s.codes, owner)
	return &stored, nil
}

func (s *MemoryCodeStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes), nil
}
