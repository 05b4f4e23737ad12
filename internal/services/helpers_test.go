package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
)

const (
	testAdminEmail    = "admin@rela.hospital"
	testAdminPassword = "s3cret-pass"
)

type sentMessage struct {
	To, Subject, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordingNotifier) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestDirectory returns a memory store holding Rela Hospital and its admin.
func newTestDirectory(t *testing.T) *storage.MemoryStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	_, err = store.CreateHospital(context.Background(), &models.Hospital{
		Name:              "Rela Hospital",
		Latitude:          13.0103,
		Longitude:         80.2209,
		AdminEmail:        testAdminEmail,
		AdminPasswordHash: string(hash),
	})
	require.NoError(t, err)
	_, err = store.CreateHospital(context.Background(), &models.Hospital{
		Name:              "MIOT International",
		Latitude:          13.0111,
		Longitude:         80.1692,
		AdminEmail:        "admin@miot-international.hospital",
		AdminPasswordHash: string(hash),
	})
	require.NoError(t, err)
	return store
}

// sequence returns a generator yielding values in order, repeating the last.
func sequence(values ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}
}
