package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

func TestMemoryStore_HospitalLookupsAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.CreateHospital(ctx, &models.Hospital{
		Name:              "Rela Hospital",
		AdminEmail:        "  Admin@Rela.Hospital ",
		AdminPasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, "admin@rela.hospital", created.AdminEmail)

	byName, err := s.GetHospitalByName(ctx, "rela HOSPITAL")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := s.GetHospitalByAdminEmail(ctx, "ADMIN@rela.hospital")
	require.NoError(t, err)
	assert.Equal(t, "hash", byEmail.AdminPasswordHash)

	_, err = s.GetHospitalByName(ctx, "Rela")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateHospital(ctx, &models.Hospital{Name: "Other", AdminEmail: "admin@rela.hospital"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	n, err := s.CountHospitals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.CreateHospital(ctx, &models.Hospital{Name: "SIMS Hospital", AdminEmail: "a@sims.hospital"})
	require.NoError(t, err)

	list, err := s.ListHospitals(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list[0].Name = "mutated"

	again, err := s.GetHospitalByName(ctx, "SIMS Hospital")
	require.NoError(t, err)
	assert.Equal(t, "SIMS Hospital", again.Name)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u, err := s.CreateUser(ctx, &models.User{Name: "Priya", Email: "Priya@X.com", VehicleNumber: "tn ab 1234"})
	require.NoError(t, err)
	assert.Equal(t, "priya@x.com", u.Email)
	assert.Equal(t, "TNAB1234", u.VehicleNumber)

	_, err = s.CreateUser(ctx, &models.User{Email: "priya@x.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.GetUserByEmail(ctx, "PRIYA@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
