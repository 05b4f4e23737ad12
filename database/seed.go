package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
)

// SeedHospital is one entry of the default directory.
type SeedHospital struct {
	Name      string
	Latitude  float64
	Longitude float64
}

const seedEmailFrom = "testotp.hospital@gmail.com"

// ChennaiHospitals is the default hospital directory.
var ChennaiHospitals = []SeedHospital{
	{"Rela Hospital", 13.0103, 80.2209},
	{"MIOT International", 13.0111, 80.1692},
	{"Fortis Malar Hospital", 13.0066, 80.2577},
	{"Sri Ramachandra Medical Centre", 13.0340, 80.1490},
	{"Global Hospitals", 12.9092, 80.2263},
	{"SIMS Hospital", 13.0533, 80.2118},
	{"Chennai National Hospital", 13.0794, 80.2752},
	{"Kauvery Hospital", 13.0421, 80.2502},
	{"Billroth Hospitals", 13.0799, 80.2371},
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// AdminEmail is the seeded administrator address for a hospital name.
func AdminEmail(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	return "admin@" + slug + ".hospital"
}

// SeedHospitals inserts hospitals into an empty directory. Every seeded
// administrator shares adminPassword. It returns how many were inserted.
func SeedHospitals(ctx context.Context, store storage.Store, hospitals []SeedHospital, adminPassword string, logger *zap.Logger) (int, error) {
	if adminPassword == "" {
		logger.Info("hospital seeding skipped, SEED_ADMIN_PASSWORD not set")
		return 0, nil
	}

	count, err := store.CountHospitals(ctx)
	if err != nil {
		return 0, fmt.Errorf("count hospitals: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash seed password: %w", err)
	}

	inserted := 0
	for _, h := range hospitals {
		_, err := store.CreateHospital(ctx, &models.Hospital{
			Name:              h.Name,
			Latitude:          h.Latitude,
			Longitude:         h.Longitude,
			EmailFrom:         seedEmailFrom,
			AdminEmail:        AdminEmail(h.Name),
			AdminPasswordHash: string(hash),
		})
		if errors.Is(err, storage.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", h.Name, err)
		}
		inserted++
	}

	logger.Info("hospitals seeded", zap.Int("count", inserted))
	return inserted, nil
}
