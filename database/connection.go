package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

// Cloud SQL exposes instances as unix sockets under this directory.
const socketDir = "/cloudsql"

// DSN builds the PostgreSQL connection string. With an instance connection
// name it targets the Cloud SQL socket, otherwise TCP.
func DSN(cfg config.DatabaseConfig) string {
	if cfg.InstanceConnectionName != "" {
		return fmt.Sprintf("host=%s/%s user=%s password=%s dbname=%s sslmode=disable",
			socketDir, cfg.InstanceConnectionName, cfg.User, cfg.Password, cfg.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
}

// Connect opens the database. Duplicate-key violations surface as
// gorm.ErrDuplicatedKey.
func Connect(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.InstanceConnectionName != "" {
		logger.Info("connecting to Cloud SQL via socket", zap.String("instance", cfg.InstanceConnectionName))
	} else {
		logger.Info("connecting to PostgreSQL", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Info("database connected")
	return db, nil
}

// Migrate creates or updates the directory tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Hospital{},
		&models.User{},
	)
}
