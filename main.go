package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/database"
	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/handlers"
	"github.com/Ananth-NQI/greenway-backend/internal/routes"
	"github.com/Ananth-NQI/greenway-backend/internal/services"
	"github.com/Ananth-NQI/greenway-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// Initialize storage
	var store storage.Store
	storageType := "PostgreSQL Database"
	if cfg.UseMemoryStore {
		zlog.Warn("using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
		storageType = "In-Memory"
	} else {
		db, err := database.Connect(cfg.Database, zlog)
		if err != nil {
			zlog.Fatal("database unavailable", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			zlog.Fatal("failed to migrate database", zap.Error(err))
		}
		zlog.Info("database migrations completed")
		store = storage.NewDatabaseStore(db)
	}

	if _, err := database.SeedHospitals(ctx, store, database.ChennaiHospitals, cfg.Hospitals.SeedAdminPassword, zlog); err != nil {
		zlog.Error("hospital seeding failed", zap.Error(err))
	}

	codes, closeCodes := newCodeStore(ctx, cfg, zlog)
	defer closeCodes()

	// Message transports; channels without one fall back to the log.
	dispatcher := services.NewDispatcher()
	if cfg.SMTPEnabled() {
		dispatcher.Register(services.ChannelEmail, services.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, ""))
		zlog.Info("smtp mailer configured", zap.String("host", cfg.SMTP.Host))
	} else {
		dispatcher.Register(services.ChannelEmail, services.NewLogNotifier(services.ChannelEmail, zlog))
		zlog.Warn("smtp not configured, e-mail is logged only")
	}
	if cfg.TwilioEnabled() {
		twilioService, err := services.NewTwilioService(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize Twilio service", zap.Error(err))
		}
		dispatcher.Register(services.ChannelSMS, twilioService.SMSNotifier())
		dispatcher.Register(services.ChannelWhatsApp, twilioService.WhatsAppNotifier())
		zlog.Info("twilio configured")
	} else {
		dispatcher.Register(services.ChannelSMS, services.NewLogNotifier(services.ChannelSMS, zlog))
		dispatcher.Register(services.ChannelWhatsApp, services.NewLogNotifier(services.ChannelWhatsApp, zlog))
	}
	templates := services.NewTemplateService(dispatcher)

	// Initialize all services
	sessions := services.NewSessionManager(cfg.Stream.SubscriberBuffer, zlog)
	signals := services.NewSignalRegistry(cfg.Stream.SubscriberBuffer, zlog)
	otpService := services.NewOTPService(codes, store, templates, cfg.OTP.TTL, zlog)
	confirmService := services.NewConfirmationService(sessions, store, templates, zlog)
	hospitalService := services.NewHospitalService(store, cfg.Hospitals.NearbyRadiusKM, templates, zlog)

	app := fiber.New(fiber.Config{
		AppName: "GreenWay Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Device-Signature",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Health:   handlers.NewHealthHandler(version, storageType, store, sessions, signals),
		OTP:      handlers.NewOTPHandler(otpService, zlog),
		Session:  handlers.NewSessionHandler(sessions, otpService, cfg.PublicURL, cfg.Stream, zlog),
		Confirm:  handlers.NewConfirmHandler(confirmService, zlog),
		Signal:   handlers.NewSignalHandler(signals, cfg.Stream, zlog),
		Hospital: handlers.NewHospitalHandler(hospitalService, zlog),
	}, cfg.DeviceSecret, zlog)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("gracefully shutting down")
		// Open event streams end once their subscriptions close.
		sessions.Close()
		signals.Close()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("GreenWay backend starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("storage", storageType),
		zap.String("code_store", cfg.OTP.Store),
		zap.String("public_url", cfg.PublicURL),
		zap.Bool("device_signatures", cfg.DeviceSecret != ""),
	)

	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newCodeStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (storage.CodeStore, func()) {
	if cfg.OTP.Store != config.CodeStoreRedis {
		return storage.NewMemoryCodeStore(), func() {}
	}

	rs := storage.NewRedisCodeStore(cfg.Redis.Addr, cfg.Redis.Password)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		zlog.Fatal("redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	zlog.Info("using redis code store", zap.String("addr", cfg.Redis.Addr))
	return rs, func() {
		if err := rs.Close(); err != nil {
			zlog.Warn("closing redis", zap.Error(err))
		}
	}
}
