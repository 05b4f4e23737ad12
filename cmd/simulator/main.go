// Command simulator plays roadside signal controllers against a running
// GreenWay backend: it periodically raises, reads back and clears emergency
// claims through the public HTTP API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := jobs.NewSignalSimulator(cfg.Simulator, cfg.DeviceSecret, logger)
	sim.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down simulator")
	sim.Stop()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
