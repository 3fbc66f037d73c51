// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/farumdev/bookstore-backend/internal/interfaces/http"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting")

	// Connect to database
	db, err := database.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.Health(healthCtx)
	cancelHealth()
	if err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}

	// Run database migrations
	if err := database.Migrate(db.GetDB(), log); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if cfg.Database.Seed {
		if err := database.Seed(db.GetDB(), cfg.Security.BcryptCost, log); err != nil {
			log.Fatalf("Data seeding failed: %v", err)
		}
	}

	// Connect to Redis; nil when disabled
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	publisher := events.NewPublisher(cfg, log)
	defer publisher.Close()

	mailer := email.NewEmailService(cfg, log)

	log.Info("All systems operational")

	server := http.NewServer(cfg, db.GetDB(), redisClient, log, publisher, mailer)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
