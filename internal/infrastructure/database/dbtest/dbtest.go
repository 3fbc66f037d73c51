// Package dbtest opens isolated, migrated and seeded sqlite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Config returns a configuration suited to tests: sqlite, no redis, log
// drivers for events and email, minimum bcrypt cost, no payment latency
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:           "LittleBugShop",
			Version:        "test",
			Environment:    "test",
			CompanyName:    "LittleBugShop Books",
			CompanyAddress: "1 Library Lane, Springfield",
			CompanyEmail:   "orders@littlebugshop.com",
			CompanyWebsite: "https://littlebugshop.com",
		},
		Server: config.ServerConfig{
			Port:           "0",
			RequestTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Seed:   true,
		},
		JWT: config.JWTConfig{
			Secret:            "test-secret-that-is-at-least-32-characters",
			Issuer:            "LittleBugShop",
			AccessTokenExpiry: time.Hour,
			CookieName:        "AuthToken",
		},
		Security: config.SecurityConfig{
			BcryptCost:         bcrypt.MinCost,
			RateLimitPerMinute: 1000,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			CORSAllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			MaxRequestBytes:    1 << 20,
		},
		Shop: config.ShopConfig{
			OrderExpiry:       15 * time.Minute,
			MinPasswordLength: 6,
			MinUsernameLength: 3,
		},
		Events: config.EventsConfig{Driver: "log", Topic: "bookstore.events"},
		Email: config.EmailConfig{
			Provider:  "log",
			FromEmail: "noreply@littlebugshop.com",
			FromName:  "LittleBugShop",
		},
		Logging: config.LoggingConfig{Level: "panic", Format: "text"},
	}
}

// New opens a private in-memory database with migrations and seed data applied
func New(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, true)
}

// NewEmpty opens a private in-memory database with migrations only
func NewEmpty(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, false)
}

func open(t testing.TB, seed bool) *gorm.DB {
	cfg := Config()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg.Database.DSN = fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	log := logger.Discard()
	db, err := database.NewConnection(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.GetDB(), log))
	if seed {
		require.NoError(t, database.Seed(db.GetDB(), cfg.Security.BcryptCost, log))
	}
	return db.GetDB()
}
