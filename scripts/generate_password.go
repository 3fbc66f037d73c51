// Prints a bcrypt hash for a password, using the configured cost, for
// hand-written seed rows.
package main

import (
	"fmt"
	"os"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	passwords := auth.NewPasswordManager(cfg)
	hash, err := passwords.HashPassword(os.Args[1])
	if err != nil {
		logrus.Fatalf("Error generating hash: %v", err)
	}

	if err := passwords.VerifyPassword(os.Args[1], hash); err != nil {
		logrus.Fatalf("Hash verification failed: %v", err)
	}

	fmt.Printf("Cost: %d\n", cfg.Security.BcryptCost)
	fmt.Printf("Hash: %s\n", hash)
}
