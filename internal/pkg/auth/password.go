// internal/pkg/auth/password.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

// PasswordManager handles password operations
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		config: cfg,
	}
}

// HashPassword validates and hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.config.Security.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword checks the minimum length policy
func (p *PasswordManager) ValidatePassword(password string) error {
	minLen := p.config.Shop.MinPasswordLength
	if len(password) < minLen {
		return apperror.InvalidArgument("Password must be at least %d characters long.", minLen)
	}
	if len(password) > 72 {
		return apperror.InvalidArgument("Password must be no more than 72 characters long.")
	}
	return nil
}

// GenerateTemporaryPassword returns a random password for admin resets
func (p *PasswordManager) GenerateTemporaryPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
