// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	redis           *redis.Client
	logger          *logrus.Logger
}

// NewService creates a new user service. redisClient may be nil, in which
// case logout only clears the cookie.
func NewService(db *gorm.DB, cfg *config.Config, redisClient *redis.Client, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
		redis:           redisClient,
		logger:          logger,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents a successful login
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UpdateProfileRequest changes contact details. Nil fields are left alone.
type UpdateProfileRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

// ChangePasswordRequest represents password change data
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Profile is the caller's account with addresses
type Profile struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Addresses   []Address `json:"addresses"`
}

// SessionInfo describes the current token and its owner
type SessionInfo struct {
	IsAuthenticated bool       `json:"is_authenticated"`
	TokenExpiration *time.Time `json:"token_expiration"`
	TokenExpiresIn  *float64   `json:"token_expires_in_minutes"`
	User            struct {
		UserInfo
		FullName  string    `json:"full_name"`
		UpdatedAt time.Time `json:"updated_at"`
	} `json:"user"`
	Stats struct {
		AddressCount int64 `json:"address_count"`
		OrderCount   int64 `json:"order_count"`
	} `json:"stats"`
}

// Register creates a new account with the User role
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*UserInfo, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < s.config.Shop.MinUsernameLength {
		return nil, apperror.InvalidArgument("Username must be at least %d characters long.", s.config.Shop.MinUsernameLength)
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, apperror.Internal(err, "failed to check username")
	}
	if existing > 0 {
		return nil, apperror.Conflict("Username already exists.")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:    username,
		Password:    hashedPassword,
		Role:        auth.RoleUser,
		Email:       req.Email,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, apperror.Internal(err, "failed to create user")
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	info := user.Info()
	return &info, nil
}

// Login verifies credentials and issues an access token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, apperror.InvalidArgument("Username and password are required.")
	}

	var user User
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthenticated("Invalid username or password.")
		}
		return nil, apperror.Internal(err, "failed to retrieve user")
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		s.logger.WithField("username", req.Username).Warn("failed login attempt")
		return nil, apperror.Unauthenticated("Invalid username or password.")
	}

	token, expiresAt, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate access token")
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user logged in")
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user.Info()}, nil
}

// Logout records the token id as revoked until the token would expire anyway
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || !s.redis.Enabled() {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, revokedKey(claims.ID), claims.UserID, ttl); err != nil {
		// fails open: the cookie is still cleared
		s.logger.WithError(err).Warn("failed to record revoked token")
	}
	return nil
}

// IsRevoked reports whether the token id was logged out
func (s *Service) IsRevoked(ctx context.Context, tokenID string) bool {
	if tokenID == "" || !s.redis.Enabled() {
		return false
	}
	revoked, err := s.redis.Exists(ctx, revokedKey(tokenID))
	if err != nil {
		s.logger.WithError(err).Warn("failed to check revoked token")
		return false
	}
	return revoked
}

func revokedKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

// GetUser returns the public projection of any user
func (s *Service) GetUser(ctx context.Context, id uint) (*UserInfo, error) {
	user, err := findUser(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	info := user.Info()
	return &info, nil
}

// GetProfile returns the caller's account and addresses
func (s *Service) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, userID)
	if err != nil {
		return nil, err
	}

	var addresses []Address
	if err := db.Where("user_id = ?", userID).Order("id asc").Find(&addresses).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve addresses")
	}

	return &Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		Addresses:   addresses,
	}, nil
}

// UpdateProfile changes the caller's contact details. Blank names and
// email are ignored; the phone number may be cleared.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, userID)
	if err != nil {
		return nil, err
	}

	applyContactUpdates(user, req.Email, req.FirstName, req.LastName, req.PhoneNumber)
	if err := db.Save(user).Error; err != nil {
		return nil, apperror.Internal(err, "failed to update profile")
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, userID)
	if err != nil {
		return err
	}

	if err := s.passwordManager.VerifyPassword(req.OldPassword, user.Password); err != nil {
		return apperror.InvalidArgument("Old password is incorrect")
	}

	hashedPassword, err := s.hashNewPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := db.Model(user).Update("password", hashedPassword).Error; err != nil {
		return apperror.Internal(err, "failed to change password")
	}

	s.logger.WithField("user_id", userID).Info("password changed")
	return nil
}

// GetSession describes the caller's token and account
func (s *Service) GetSession(ctx context.Context, identity *auth.Identity, tokenExpiry *time.Time) (*SessionInfo, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, identity.UserID)
	if err != nil {
		return nil, err
	}

	session := &SessionInfo{IsAuthenticated: true, TokenExpiration: tokenExpiry}
	if tokenExpiry != nil {
		minutes := time.Until(*tokenExpiry).Minutes()
		session.TokenExpiresIn = &minutes
	}
	session.User.UserInfo = user.Info()
	session.User.FullName = user.GetFullName()
	session.User.UpdatedAt = user.UpdatedAt

	if err := db.Model(&Address{}).Where("user_id = ?", user.ID).Count(&session.Stats.AddressCount).Error; err != nil {
		return nil, apperror.Internal(err, "failed to count addresses")
	}
	if err := db.Model(&order.Order{}).Where("user_id = ?", user.ID).Count(&session.Stats.OrderCount).Error; err != nil {
		return nil, apperror.Internal(err, "failed to count orders")
	}
	return session, nil
}

func (s *Service) hashNewPassword(password string) (string, error) {
	minLen := s.config.Shop.MinPasswordLength
	if len(strings.TrimSpace(password)) < minLen {
		return "", apperror.InvalidArgument("New password must be at least %d characters long", minLen)
	}
	return s.passwordManager.HashPassword(password)
}

func applyContactUpdates(user *User, email, firstName, lastName, phone *string) {
	if email != nil && strings.TrimSpace(*email) != "" {
		user.Email = strings.ToLower(strings.TrimSpace(*email))
	}
	if firstName != nil && strings.TrimSpace(*firstName) != "" {
		user.FirstName = strings.TrimSpace(*firstName)
	}
	if lastName != nil && strings.TrimSpace(*lastName) != "" {
		user.LastName = strings.TrimSpace(*lastName)
	}
	if phone != nil {
		user.PhoneNumber = strings.TrimSpace(*phone)
	}
}

func findUser(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Internal(err, "failed to retrieve user")
	}
	return &user, nil
}
