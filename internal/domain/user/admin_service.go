// internal/domain/user/admin_service.go
package user

import (
	"context"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminService handles admin user management operations
type AdminService struct {
	db              *gorm.DB
	passwordManager *auth.PasswordManager
	config          *config.Config
	logger          *logrus.Logger
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *AdminService {
	return &AdminService{
		db:              db,
		passwordManager: auth.NewPasswordManager(cfg),
		config:          cfg,
		logger:          logger,
	}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	Search string `form:"search"`
	Role   string `form:"role"`
}

// UserWithStats represents user with additional statistics
type UserWithStats struct {
	UserInfo
	UpdatedAt    time.Time `json:"updated_at"`
	AddressCount int64     `json:"address_count"`
}

// UserDetail is the admin view of one account
type UserDetail struct {
	UserInfo
	UpdatedAt   time.Time       `json:"updated_at"`
	Addresses   []Address       `json:"addresses"`
	OrderCount  int64           `json:"order_count"`
	ReviewCount int64           `json:"review_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

// AdminUpdateUserRequest changes account details. Nil or blank fields are left alone.
type AdminUpdateUserRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
}

// ResetPasswordRequest sets a new password. An empty password generates a temporary one.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ResetPasswordResult carries the generated password, if any
type ResetPasswordResult struct {
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// GetUsers lists accounts with their address counts
func (s *AdminService) GetUsers(ctx context.Context, req *UserListRequest) ([]UserWithStats, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&User{})

	if req != nil {
		if search := strings.TrimSpace(req.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
				like, like, like, like)
		}
		if req.Role != "" {
			query = query.Where("role = ?", req.Role)
		}
	}

	var users []User
	if err := query.Order("id asc").Find(&users).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve users")
	}

	var counts []struct {
		UserID uint
		Count  int64
	}
	err := db.Model(&Address{}).Select("user_id, COUNT(*) AS count").Group("user_id").Scan(&counts).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to count addresses")
	}
	byUser := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byUser[c.UserID] = c.Count
	}

	result := make([]UserWithStats, len(users))
	for i := range users {
		result[i] = UserWithStats{
			UserInfo:     users[i].Info(),
			UpdatedAt:    users[i].UpdatedAt,
			AddressCount: byUser[users[i].ID],
		}
	}
	return result, nil
}

// GetUser returns one account with addresses, order and review counts and the amount spent on paid orders
func (s *AdminService) GetUser(ctx context.Context, id uint) (*UserDetail, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, id)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{UserInfo: user.Info(), UpdatedAt: user.UpdatedAt, TotalSpent: decimal.Zero}

	if err := db.Where("user_id = ?", id).Order("id asc").Find(&detail.Addresses).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve addresses")
	}
	if err := db.Model(&order.Order{}).Where("user_id = ?", id).Count(&detail.OrderCount).Error; err != nil {
		return nil, apperror.Internal(err, "failed to count orders")
	}
	if err := db.Model(&product.Review{}).Where("user_id = ?", id).Count(&detail.ReviewCount).Error; err != nil {
		return nil, apperror.Internal(err, "failed to count reviews")
	}

	var totals []decimal.Decimal
	err = db.Model(&order.Order{}).
		Where("user_id = ? AND payment_status IN ?", id, []order.PaymentStatus{order.PaymentStatusCompleted, order.PaymentStatusPartiallyRefunded}).
		Pluck("total_price", &totals).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to sum orders")
	}
	for _, t := range totals {
		detail.TotalSpent = detail.TotalSpent.Add(t)
	}

	return detail, nil
}

// UpdateUser changes contact details and role
func (s *AdminService) UpdateUser(ctx context.Context, id uint, req *AdminUpdateUserRequest) (*User, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && strings.TrimSpace(*req.Role) != "" {
		role := strings.TrimSpace(*req.Role)
		if role != auth.RoleAdmin && role != auth.RoleUser {
			return nil, apperror.InvalidArgument("Role must be Admin or User")
		}
		user.Role = role
	}
	applyContactUpdates(user, req.Email, req.FirstName, req.LastName, req.PhoneNumber)

	if err := db.Save(user).Error; err != nil {
		return nil, apperror.Internal(err, "failed to update user")
	}

	s.logger.WithFields(logrus.Fields{"user_id": id, "role": user.Role}).Info("user updated by admin")
	return user, nil
}

// ResetPassword replaces a user's password without the current one
func (s *AdminService) ResetPassword(ctx context.Context, id uint, req *ResetPasswordRequest) (*ResetPasswordResult, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, id)
	if err != nil {
		return nil, err
	}

	result := &ResetPasswordResult{}
	password := req.NewPassword
	if password == "" {
		password, err = s.passwordManager.GenerateTemporaryPassword()
		if err != nil {
			return nil, apperror.Internal(err, "failed to generate password")
		}
		result.TemporaryPassword = password
	} else if len(strings.TrimSpace(password)) < s.config.Shop.MinPasswordLength {
		return nil, apperror.InvalidArgument("New password must be at least %d characters long", s.config.Shop.MinPasswordLength)
	}

	hashedPassword, err := s.passwordManager.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := db.Model(user).Update("password", hashedPassword).Error; err != nil {
		return nil, apperror.Internal(err, "failed to reset password")
	}

	s.logger.WithField("user_id", id).Info("password reset by admin")
	return result, nil
}
