// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Service handles coupon validation, redemption and administration
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code           string          `json:"code" binding:"required"`
	Type           DiscountType    `json:"type" binding:"required"`
	Value          decimal.Decimal `json:"value"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	MaxUsesTotal   *int            `json:"max_uses_total"`
}

// UpdateCouponRequest represents coupon update data
type UpdateCouponRequest struct {
	Code           *string          `json:"code"`
	Value          *decimal.Decimal `json:"value"`
	ExpirationDate *time.Time       `json:"expiration_date"`
	MaxUsesTotal   *int             `json:"max_uses_total"`
	IsActive       *bool            `json:"is_active"`
}

// Preview is the public answer to a coupon validation request
type Preview struct {
	Code           string          `json:"code"`
	Type           DiscountType    `json:"type"`
	Value          decimal.Decimal `json:"value"`
	IsValid        bool            `json:"is_valid"`
	Message        string          `json:"message"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	UsesRemaining  *int            `json:"uses_remaining,omitempty"`
}

// UsageRecord is a redemption joined with the redeeming user's name
type UsageRecord struct {
	ID       uint      `json:"id"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	OrderID  *uint     `json:"order_id,omitempty"`
	UsedAt   time.Time `json:"used_at"`
}

// UsageReport lists every redemption of a coupon
type UsageReport struct {
	Coupon    Coupon        `json:"coupon"`
	TotalUses int           `json:"total_uses"`
	Usages    []UsageRecord `json:"usages"`
}

// FindByCode looks a coupon up case-insensitively
func FindByCode(db *gorm.DB, code string) (*Coupon, error) {
	var coupon Coupon
	err := db.Where("code = ?", normalizeCode(code)).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Invalid coupon code.")
		}
		return nil, apperror.Internal(err, "failed to retrieve coupon")
	}
	return &coupon, nil
}

// RecordUsage increments the coupon's use counter and appends a usage row.
// Runs inside the transaction that completes the order's checkout.
func RecordUsage(tx *gorm.DB, couponID, userID uint, orderID *uint, now time.Time) error {
	result := tx.Model(&Coupon{}).
		Where("id = ?", couponID).
		Update("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to record coupon usage")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Coupon not found")
	}

	usage := CouponUsage{CouponID: couponID, UserID: userID, OrderID: orderID, UsedAt: now}
	if err := tx.Create(&usage).Error; err != nil {
		return apperror.Internal(err, "failed to record coupon usage")
	}
	return nil
}

// Preview validates a code without applying it
func (s *Service) Preview(ctx context.Context, code string) (*Preview, error) {
	coupon, err := FindByCode(s.db.WithContext(ctx), code)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("Coupon code not found")
		}
		return nil, err
	}

	preview := &Preview{
		Code:  coupon.Code,
		Type:  coupon.Type,
		Value: coupon.Value,
	}
	if err := coupon.Validate(time.Now().UTC()); err != nil {
		preview.Message = apperror.Message(err)
		return preview, nil
	}

	preview.IsValid = true
	preview.Message = "Coupon is valid"
	preview.ExpirationDate = coupon.ExpirationDate
	preview.UsesRemaining = coupon.UsesRemaining()
	return preview, nil
}

// GetCoupons lists every coupon
func (s *Service) GetCoupons(ctx context.Context) ([]CouponView, error) {
	var coupons []Coupon
	if err := s.db.WithContext(ctx).Order("id asc").Find(&coupons).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve coupons")
	}

	now := time.Now().UTC()
	views := make([]CouponView, len(coupons))
	for i := range coupons {
		views[i] = newCouponView(coupons[i], now)
	}
	return views, nil
}

// CreateCoupon creates an active coupon with zero uses
func (s *Service) CreateCoupon(ctx context.Context, req *CreateCouponRequest) (*Coupon, error) {
	code := normalizeCode(req.Code)
	if len(code) < 3 {
		return nil, apperror.InvalidArgument("Coupon code must be at least 3 characters")
	}
	if !req.Type.IsValid() {
		return nil, apperror.InvalidArgument("Discount type must be Percentage or FixedAmount")
	}
	if err := validateValue(req.Type, req.Value); err != nil {
		return nil, err
	}
	if req.MaxUsesTotal != nil && *req.MaxUsesTotal < 0 {
		return nil, apperror.InvalidArgument("Maximum uses cannot be negative")
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureUniqueCode(db, code, 0); err != nil {
		return nil, err
	}

	coupon := Coupon{
		Code:           code,
		Type:           req.Type,
		Value:          money.Round(req.Value),
		ExpirationDate: req.ExpirationDate,
		MaxUsesTotal:   req.MaxUsesTotal,
		IsActive:       true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		return nil, apperror.Internal(err, "failed to create coupon")
	}

	s.logger.WithFields(logrus.Fields{"coupon_id": coupon.ID, "code": coupon.Code}).Info("coupon created")
	return &coupon, nil
}

// UpdateCoupon changes code, value, expiry, limit or the active flag
func (s *Service) UpdateCoupon(ctx context.Context, id uint, req *UpdateCouponRequest) (*Coupon, error) {
	db := s.db.WithContext(ctx)
	coupon, err := s.findCoupon(db, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Code != nil && strings.TrimSpace(*req.Code) != "" {
		code := normalizeCode(*req.Code)
		if code != coupon.Code {
			if len(code) < 3 {
				return nil, apperror.InvalidArgument("Coupon code must be at least 3 characters")
			}
			if err := s.ensureUniqueCode(db, code, id); err != nil {
				return nil, err
			}
			updates["code"] = code
		}
	}
	if req.Value != nil {
		if err := validateValue(coupon.Type, *req.Value); err != nil {
			return nil, err
		}
		updates["value"] = money.Round(*req.Value)
	}
	if req.ExpirationDate != nil {
		updates["expiration_date"] = *req.ExpirationDate
	}
	if req.MaxUsesTotal != nil {
		if *req.MaxUsesTotal < 0 {
			return nil, apperror.InvalidArgument("Maximum uses cannot be negative")
		}
		updates["max_uses_total"] = *req.MaxUsesTotal
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := db.Model(coupon).Updates(updates).Error; err != nil {
			return nil, apperror.Internal(err, "failed to update coupon")
		}
	}

	return s.findCoupon(db, id)
}

// DeleteCoupon removes a coupon together with its usage records
func (s *Service) DeleteCoupon(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&Coupon{})
		if result.Error != nil {
			return apperror.Internal(result.Error, "failed to delete coupon")
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("Coupon not found")
		}
		if err := tx.Where("coupon_id = ?", id).Delete(&CouponUsage{}).Error; err != nil {
			return apperror.Internal(err, "failed to delete coupon usages")
		}
		return nil
	})
}

// GetUsage reports every redemption of a coupon, newest first
func (s *Service) GetUsage(ctx context.Context, id uint) (*UsageReport, error) {
	db := s.db.WithContext(ctx)
	coupon, err := s.findCoupon(db, id)
	if err != nil {
		return nil, err
	}

	var usages []UsageRecord
	err = db.Table("coupon_usages cu").
		Select("cu.id, cu.user_id, u.username, cu.order_id, cu.used_at").
		Joins("LEFT JOIN users u ON u.id = cu.user_id").
		Where("cu.coupon_id = ?", id).
		Order("cu.used_at desc, cu.id desc").
		Scan(&usages).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve coupon usage")
	}

	return &UsageReport{Coupon: *coupon, TotalUses: len(usages), Usages: usages}, nil
}

func (s *Service) findCoupon(db *gorm.DB, id uint) (*Coupon, error) {
	var coupon Coupon
	if err := db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Coupon not found")
		}
		return nil, apperror.Internal(err, "failed to retrieve coupon")
	}
	return &coupon, nil
}

func (s *Service) ensureUniqueCode(db *gorm.DB, code string, exceptID uint) error {
	var count int64
	if err := db.Model(&Coupon{}).Where("code = ? AND id <> ?", code, exceptID).Count(&count).Error; err != nil {
		return apperror.Internal(err, "failed to check coupon code")
	}
	if count > 0 {
		return apperror.Conflict("Coupon code already exists")
	}
	return nil
}

// validateValue checks the value as it will be stored, rounded to cents
func validateValue(t DiscountType, value decimal.Decimal) error {
	value = money.Round(value)
	if !value.IsPositive() {
		return apperror.InvalidArgument("Discount value must be greater than 0")
	}
	if t == DiscountTypePercentage && value.GreaterThan(hundred) {
		return apperror.InvalidArgument("Percentage discount cannot exceed 100%%")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
