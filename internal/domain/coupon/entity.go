// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon value is applied
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "Percentage"
	DiscountTypeFixedAmount DiscountType = "FixedAmount"
)

// IsValid reports whether t is a known discount type
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixedAmount
}

// Coupon is a discount code. Codes are stored uppercase and matched case-insensitively.
type Coupon struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Code           string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Type           DiscountType    `gorm:"not null;size:20" json:"type"`
	Value          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	MaxUsesTotal   *int            `json:"max_uses_total,omitempty"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	CurrentUses    int             `gorm:"not null;default:0" json:"current_uses"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CouponUsage is an append-only redemption record
type CouponUsage struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	CouponID uint      `gorm:"not null;index" json:"coupon_id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	OrderID  *uint     `gorm:"index" json:"order_id,omitempty"`
	UsedAt   time.Time `gorm:"not null" json:"used_at"`
}

func (Coupon) TableName() string      { return "coupons" }
func (CouponUsage) TableName() string { return "coupon_usages" }

// IsExpired reports whether the expiration date has passed
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}

// IsExhausted reports whether the total use limit has been reached
func (c *Coupon) IsExhausted() bool {
	return c.MaxUsesTotal != nil && c.CurrentUses >= *c.MaxUsesTotal
}

// UsesRemaining is nil for unlimited coupons
func (c *Coupon) UsesRemaining() *int {
	if c.MaxUsesTotal == nil {
		return nil
	}
	remaining := *c.MaxUsesTotal - c.CurrentUses
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Validate checks inactive, expired and exhausted in that order and
// reports the first failure as InvalidState
func (c *Coupon) Validate(now time.Time) error {
	switch {
	case !c.IsActive:
		return apperror.InvalidState("Coupon is inactive")
	case c.IsExpired(now):
		return apperror.InvalidState("Coupon has expired")
	case c.IsExhausted():
		return apperror.InvalidState("Coupon has reached maximum usage limit")
	}
	return nil
}

// ComputeDiscount returns the discount for subtotal rounded to cents. The
// result never exceeds the subtotal.
func (c *Coupon) ComputeDiscount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Type {
	case DiscountTypePercentage:
		discount = money.Percent(subtotal, c.Value)
	default:
		discount = c.Value
	}

	return money.Round(money.Min(discount, subtotal))
}

// CouponView is the admin projection with derived fields
type CouponView struct {
	Coupon
	IsExpired     bool `json:"is_expired"`
	UsesRemaining *int `json:"uses_remaining"`
}

func newCouponView(c Coupon, now time.Time) CouponView {
	return CouponView{Coupon: c, IsExpired: c.IsExpired(now), UsesRemaining: c.UsesRemaining()}
}
