package coupon

import (
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/stretchr/testify/assert"
)

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		subtotal string
		want     string
	}{
		{"percentage rounds to cents", Coupon{Type: DiscountTypePercentage, Value: money.MustParse("10")}, "21.98", "2.20"},
		{"half cent rounds away from zero", Coupon{Type: DiscountTypePercentage, Value: money.MustParse("50")}, "0.05", "0.03"},
		{"fixed amount", Coupon{Type: DiscountTypeFixedAmount, Value: money.MustParse("5")}, "20.00", "5.00"},
		{"fixed capped at subtotal", Coupon{Type: DiscountTypeFixedAmount, Value: money.MustParse("10")}, "6.99", "6.99"},
		{"full percentage", Coupon{Type: DiscountTypePercentage, Value: money.MustParse("100")}, "12.34", "12.34"},
		{"empty subtotal", Coupon{Type: DiscountTypeFixedAmount, Value: money.MustParse("5")}, "0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.ComputeDiscount(money.MustParse(tt.subtotal))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestValidateReportsFirstFailure(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	limit := 5

	c := Coupon{IsActive: false, ExpirationDate: &past, MaxUsesTotal: &limit, CurrentUses: 5}
	assert.Equal(t, "Coupon is inactive", apperror.Message(c.Validate(now)))

	c.IsActive = true
	assert.Equal(t, "Coupon has expired", apperror.Message(c.Validate(now)))

	c.ExpirationDate = nil
	err := c.Validate(now)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, "Coupon has reached maximum usage limit", apperror.Message(err))

	c.CurrentUses = 4
	assert.NoError(t, c.Validate(now))
	assert.Equal(t, 1, *c.UsesRemaining())
}
