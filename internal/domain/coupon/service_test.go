package coupon_test

import (
	"context"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*coupon.Service, *gorm.DB) {
	db := dbtest.New(t)
	return coupon.NewService(db, logger.Discard()), db
}

func TestPreview(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, "winter20")
	require.NoError(t, err)
	assert.True(t, preview.IsValid)
	assert.Equal(t, "WINTER20", preview.Code)
	require.NotNil(t, preview.UsesRemaining)
	assert.Equal(t, 85, *preview.UsesRemaining)
	assert.NotNil(t, preview.ExpirationDate)

	preview, err = svc.Preview(ctx, "EXPIRED")
	require.NoError(t, err)
	assert.False(t, preview.IsValid)
	assert.Equal(t, "Coupon has expired", preview.Message)

	preview, err = svc.Preview(ctx, "INACTIVE")
	require.NoError(t, err)
	assert.False(t, preview.IsValid)
	assert.Equal(t, "Coupon is inactive", preview.Message)

	_, err = svc.Preview(ctx, "MISSING")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCreateCoupon(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateCoupon(ctx, &coupon.CreateCouponRequest{
		Code:  " spring15 ",
		Type:  coupon.DiscountTypePercentage,
		Value: money.MustParse("15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING15", created.Code)
	assert.True(t, created.IsActive)
	assert.Zero(t, created.CurrentUses)

	_, err = svc.CreateCoupon(ctx, &coupon.CreateCouponRequest{Code: "Save10", Type: coupon.DiscountTypeFixedAmount, Value: money.MustParse("1")})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	invalid := []coupon.CreateCouponRequest{
		{Code: "AB", Type: coupon.DiscountTypeFixedAmount, Value: money.MustParse("1")},
		{Code: "ZERO", Type: coupon.DiscountTypeFixedAmount, Value: money.MustParse("0")},
		{Code: "HUGE", Type: coupon.DiscountTypePercentage, Value: money.MustParse("101")},
		// both would be stored outside (0, 100] once rounded to cents
		{Code: "TINY", Type: coupon.DiscountTypePercentage, Value: money.MustParse("0.001")},
		{Code: "OVER", Type: coupon.DiscountTypePercentage, Value: money.MustParse("100.005")},
		{Code: "ODD", Type: "BuyOneGetOne", Value: money.MustParse("1")},
	}
	for _, req := range invalid {
		req := req
		_, err := svc.CreateCoupon(ctx, &req)
		assert.True(t, apperror.Is(err, apperror.KindInvalidArgument), req.Code)
	}
}

func TestUpdateCoupon(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	active := false
	value := money.MustParse("12.5")
	updated, err := svc.UpdateCoupon(ctx, 1, &coupon.UpdateCouponRequest{IsActive: &active, Value: &value})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "12.50", updated.Value.StringFixed(2))

	tiny := money.MustParse("0.004")
	_, err = svc.UpdateCoupon(ctx, 1, &coupon.UpdateCouponRequest{Value: &tiny})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	code := "welcome5"
	_, err = svc.UpdateCoupon(ctx, 1, &coupon.UpdateCouponRequest{Code: &code})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.UpdateCoupon(ctx, 99, &coupon.UpdateCouponRequest{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteCouponRemovesUsage(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	orderID := uint(42)
	require.NoError(t, coupon.RecordUsage(db, 1, 2, &orderID, time.Now().UTC()))

	report, err := svc.GetUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalUses)
	assert.Equal(t, 1, report.Coupon.CurrentUses)
	assert.Equal(t, "User", report.Usages[0].Username)
	assert.Equal(t, &orderID, report.Usages[0].OrderID)

	require.NoError(t, svc.DeleteCoupon(ctx, 1))

	var usages int64
	require.NoError(t, db.Model(&coupon.CouponUsage{}).Where("coupon_id = ?", 1).Count(&usages).Error)
	assert.Zero(t, usages)

	err = svc.DeleteCoupon(ctx, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGetCouponsDerivesExpiry(t *testing.T) {
	svc, _ := newService(t)

	coupons, err := svc.GetCoupons(context.Background())
	require.NoError(t, err)
	require.Len(t, coupons, 6)

	byCode := map[string]coupon.CouponView{}
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	assert.True(t, byCode["EXPIRED"].IsExpired)
	assert.False(t, byCode["WINTER20"].IsExpired)
	assert.Nil(t, byCode["SAVE10"].UsesRemaining)
	assert.Equal(t, 0, *byCode["LIMITED50"].UsesRemaining)
	assert.False(t, byCode["INACTIVE"].IsActive)
}
