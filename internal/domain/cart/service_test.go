package cart_test

import (
	"context"
	"testing"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const customer = uint(2)

func newService(t *testing.T) (*cart.Service, *gorm.DB) {
	db := dbtest.New(t)
	return cart.NewService(db, logger.Discard()), db
}

func TestGetCartCreatesEmptyCart(t *testing.T) {
	svc, _ := newService(t)

	view, err := svc.GetCart(context.Background(), customer)
	require.NoError(t, err)

	assert.Equal(t, customer, view.UserID)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.TotalPrice.StringFixed(2))

	again, err := svc.GetCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, view.ID, again.ID)
}

func TestAddItemMergesLinesAndNumbersThem(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 2, Quantity: 1})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, uint(1), view.Items[0].LineID)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, "The Great Gatsby", view.Items[0].ProductName)
	assert.Equal(t, uint(2), view.Items[1].LineID)
	assert.Equal(t, 6, view.TotalItems)
	// 5 x 10.99 + 8.99
	assert.Equal(t, "63.94", view.Subtotal.StringFixed(2))
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 999, Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Product with ID 999 not found.", apperror.Message(err))

	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 0})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	// The Fault in Our Stars is out of stock
	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 34, Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	// Moby-Dick has 3 in stock
	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 6, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 6, Quantity: 2})
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	assert.Equal(t, "Cannot add 2 more. Cart has 2, available stock: 3", apperror.Message(err))
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpdateItemQuantity(ctx, customer, 1, 2)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Cart not found.", apperror.Message(err))

	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 6, Quantity: 1})
	require.NoError(t, err)

	view, err := svc.UpdateItemQuantity(ctx, customer, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Items[0].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, customer, 1, 4)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	_, err = svc.UpdateItemQuantity(ctx, customer, 7, 1)
	assert.Equal(t, "Item not found in cart.", apperror.Message(err))

	_, err = svc.RemoveItem(ctx, customer, 7)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	view, err = svc.RemoveItem(ctx, customer, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	// removing the same line again reports it missing
	_, err = svc.RemoveItem(ctx, customer, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Item not found in cart.", apperror.Message(err))
}

func TestApplyCoupon(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.ApplyCoupon(ctx, customer, "SAVE10")
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Cart is empty.", apperror.Message(err))

	_, err = svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, customer, "NOPE")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	for _, code := range []string{"EXPIRED", "LIMITED50", "INACTIVE"} {
		_, err = svc.ApplyCoupon(ctx, customer, code)
		assert.True(t, apperror.Is(err, apperror.KindInvalidState), code)
	}

	result, err := svc.ApplyCoupon(ctx, customer, "save10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", result.Coupon.Code)
	assert.Equal(t, coupon.DiscountTypePercentage, result.Coupon.Type)
	// 10% of 21.98 rounds to 2.20
	assert.Equal(t, "2.20", result.Cart.DiscountAmount.StringFixed(2))
	assert.Equal(t, "19.78", result.Cart.TotalPrice.StringFixed(2))
}

func TestDiscountFollowsCartChanges(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, customer, "SAVE10")
	require.NoError(t, err)

	view, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 2, Quantity: 1})
	require.NoError(t, err)
	// 10% of 19.98
	assert.Equal(t, "2.00", view.DiscountAmount.StringFixed(2))

	view, err = svc.RemoveCoupon(ctx, customer)
	require.NoError(t, err)
	assert.Nil(t, view.AppliedCouponCode)
	assert.True(t, view.DiscountAmount.IsZero())

	_, err = svc.RemoveCoupon(ctx, customer)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}

func TestFixedDiscountNeverExceedsSubtotal(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 4, Quantity: 1})
	require.NoError(t, err)
	result, err := svc.ApplyCoupon(ctx, customer, "WELCOME5")
	require.NoError(t, err)
	assert.Equal(t, "5.00", result.Cart.DiscountAmount.StringFixed(2))
	assert.Equal(t, "1.99", result.Cart.TotalPrice.StringFixed(2))
}

func TestDeletedCouponIsDroppedFromCart(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, customer, "SAVE10")
	require.NoError(t, err)

	require.NoError(t, db.Where("code = ?", "SAVE10").Delete(&coupon.Coupon{}).Error)

	view, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	assert.Nil(t, view.AppliedCouponCode)
	assert.True(t, view.DiscountAmount.IsZero())
}

func TestClearEmptiesCart(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, &cart.AddToCartRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, customer, "WELCOME5")
	require.NoError(t, err)

	view, err := svc.Clear(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.AppliedCouponCode)
	assert.Equal(t, "0.00", view.TotalPrice.StringFixed(2))
}
