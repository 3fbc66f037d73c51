package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/checkout"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const customer = uint(2)

type fixture struct {
	db        *gorm.DB
	checkout  *checkout.Service
	carts     *cart.Service
	publisher *events.MemoryPublisher
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	log := logger.Discard()
	pub := events.NewMemoryPublisher()
	return &fixture{
		db:        db,
		checkout:  checkout.NewService(db, dbtest.Config(), pub, log),
		carts:     cart.NewService(db, log),
		publisher: pub,
	}
}

func (f *fixture) addToCart(t *testing.T, productID uint, quantity int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), customer, &cart.AddToCartRequest{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, f.db.First(&p, productID).Error)
	return p.StockQuantity
}

func (f *fixture) couponUses(t *testing.T, code string) int {
	t.Helper()
	var c coupon.Coupon
	require.NoError(t, f.db.Where("code = ?", code).First(&c).Error)
	return c.CurrentUses
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.CreateOrder(ctx, customer, &checkout.CreateOrderRequest{})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Cart is empty", apperror.Message(err))

	f.addToCart(t, 1, 1)

	// address 4 belongs to User2
	foreign := uint(4)
	_, err = f.checkout.CreateOrder(ctx, customer, &checkout.CreateOrderRequest{ShippingAddressID: &foreign})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Invalid shipping address", apperror.Message(err))
	assert.Equal(t, 15, f.stock(t, 1))
}

func TestCreateOrderReservesStockAndKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addToCart(t, 1, 2)
	_, err := f.carts.ApplyCoupon(ctx, customer, "SAVE10")
	require.NoError(t, err)

	address := uint(2)
	before := time.Now().UTC()
	created, err := f.checkout.CreateOrder(ctx, customer, &checkout.CreateOrderRequest{ShippingAddressID: &address})
	require.NoError(t, err)

	assert.Equal(t, "21.98", created.SubtotalPrice.StringFixed(2))
	assert.Equal(t, "2.20", created.DiscountAmount.StringFixed(2))
	assert.Equal(t, "19.78", created.TotalPrice.StringFixed(2))
	require.NotNil(t, created.CouponCode)
	assert.Equal(t, "SAVE10", *created.CouponCode)
	require.NotNil(t, created.ExpiresAt)
	assert.WithinDuration(t, before.Add(15*time.Minute), *created.ExpiresAt, 5*time.Second)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "The Great Gatsby", created.Items[0].ProductName)

	assert.Equal(t, 13, f.stock(t, 1))
	// redeemed only once the payment succeeds
	assert.Equal(t, 0, f.couponUses(t, "SAVE10"))

	view, err := f.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	assert.Equal(t, []string{events.OrderCreated}, f.publisher.Types())
}

func TestCreateOrderFailsWhenStockRanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addToCart(t, 35, 2)
	require.NoError(t, f.db.Model(&product.Product{}).Where("id = ?", 35).Update("stock_quantity", 1).Error)

	_, err := f.checkout.CreateOrder(ctx, customer, nil)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	assert.Equal(t, 1, f.stock(t, 35))
	assert.Empty(t, f.publisher.Types())
}

func TestCartCheckoutRedeemsCouponAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addToCart(t, 1, 1)
	f.addToCart(t, 2, 1)
	_, err := f.carts.ApplyCoupon(ctx, customer, "WELCOME5")
	require.NoError(t, err)

	summary, err := f.checkout.CartCheckout(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, "19.98", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", summary.DiscountAmount.StringFixed(2))
	assert.Equal(t, "14.98", summary.Total.StringFixed(2))
	require.NotNil(t, summary.CouponCode)
	assert.Nil(t, summary.Order.ExpiresAt)

	assert.Equal(t, 14, f.stock(t, 1))
	assert.Equal(t, 19, f.stock(t, 2))
	assert.Equal(t, 1, f.couponUses(t, "WELCOME5"))

	var usage coupon.CouponUsage
	require.NoError(t, f.db.Where("user_id = ?", customer).First(&usage).Error)
	require.NotNil(t, usage.OrderID)
	assert.Equal(t, summary.Order.ID, *usage.OrderID)

	view, err := f.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.AppliedCouponCode)

	assert.Equal(t, []string{events.OrderCreated, events.CouponRedeemed}, f.publisher.Types())

	_, err = f.checkout.CartCheckout(ctx, customer)
	assert.Equal(t, "Cart is empty.", apperror.Message(err))
}

func TestCartCheckoutChecksStockFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addToCart(t, 6, 3)
	require.NoError(t, f.db.Model(&product.Product{}).Where("id = ?", 6).Update("stock_quantity", 1).Error)

	_, err := f.checkout.CartCheckout(ctx, customer)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	assert.Equal(t, "Insufficient stock for 'Moby-Dick'. Available: 1, In cart: 3", apperror.Message(err))

	view, err := f.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.PlaceOrder(ctx, customer, &checkout.PlaceOrderRequest{})
	assert.Equal(t, "Order must contain at least one item.", apperror.Message(err))

	_, err = f.checkout.PlaceOrder(ctx, 99, &checkout.PlaceOrderRequest{Items: []checkout.PlaceOrderItem{{ProductID: 1, Quantity: 1}}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "User not found.", apperror.Message(err))

	_, err = f.checkout.PlaceOrder(ctx, customer, &checkout.PlaceOrderRequest{Items: []checkout.PlaceOrderItem{{ProductID: 999, Quantity: 1}}})
	assert.Equal(t, "Product with ID 999 not found.", apperror.Message(err))

	_, err = f.checkout.PlaceOrder(ctx, customer, &checkout.PlaceOrderRequest{Items: []checkout.PlaceOrderItem{{ProductID: 1, Quantity: 0}}})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Quantity for product 'The Great Gatsby' must be greater than zero.", apperror.Message(err))

	// a failing line leaves the earlier ones untouched
	_, err = f.checkout.PlaceOrder(ctx, customer, &checkout.PlaceOrderRequest{Items: []checkout.PlaceOrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 35, Quantity: 3},
	}})
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	assert.Equal(t, 15, f.stock(t, 1))
	assert.Equal(t, 2, f.stock(t, 35))
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.checkout.PlaceOrder(ctx, customer, &checkout.PlaceOrderRequest{Items: []checkout.PlaceOrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 2},
	}})
	require.NoError(t, err)

	require.Len(t, created.Items, 2)
	assert.Equal(t, "17.98", created.Items[1].TotalPrice.StringFixed(2))
	assert.Equal(t, "28.97", created.TotalPrice.StringFixed(2))
	assert.True(t, created.DiscountAmount.IsZero())
	assert.Nil(t, created.ExpiresAt)
	assert.Equal(t, 14, f.stock(t, 1))
	assert.Equal(t, 18, f.stock(t, 2))
}
