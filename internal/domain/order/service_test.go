package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/checkout"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	orders    *order.Service
	checkout  *checkout.Service
	carts     *cart.Service
	publisher *events.MemoryPublisher
	mailer    *email.EmailService
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	cfg := dbtest.Config()
	log := logger.Discard()
	publisher := events.NewMemoryPublisher()
	mailer := email.NewEmailService(cfg, log)
	return &fixture{
		db:        db,
		orders:    order.NewService(db, cfg, log, publisher, mailer),
		checkout:  checkout.NewService(db, cfg, publisher, log),
		carts:     cart.NewService(db, log),
		publisher: publisher,
		mailer:    mailer,
	}
}

func (f *fixture) place(t *testing.T, userID uint, items ...checkout.PlaceOrderItem) *order.Order {
	t.Helper()
	o, err := f.checkout.PlaceOrder(context.Background(), userID, &checkout.PlaceOrderRequest{Items: items})
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p.StockQuantity
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 2, checkout.PlaceOrderItem{ProductID: 1, Quantity: 1})

	got, err := f.orders.GetOrder(ctx, o.ID, &auth.Identity{UserID: 2, Role: auth.RoleUser})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "The Great Gatsby", got.Items[0].ProductName)

	_, err = f.orders.GetOrder(ctx, o.ID, &auth.Identity{UserID: 3, Role: auth.RoleUser})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.orders.GetOrder(ctx, o.ID, &auth.Identity{UserID: 1, Role: auth.RoleAdmin})
	assert.NoError(t, err)

	mine, err := f.orders.GetUserOrders(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, mine)

	all, err := f.orders.GetOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 2, checkout.PlaceOrderItem{ProductID: 6, Quantity: 2})
	require.Equal(t, 1, f.stock(t, 6))

	_, err := f.orders.CancelOrder(ctx, 3, o.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	cancelled, err := f.orders.CancelOrder(ctx, 2, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, order.PaymentStatusFailed, cancelled.PaymentStatus)
	assert.Equal(t, 3, f.stock(t, 6))

	_, err = f.orders.CancelOrder(ctx, 2, o.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, "Cannot cancel order with payment status: Failed", apperror.Message(err))
	assert.Equal(t, 3, f.stock(t, 6))

	assert.Contains(t, f.publisher.Types(), events.OrderCancelled)
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, email.EmailTypeOrderCancelled, sent[0].Type)
	assert.Equal(t, []string{"user@example.com"}, sent[0].To)
}

func TestUpdateStatusRestoresStockOnceOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 2, checkout.PlaceOrderItem{ProductID: 1, Quantity: 4})
	require.Equal(t, 11, f.stock(t, 1))

	shipped, err := f.orders.UpdateStatus(ctx, o.ID, order.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipped, shipped.Status)
	assert.Equal(t, 11, f.stock(t, 1))

	_, err = f.orders.UpdateStatus(ctx, o.ID, order.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 15, f.stock(t, 1))

	_, err = f.orders.UpdateStatus(ctx, o.ID, order.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 15, f.stock(t, 1))

	_, err = f.orders.UpdateStatus(ctx, o.ID, "Lost")
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	_, err = f.orders.UpdateStatus(ctx, 999, order.OrderStatusShipped)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCustomerCancelAfterShopCancelKeepsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 2, checkout.PlaceOrderItem{ProductID: 6, Quantity: 2})
	require.Equal(t, 1, f.stock(t, 6))

	_, err := f.orders.UpdateStatus(ctx, o.ID, order.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, 6))

	cancelled, err := f.orders.CancelOrder(ctx, 2, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusFailed, cancelled.PaymentStatus)
	assert.Equal(t, 3, f.stock(t, 6))
}

func TestExpiryAfterShopCancelKeepsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, 2, &cart.AddToCartRequest{ProductID: 6, Quantity: 3})
	require.NoError(t, err)
	o, err := f.checkout.CreateOrder(ctx, 2, &checkout.CreateOrderRequest{})
	require.NoError(t, err)
	require.Zero(t, f.stock(t, 6))

	_, err = f.orders.UpdateStatus(ctx, o.ID, order.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, 3, f.stock(t, 6))

	stored, err := order.FindOrder(f.db, o.ID)
	require.NoError(t, err)
	err = f.db.Transaction(func(tx *gorm.DB) error {
		expired, err := order.ExpireIfDue(tx, stored, stored.ExpiresAt.Add(time.Second))
		assert.True(t, expired)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, 6))
}

func TestExpireIfDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, 2, &cart.AddToCartRequest{ProductID: 35, Quantity: 2})
	require.NoError(t, err)
	o, err := f.checkout.CreateOrder(ctx, 2, &checkout.CreateOrderRequest{})
	require.NoError(t, err)
	require.NotNil(t, o.ExpiresAt)
	require.Zero(t, f.stock(t, 35))

	pending, err := f.orders.GetPendingOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].IsExpired)
	assert.Greater(t, pending[0].MinutesRemaining, 14.0)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		expired, err := order.ExpireIfDue(tx, o, time.Now().UTC())
		assert.False(t, expired)
		return err
	})
	require.NoError(t, err)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		expired, err := order.ExpireIfDue(tx, o, o.ExpiresAt.Add(time.Second))
		assert.True(t, expired)
		return err
	})
	require.NoError(t, err)

	reloaded, err := order.FindOrder(f.db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, order.PaymentStatusFailed, reloaded.PaymentStatus)
	assert.Equal(t, 2, f.stock(t, 35))
}

func TestDeleteOrderKeepsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 2, checkout.PlaceOrderItem{ProductID: 2, Quantity: 3})

	require.NoError(t, f.orders.DeleteOrder(ctx, o.ID))
	assert.Equal(t, 17, f.stock(t, 2))

	var items int64
	require.NoError(t, f.db.Model(&order.OrderItem{}).Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)

	err := f.orders.DeleteOrder(ctx, o.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGetInvoiceIncludesCustomerAndAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	john := &auth.Identity{UserID: 2, Role: auth.RoleUser}

	_, err := f.carts.AddItem(ctx, 2, &cart.AddToCartRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	address := uint(2)
	o, err := f.checkout.CreateOrder(ctx, 2, &checkout.CreateOrderRequest{ShippingAddressID: &address})
	require.NoError(t, err)

	invoice, err := f.orders.GetInvoice(ctx, o.ID, john)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", invoice.CustomerName)
	assert.Equal(t, "user@example.com", invoice.CustomerEmail)
	require.NotNil(t, invoice.ShippingAddress)
	assert.Equal(t, []string{"456 Oak Avenue", "Los Angeles, CA 90001", "USA"}, invoice.ShippingAddress.Lines())
	assert.Len(t, invoice.Order.Items, 1)

	_, err = f.orders.GetInvoice(ctx, o.ID, &auth.Identity{UserID: 3, Role: auth.RoleUser})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	placed := f.place(t, 2, checkout.PlaceOrderItem{ProductID: 2, Quantity: 1})
	invoice, err = f.orders.GetInvoice(ctx, placed.ID, john)
	require.NoError(t, err)
	assert.Nil(t, invoice.ShippingAddress)
}
