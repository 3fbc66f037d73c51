package payment_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/checkout"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	john         = uint(2)
	admin        = uint(1)
	johnGoodCard = uint(3) // last four 0000
	johnBadCard  = uint(4) // last four 1111
	janeCard     = uint(6)
)

type fixture struct {
	db        *gorm.DB
	payments  *payment.Service
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
		payments:  payment.NewService(db, payment.NewSimulator(0), publisher, mailer, log),
		checkout:  checkout.NewService(db, cfg, publisher, log),
		carts:     cart.NewService(db, log),
		publisher: publisher,
		mailer:    mailer,
	}
}

// cartOrder fills john's cart and turns it into a pending order
func (f *fixture) cartOrder(t *testing.T, productID uint, quantity int, couponCode string) *order.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, john, &cart.AddToCartRequest{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
	if couponCode != "" {
		_, err = f.carts.ApplyCoupon(ctx, john, couponCode)
		require.NoError(t, err)
	}
	o, err := f.checkout.CreateOrder(ctx, john, &checkout.CreateOrderRequest{})
	require.NoError(t, err)
	return o
}

func (f *fixture) paidOrder(t *testing.T, productID uint, quantity int) *payment.ProcessResult {
	t.Helper()
	o, err := f.checkout.PlaceOrder(context.Background(), john, &checkout.PlaceOrderRequest{
		Items: []checkout.PlaceOrderItem{{ProductID: productID, Quantity: quantity}},
	})
	require.NoError(t, err)
	result, err := f.payments.ProcessPayment(context.Background(), john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	require.NoError(t, err)
	require.True(t, result.Success)
	return result
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p.StockQuantity
}

func TestProcessPaymentSuccessRedeemsCouponAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.cartOrder(t, 1, 2, "SAVE10")
	require.Equal(t, "19.78", o.TotalPrice.StringFixed(2))

	result, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.CanRetry)
	assert.Equal(t, order.PaymentStatusCompleted, result.Order.PaymentStatus)
	assert.Equal(t, order.OrderStatusPending, result.Order.Status)
	require.NotNil(t, result.Transaction.OrderID)
	assert.Equal(t, o.ID, *result.Transaction.OrderID)
	assert.Equal(t, "19.78", result.Transaction.Amount.StringFixed(2))

	stored, err := order.FindOrder(f.db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Transaction.TransactionID, *stored.TransactionID)
	assert.Equal(t, johnGoodCard, *stored.PaymentMethodID)

	c, err := coupon.FindByCode(f.db, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, c.CurrentUses)

	view, err := f.carts.GetCart(ctx, john)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.AppliedCouponCode)

	assert.Equal(t, []string{events.OrderCreated, events.PaymentCompleted, events.CouponRedeemed}, f.publisher.Types())
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, email.EmailTypePaymentReceipt, sent[0].Type)
}

func TestProcessPaymentDeclinedKeepsOrderPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.cartOrder(t, 1, 1, "")

	result, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnBadCard})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.CanRetry)
	assert.Equal(t, "Payment failed: Insufficient funds", result.Message)
	assert.Nil(t, result.Transaction.OrderID)
	assert.Equal(t, payment.FailureInsufficientFunds, *result.Transaction.FailureReason)

	stored, err := order.FindOrder(f.db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPending, stored.PaymentStatus)
	assert.Equal(t, 14, f.stock(t, 1))

	view, err := f.carts.GetCart(ctx, john)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	retry, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	require.NoError(t, err)
	assert.True(t, retry.Success)

	_, err = f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, "Order payment status is Completed, cannot process payment", apperror.Message(err))
}

func TestProcessPaymentChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.cartOrder(t, 1, 1, "")

	_, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: janeCard})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Payment method not found", apperror.Message(err))

	_, err = f.payments.ProcessPayment(ctx, 3, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: janeCard})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Order not found", apperror.Message(err))

	_, err = f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: 999, PaymentMethodID: johnGoodCard})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestProcessPaymentExpiredOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.cartOrder(t, 6, 3, "")
	require.Zero(t, f.stock(t, 6))

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.db.Model(&order.Order{}).Where("id = ?", o.ID).Update("expires_at", past).Error)

	_, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, "Order has expired. Stock has been restored. Please create a new order.", apperror.Message(err))

	assert.Equal(t, 3, f.stock(t, 6))
	stored, err := order.FindOrder(f.db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, stored.Status)
	assert.Equal(t, order.PaymentStatusFailed, stored.PaymentStatus)
	assert.Contains(t, f.publisher.Types(), events.OrderExpired)

	var txns int64
	require.NoError(t, f.db.Model(&payment.Transaction{}).Count(&txns).Error)
	assert.Zero(t, txns)
}

func TestProcessPaymentRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.cartOrder(t, 6, 2, "")
	require.NoError(t, f.db.Model(&order.Order{}).Where("id = ?", o.ID).Update("status", order.OrderStatusCancelled).Error)

	_, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, "Order has been cancelled, cannot process payment", apperror.Message(err))

	stored, err := order.FindOrder(f.db, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPending, stored.PaymentStatus)

	var txns int64
	require.NoError(t, f.db.Model(&payment.Transaction{}).Count(&txns).Error)
	assert.Zero(t, txns)
}

func TestRefundPartialThenFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.paidOrder(t, 1, 1)
	txnID := paid.Transaction.TransactionID
	require.Equal(t, 14, f.stock(t, 1))

	partial, err := f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: txnID, Amount: money.MustParse("5.00"), Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPartiallyRefunded, partial.Status)
	assert.Equal(t, "5.99", partial.RemainingAmount.StringFixed(2))
	assert.Equal(t, 14, f.stock(t, 1))

	_, err = f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: txnID, Amount: money.MustParse("6.00")})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Invalid refund amount", apperror.Message(err))

	full, err := f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: txnID, Amount: money.MustParse("5.99")})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusRefunded, full.Status)
	assert.True(t, full.RemainingAmount.IsZero())
	assert.Equal(t, 15, f.stock(t, 1))

	stored, err := order.FindOrder(f.db, paid.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusRefunded, stored.PaymentStatus)
	assert.Equal(t, order.OrderStatusCancelled, stored.Status)

	_, err = f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: txnID, Amount: money.MustParse("1")})
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))

	var audits []payment.Refund
	require.NoError(t, f.db.Where("transaction_id = ?", txnID).Order("id asc").Find(&audits).Error)
	require.Len(t, audits, 2)
	assert.Equal(t, "damaged", audits[0].Reason)
	assert.Equal(t, admin, audits[1].ProcessedBy)
	assert.Len(t, f.mailer.Sent(), 3)
}

func TestRefundDoesNotRestoreStockOfCancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.paidOrder(t, 2, 2)

	require.NoError(t, f.db.Model(&order.Order{}).Where("id = ?", paid.Order.ID).Update("status", order.OrderStatusCancelled).Error)

	_, err := f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: paid.Transaction.TransactionID, Amount: paid.Transaction.Amount})
	require.NoError(t, err)
	assert.Equal(t, 18, f.stock(t, 2))
}

func TestRefundRejectedByGateway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.paidOrder(t, 1, 2)

	_, err := f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: paid.Transaction.TransactionID, Amount: money.MustParse("13.00")})
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, "Refund failed: Unlucky amount", apperror.Message(err))

	txn, err := f.payments.GetTransaction(ctx, john, paid.Transaction.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusCompleted, txn.Status)
	assert.True(t, txn.RefundedAmount.IsZero())

	_, err = f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: "TXN_MISSING", Amount: money.MustParse("1")})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestTransactionLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.paidOrder(t, 1, 1)
	txn := paid.Transaction

	byID, err := f.payments.GetTransaction(ctx, john, fmt.Sprint(txn.ID))
	require.NoError(t, err)
	assert.Equal(t, txn.TransactionID, byID.TransactionID)

	byRef, err := f.payments.GetTransaction(ctx, john, txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, byRef.ID)

	_, err = f.payments.GetTransaction(ctx, 3, txn.TransactionID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	mine, err := f.payments.GetMyTransactions(ctx, john)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	status, err := f.payments.GetStatus(ctx, txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusCompleted, status.Status)

	status, err = f.payments.GetStatus(ctx, "TXN_UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPending, status.Status)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.cartOrder(t, 1, 2, "")
	_, err := f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnBadCard})
	require.NoError(t, err)
	_, err = f.payments.ProcessPayment(ctx, john, &payment.ProcessRequest{OrderID: o.ID, PaymentMethodID: johnGoodCard})
	require.NoError(t, err)

	paid := f.paidOrder(t, 1, 1)
	_, err = f.payments.Refund(ctx, admin, &payment.RefundRequest{TransactionID: paid.Transaction.TransactionID, Amount: money.MustParse("0.99")})
	require.NoError(t, err)

	stats, err := f.payments.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTransactions)
	assert.Equal(t, 2, stats.SuccessfulTransactions)
	assert.Equal(t, 1, stats.FailedTransactions)
	assert.Equal(t, "31.98", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "0.99", stats.TotalRefunded.StringFixed(2))
	assert.Equal(t, 33.33, stats.SuccessRate)
	assert.Equal(t, []payment.FailureReasonCount{{Reason: payment.FailureInsufficientFunds, Count: 1}}, stats.FailureReasons)

	failed := order.PaymentStatusFailed
	txns, err := f.payments.GetAllTransactions(ctx, &failed)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}
