// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service processes payments and refunds against the gateway
type Service struct {
	db        *gorm.DB
	processor Processor
	publisher events.Publisher
	mailer    *email.EmailService
	logger    *logrus.Logger
	now       func() time.Time
}

// NewService creates a new payment service
func NewService(db *gorm.DB, processor Processor, publisher events.Publisher, mailer *email.EmailService, logger *logrus.Logger) *Service {
	return &Service{
		db:        db,
		processor: processor,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessRequest asks to pay an order with a stored method
type ProcessRequest struct {
	OrderID         uint `json:"order_id" binding:"required"`
	PaymentMethodID uint `json:"payment_method_id" binding:"required"`
}

// ProcessResult is the outcome of a payment request. A declined payment is
// a result with Success false, not an error.
type ProcessResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Order       *order.Order `json:"order"`
	Transaction *Transaction `json:"transaction"`
	CanRetry    bool         `json:"can_retry"`
}

// RefundRequest asks to refund part or all of a transaction
type RefundRequest struct {
	TransactionID string          `json:"transaction_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// RefundResponse summarises the transaction after a refund
type RefundResponse struct {
	Message         string              `json:"message"`
	TransactionID   string              `json:"transaction_id"`
	Status          order.PaymentStatus `json:"status"`
	RefundedAmount  decimal.Decimal     `json:"refunded_amount"`
	RemainingAmount decimal.Decimal     `json:"remaining_amount"`
}

// FailureReasonCount groups failed transactions by reason
type FailureReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Statistics aggregates every recorded transaction
type Statistics struct {
	TotalTransactions      int                  `json:"total_transactions"`
	SuccessfulTransactions int                  `json:"successful_transactions"`
	FailedTransactions     int                  `json:"failed_transactions"`
	TotalRevenue           decimal.Decimal      `json:"total_revenue"`
	TotalRefunded          decimal.Decimal      `json:"total_refunded"`
	SuccessRate            float64              `json:"success_rate"`
	FailureReasons         []FailureReasonCount `json:"failure_reasons"`
}

// StatusResult is the gateway's view of a transaction
type StatusResult struct {
	TransactionID string              `json:"transaction_id"`
	Status        order.PaymentStatus `json:"status"`
}

// ProcessPayment pays a pending order. An expired order is cancelled, its
// stock restored, and the payment rejected. On success the order's coupon
// is redeemed once and the cart is cleared; on failure the order stays
// pending and the cart is untouched.
func (s *Service) ProcessPayment(ctx context.Context, userID uint, req *ProcessRequest) (*ProcessResult, error) {
	var o *order.Order
	var method *PaymentMethod
	var expired bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		o, err = order.FindOrder(tx, req.OrderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return apperror.NotFound("Order not found")
		}
		if o.PaymentStatus != order.PaymentStatusPending {
			return apperror.InvalidState("Order payment status is %s, cannot process payment", o.PaymentStatus)
		}
		if o.Status == order.OrderStatusCancelled {
			return apperror.InvalidState("Order has been cancelled, cannot process payment")
		}

		expired, err = order.ExpireIfDue(tx, o, s.now().UTC())
		if err != nil || expired {
			return err
		}

		method, err = FindMethod(tx, userID, req.PaymentMethodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.logger.WithFields(logrus.Fields{"order_id": o.ID, "user_id": userID}).Info("order expired, stock restored")
		events.Emit(ctx, s.publisher, s.logger, events.New(events.OrderExpired, order.OrderKey(o.ID), map[string]interface{}{
			"order_id": o.ID,
			"user_id":  userID,
		}))
		return nil, apperror.InvalidState("Order has expired. Stock has been restored. Please create a new order.")
	}

	result := s.processor.ProcessPayment(ctx, method, o.TotalPrice)

	txn := Transaction{
		TransactionID:   result.TransactionID,
		UserID:          userID,
		Amount:          o.TotalPrice,
		Status:          result.Status,
		PaymentMethodID: method.ID,
		ProcessedAt:     result.ProcessedAt,
		ResponseMessage: result.Message,
		FailureReason:   result.FailureReason,
		RefundedAmount:  decimal.Zero,
	}
	if result.Success {
		txn.OrderID = &o.ID
	}

	var redeemed *coupon.Coupon
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return apperror.Internal(err, "failed to record transaction")
		}
		if !result.Success {
			return nil
		}

		update := tx.Model(&order.Order{}).
			Where("id = ? AND payment_status = ?", o.ID, order.PaymentStatusPending).
			Updates(map[string]interface{}{
				"payment_status":    order.PaymentStatusCompleted,
				"transaction_id":    txn.TransactionID,
				"payment_method_id": method.ID,
			})
		if update.Error != nil {
			return apperror.Internal(update.Error, "failed to update order")
		}
		if update.RowsAffected == 0 {
			return apperror.InvalidState("Order %d is no longer pending payment", o.ID)
		}
		o.PaymentStatus = order.PaymentStatusCompleted
		o.TransactionID = &txn.TransactionID
		o.PaymentMethodID = &method.ID

		if o.CouponCode != nil {
			c, err := coupon.FindByCode(tx, *o.CouponCode)
			switch {
			case err == nil:
				if err := coupon.RecordUsage(tx, c.ID, userID, &o.ID, txn.ProcessedAt); err != nil {
					return err
				}
				redeemed = c
			case !apperror.Is(err, apperror.KindNotFound):
				return err
			}
		}

		userCart, err := cart.LoadCart(tx, userID)
		if err != nil {
			return err
		}
		return cart.ClearCart(tx, userCart)
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"order_id":       o.ID,
		"user_id":        userID,
		"transaction_id": txn.TransactionID,
		"amount":         txn.Amount.StringFixed(2),
	}
	if !result.Success {
		s.logger.WithFields(fields).WithField("reason", deref(result.FailureReason)).Warn("payment failed")
		events.Emit(ctx, s.publisher, s.logger, events.New(events.PaymentFailed, order.OrderKey(o.ID), map[string]interface{}{
			"order_id":       o.ID,
			"transaction_id": txn.TransactionID,
			"reason":         deref(result.FailureReason),
		}))
		return &ProcessResult{Message: result.Message, Order: o, Transaction: &txn, CanRetry: true}, nil
	}

	s.logger.WithFields(fields).Info("payment processed")
	events.Emit(ctx, s.publisher, s.logger, events.New(events.PaymentCompleted, order.OrderKey(o.ID), map[string]interface{}{
		"order_id":       o.ID,
		"transaction_id": txn.TransactionID,
		"amount":         txn.Amount,
	}))
	if redeemed != nil {
		s.logger.WithFields(logrus.Fields{"code": redeemed.Code, "order_id": o.ID}).Info("coupon redeemed")
		events.Emit(ctx, s.publisher, s.logger, events.New(events.CouponRedeemed, order.OrderKey(o.ID), map[string]interface{}{
			"order_id": o.ID,
			"code":     redeemed.Code,
			"user_id":  userID,
		}))
	}
	s.sendReceipt(ctx, o, &txn, method)

	return &ProcessResult{Success: true, Message: result.Message, Order: o, Transaction: &txn}, nil
}

// Refund returns money on a completed or partially refunded transaction.
// A full refund cancels the order and restores its stock.
func (s *Service) Refund(ctx context.Context, adminID uint, req *RefundRequest) (*RefundResponse, error) {
	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = findTransaction(tx, req.TransactionID)
		if err != nil {
			return err
		}
		return checkRefund(txn, req.Amount)
	})
	if err != nil {
		return nil, err
	}

	result := s.processor.ProcessRefund(ctx, txn.TransactionID, req.Amount, req.Reason)
	if !result.Success {
		s.logger.WithFields(logrus.Fields{
			"transaction_id": txn.TransactionID,
			"amount":         req.Amount.StringFixed(2),
		}).Warn(result.Message)
		return nil, apperror.InvalidState("%s", result.Message)
	}

	var fullyRefunded bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findTransaction(tx, req.TransactionID)
		if err != nil {
			return err
		}
		if err := checkRefund(current, req.Amount); err != nil {
			return err
		}

		refunded := current.RefundedAmount.Add(req.Amount)
		status := order.PaymentStatusPartiallyRefunded
		if refunded.GreaterThanOrEqual(current.Amount) {
			status = order.PaymentStatusRefunded
		}

		update := tx.Model(&Transaction{}).
			Where("id = ? AND refunded_amount = ?", current.ID, current.RefundedAmount).
			Updates(map[string]interface{}{"refunded_amount": refunded, "status": status})
		if update.Error != nil {
			return apperror.Internal(update.Error, "failed to update transaction")
		}
		if update.RowsAffected == 0 {
			return apperror.InvalidState("Transaction was modified concurrently, please retry")
		}
		current.RefundedAmount = refunded
		current.Status = status
		txn = current

		audit := Refund{
			TransactionID: current.TransactionID,
			Amount:        req.Amount,
			Reason:        req.Reason,
			ProcessedBy:   adminID,
			ProcessedAt:   result.ProcessedAt,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return apperror.Internal(err, "failed to record refund")
		}

		if status == order.PaymentStatusRefunded && current.OrderID != nil {
			fullyRefunded = true
			return refundOrder(tx, *current.OrderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": txn.TransactionID,
		"amount":         req.Amount.StringFixed(2),
		"status":         txn.Status,
		"admin_id":       adminID,
	}).Info("refund processed")
	key := txn.TransactionID
	if txn.OrderID != nil {
		key = order.OrderKey(*txn.OrderID)
	}
	events.Emit(ctx, s.publisher, s.logger, events.New(events.PaymentRefunded, key, map[string]interface{}{
		"transaction_id": txn.TransactionID,
		"order_id":       txn.OrderID,
		"amount":         req.Amount,
		"full":           fullyRefunded,
	}))
	s.sendRefundNotice(ctx, txn, req.Amount, req.Reason)

	return &RefundResponse{
		Message:         result.Message,
		TransactionID:   txn.TransactionID,
		Status:          txn.Status,
		RefundedAmount:  txn.RefundedAmount,
		RemainingAmount: txn.Remaining(),
	}, nil
}

// GetMyTransactions lists the caller's transactions, newest first
func (s *Service) GetMyTransactions(ctx context.Context, userID uint) ([]Transaction, error) {
	var txns []Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("processed_at desc, id desc").
		Find(&txns).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve transactions")
	}
	return txns, nil
}

// GetTransaction returns one of the caller's transactions, addressed either
// by its numeric id or by its TXN_ identifier
func (s *Service) GetTransaction(ctx context.Context, userID uint, ref string) (*Transaction, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("transaction_id = ?", ref)
	}

	var txn Transaction
	if err := query.First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Transaction not found")
		}
		return nil, apperror.Internal(err, "failed to retrieve transaction")
	}
	return &txn, nil
}

// GetAllTransactions lists every transaction, optionally filtered by status
func (s *Service) GetAllTransactions(ctx context.Context, status *order.PaymentStatus) ([]Transaction, error) {
	query := s.db.WithContext(ctx).Order("processed_at desc, id desc")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var txns []Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve transactions")
	}
	return txns, nil
}

// GetStatistics aggregates every transaction
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	var txns []Transaction
	if err := s.db.WithContext(ctx).Find(&txns).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve transactions")
	}

	stats := &Statistics{
		TotalTransactions: len(txns),
		TotalRevenue:      decimal.Zero,
		TotalRefunded:     decimal.Zero,
		FailureReasons:    []FailureReasonCount{},
	}
	completed := 0
	reasons := make(map[string]int)
	for i := range txns {
		t := &txns[i]
		stats.TotalRefunded = stats.TotalRefunded.Add(t.RefundedAmount)
		if t.IsSuccessful() {
			stats.SuccessfulTransactions++
			stats.TotalRevenue = stats.TotalRevenue.Add(t.Remaining())
		}
		if t.Status == order.PaymentStatusFailed {
			stats.FailedTransactions++
		}
		if t.Status == order.PaymentStatusCompleted {
			completed++
		}
		if t.FailureReason != nil && *t.FailureReason != "" {
			reasons[*t.FailureReason]++
		}
	}

	if len(txns) > 0 {
		rate := decimal.NewFromInt(int64(completed)).
			Div(decimal.NewFromInt(int64(len(txns)))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		stats.SuccessRate = rate.InexactFloat64()
	}

	for reason, count := range reasons {
		stats.FailureReasons = append(stats.FailureReasons, FailureReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(stats.FailureReasons, func(i, j int) bool {
		a, b := stats.FailureReasons[i], stats.FailureReasons[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})

	return stats, nil
}

// GetStatus reports the recorded status of a transaction. Unknown ids are Pending.
func (s *Service) GetStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	txn, err := findTransaction(s.db.WithContext(ctx), transactionID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return &StatusResult{TransactionID: transactionID, Status: order.PaymentStatusPending}, nil
		}
		return nil, err
	}
	return &StatusResult{TransactionID: txn.TransactionID, Status: txn.Status}, nil
}

// refundOrder marks a fully refunded order Refunded/Cancelled and returns
// its stock, unless an earlier cancellation already did
func refundOrder(tx *gorm.DB, orderID uint) error {
	o, err := order.FindOrder(tx, orderID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil
		}
		return err
	}

	if o.Status != order.OrderStatusCancelled {
		if err := product.RestoreStock(tx, o.StockLines()); err != nil {
			return err
		}
	}
	err = tx.Model(o).Updates(map[string]interface{}{
		"payment_status": order.PaymentStatusRefunded,
		"status":         order.OrderStatusCancelled,
	}).Error
	if err != nil {
		return apperror.Internal(err, "failed to update refunded order")
	}
	return nil
}

func findTransaction(db *gorm.DB, transactionID string) (*Transaction, error) {
	var txn Transaction
	if err := db.Where("transaction_id = ?", transactionID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Transaction not found")
		}
		return nil, apperror.Internal(err, "failed to retrieve transaction")
	}
	return &txn, nil
}

func checkRefund(txn *Transaction, amount decimal.Decimal) error {
	if !txn.IsRefundable() {
		return apperror.InvalidState("Can only refund completed transactions")
	}
	if !amount.IsPositive() || amount.GreaterThan(txn.Remaining()) {
		return apperror.InvalidArgument("Invalid refund amount")
	}
	return nil
}

func (s *Service) sendReceipt(ctx context.Context, o *order.Order, txn *Transaction, method *PaymentMethod) {
	if s.mailer == nil {
		return
	}
	recipient, err := order.LookupRecipient(s.db.WithContext(ctx), o.UserID)
	if err != nil || recipient.Email == "" {
		return
	}
	err = s.mailer.SendPaymentReceipt(ctx, recipient.Email, email.PaymentReceiptData{
		CustomerName:  recipient.DisplayName(),
		OrderID:       o.ID,
		TransactionID: txn.TransactionID,
		Amount:        txn.Amount.StringFixed(2),
		Method:        describeMethod(method),
		ProcessedAt:   txn.ProcessedAt.Format(time.RFC1123),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", o.ID).Warn("failed to send payment receipt")
	}
}

func (s *Service) sendRefundNotice(ctx context.Context, txn *Transaction, amount decimal.Decimal, reason string) {
	if s.mailer == nil {
		return
	}
	recipient, err := order.LookupRecipient(s.db.WithContext(ctx), txn.UserID)
	if err != nil || recipient.Email == "" {
		return
	}
	var orderID uint
	if txn.OrderID != nil {
		orderID = *txn.OrderID
	}
	err = s.mailer.SendRefundNotice(ctx, recipient.Email, email.RefundNoticeData{
		CustomerName:    recipient.DisplayName(),
		OrderID:         orderID,
		TransactionID:   txn.TransactionID,
		RefundedAmount:  amount.StringFixed(2),
		RemainingAmount: txn.Remaining().StringFixed(2),
		Reason:          reason,
	})
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", txn.TransactionID).Warn("failed to send refund notice")
	}
}

func describeMethod(m *PaymentMethod) string {
	if m.Type == MethodTypePayPal {
		return "PayPal " + deref(m.PayPalEmail)
	}
	if m.CardNumberMasked != nil {
		return *m.CardNumberMasked
	}
	return string(m.Type)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
