// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles the order lifecycle after creation
type Service struct {
	db        *gorm.DB
	config    *config.Config
	logger    *logrus.Logger
	publisher events.Publisher
	mailer    *email.EmailService
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger, publisher events.Publisher, mailer *email.EmailService) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		logger:    logger,
		publisher: publisher,
		mailer:    mailer,
	}
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// GetOrder returns an order visible to the caller. Orders of other users
// are reported as missing rather than forbidden.
func (s *Service) GetOrder(ctx context.Context, id uint, caller *auth.Identity) (*Order, error) {
	order, err := FindOrder(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccess(caller, order.UserID) {
		return nil, apperror.NotFound("Order not found")
	}
	return order, nil
}

// GetOrders returns every order, newest first
func (s *Service) GetOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := s.db.WithContext(ctx).Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve orders")
	}
	return orders, nil
}

// GetUserOrders returns the orders owned by userID, newest first
func (s *Service) GetUserOrders(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve orders")
	}
	return orders, nil
}

// GetPendingOrders returns the caller's orders still awaiting payment
func (s *Service) GetPendingOrders(ctx context.Context, userID uint) ([]PendingOrder, error) {
	var orders []Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND payment_status = ?", userID, PaymentStatusPending).
		Order("id asc").
		Find(&orders).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve pending orders")
	}

	now := time.Now().UTC()
	pending := make([]PendingOrder, len(orders))
	for i := range orders {
		pending[i] = newPendingOrder(&orders[i], now)
	}
	return pending, nil
}

// UpdateStatus overwrites the order status. Moving into Cancelled from any
// other status restores the reserved stock; other transitions are unrestricted.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status OrderStatus) (*Order, error) {
	if !status.IsValid() {
		return nil, apperror.InvalidArgument("Invalid order status: %s", status)
	}

	var previous OrderStatus
	var order *Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = FindOrder(tx, id)
		if err != nil {
			return err
		}
		previous = order.Status

		if status == OrderStatusCancelled && previous != OrderStatusCancelled {
			if err := product.RestoreStock(tx, order.StockLines()); err != nil {
				return err
			}
		}

		if err := tx.Model(order).Update("status", status).Error; err != nil {
			return apperror.Internal(err, "failed to update order status")
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": id,
		"from":     previous,
		"to":       status,
	}).Info("order status updated")
	events.Emit(ctx, s.publisher, s.logger, events.New(events.OrderStatus, OrderKey(id), map[string]interface{}{
		"order_id": id,
		"from":     previous,
		"to":       status,
	}))
	if status == OrderStatusCancelled && previous != OrderStatusCancelled {
		s.notifyCancelled(ctx, order, "Cancelled by the shop")
	}

	return order, nil
}

// CancelOrder cancels one of the caller's orders while its payment is still
// pending, restoring reserved stock
func (s *Service) CancelOrder(ctx context.Context, userID, id uint) (*Order, error) {
	var order *Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = FindOrder(tx, id)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return apperror.NotFound("Order not found")
		}
		if order.PaymentStatus != PaymentStatusPending {
			return apperror.InvalidState("Cannot cancel order with payment status: %s", order.PaymentStatus)
		}
		return cancelPending(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"order_id": id, "user_id": userID}).Info("order cancelled")
	events.Emit(ctx, s.publisher, s.logger, events.New(events.OrderCancelled, OrderKey(id), map[string]interface{}{
		"order_id": id,
		"user_id":  userID,
	}))
	s.notifyCancelled(ctx, order, "Cancelled at your request")

	return order, nil
}

// ExpireIfDue cancels a pending order whose payment window has passed and
// restores its stock. Runs inside the caller's transaction; the caller
// publishes the expiry after commit. Returns true when the order expired.
func ExpireIfDue(tx *gorm.DB, order *Order, now time.Time) (bool, error) {
	if order.PaymentStatus != PaymentStatusPending || !order.IsExpired(now) {
		return false, nil
	}
	if err := cancelPending(tx, order); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOrder removes an order record and its items
func (s *Service) DeleteOrder(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&OrderItem{}).Error; err != nil {
			return apperror.Internal(err, "failed to delete order items")
		}
		result := tx.Where("id = ?", id).Delete(&Order{})
		if result.Error != nil {
			return apperror.Internal(result.Error, "failed to delete order")
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("Order not found")
		}
		return nil
	})
}

// FindOrder loads an order with its items
func FindOrder(db *gorm.DB, id uint) (*Order, error) {
	var order Order
	if err := db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, apperror.Internal(err, "failed to retrieve order")
	}
	return &order, nil
}

// cancelPending flips a pending order to Cancelled/Failed and restores its
// stock. The status guard in the WHERE clause makes a concurrent second
// cancellation a no-op instead of a double restore. An order the shop already
// moved to Cancelled had its stock returned then, so only the payment status
// changes.
func cancelPending(tx *gorm.DB, order *Order) error {
	var current Order
	if err := tx.Select("id", "status").First(&current, order.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Order not found")
		}
		return apperror.Internal(err, "failed to retrieve order")
	}

	result := tx.Model(&Order{}).
		Where("id = ? AND payment_status = ?", order.ID, PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         OrderStatusCancelled,
			"payment_status": PaymentStatusFailed,
		})
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to cancel order")
	}
	if result.RowsAffected == 0 {
		return apperror.InvalidState("Order %d is no longer pending payment", order.ID)
	}

	if current.Status != OrderStatusCancelled {
		if err := product.RestoreStock(tx, order.StockLines()); err != nil {
			return err
		}
	}

	order.Status = OrderStatusCancelled
	order.PaymentStatus = PaymentStatusFailed
	return nil
}

// Recipient is the contact used for order notifications
type Recipient struct {
	Email     string
	FirstName string
	LastName  string
	Username  string
}

// DisplayName prefers the first name
func (r Recipient) DisplayName() string {
	if r.FirstName != "" {
		return r.FirstName
	}
	return r.Username
}

// FullName joins first and last name, falling back to the username
func (r Recipient) FullName() string {
	if name := strings.TrimSpace(r.FirstName + " " + r.LastName); name != "" {
		return name
	}
	return r.Username
}

// LookupRecipient loads the notification contact of a user
func LookupRecipient(db *gorm.DB, userID uint) (Recipient, error) {
	var r Recipient
	err := db.Raw("SELECT email, first_name, last_name, username FROM users WHERE id = ?", userID).Scan(&r).Error
	return r, err
}

func (s *Service) notifyCancelled(ctx context.Context, order *Order, reason string) {
	if s.mailer == nil {
		return
	}
	recipient, err := LookupRecipient(s.db.WithContext(ctx), order.UserID)
	if err != nil || recipient.Email == "" {
		return
	}
	err = s.mailer.SendOrderCancelled(ctx, recipient.Email, email.OrderCancelledData{
		CustomerName: recipient.DisplayName(),
		OrderID:      order.ID,
		Reason:       reason,
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to send cancellation email")
	}
}

// OrderKey is the event key used for an order
func OrderKey(id uint) string {
	return fmt.Sprintf("order-%d", id)
}
