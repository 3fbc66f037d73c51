// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service turns carts and explicit item lists into orders
type Service struct {
	db        *gorm.DB
	config    *config.Config
	publisher events.Publisher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, publisher events.Publisher, logger *logrus.Logger) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrderRequest represents the pay-later checkout request
type CreateOrderRequest struct {
	ShippingAddressID *uint `json:"shipping_address_id"`
}

// PlaceOrderItem is one requested line of an explicit order
type PlaceOrderItem struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// PlaceOrderRequest lists the lines of an explicit order
type PlaceOrderRequest struct {
	Items []PlaceOrderItem `json:"items"`
}

// CheckoutSummary is returned by the one-step cart checkout
type CheckoutSummary struct {
	Order          *order.Order    `json:"order"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	CouponCode     *string         `json:"coupon_code,omitempty"`
}

// CreateOrder reserves stock for every cart line and creates a pending
// order that must be paid before it expires. The cart is kept until the
// payment succeeds.
func (s *Service) CreateOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (*order.Order, error) {
	now := s.now().UTC()
	var created *order.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cart.LoadCart(tx, userID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return apperror.InvalidArgument("Cart is empty")
		}

		if req != nil && req.ShippingAddressID != nil {
			if err := checkAddress(tx, userID, *req.ShippingAddressID); err != nil {
				return err
			}
		}

		// the stored discount is recomputed against the current subtotal
		if err := cart.Save(tx, c); err != nil {
			return err
		}
		if _, err := product.ReserveStock(tx, c.StockLines()); err != nil {
			return err
		}

		expiresAt := now.Add(s.config.Shop.OrderExpiry)
		created = orderFromCart(userID, c, now)
		created.ExpiresAt = &expiresAt
		if req != nil {
			created.ShippingAddressID = req.ShippingAddressID
		}
		if err := tx.Create(created).Error; err != nil {
			return apperror.Internal(err, "failed to create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.published(ctx, created, "create")
	return created, nil
}

// CartCheckout is the one-step checkout: it reserves stock, creates an
// order without an expiry, redeems the applied coupon against it and
// clears the cart
func (s *Service) CartCheckout(ctx context.Context, userID uint) (*CheckoutSummary, error) {
	now := s.now().UTC()
	var summary *CheckoutSummary
	var redeemed string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cart.LoadCart(tx, userID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return apperror.InvalidArgument("Cart is empty.")
		}

		for _, item := range c.Items {
			var p product.Product
			if err := tx.First(&p, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("Product '%s' no longer exists.", item.ProductName)
				}
				return apperror.Internal(err, "failed to retrieve product")
			}
			if !p.IsAvailable(item.Quantity) {
				return apperror.InsufficientStock("Insufficient stock for '%s'. Available: %d, In cart: %d",
					p.Name, p.StockQuantity, item.Quantity)
			}
		}

		if err := cart.Save(tx, c); err != nil {
			return err
		}
		if _, err := product.ReserveStock(tx, c.StockLines()); err != nil {
			return err
		}

		created := orderFromCart(userID, c, now)
		if err := tx.Create(created).Error; err != nil {
			return apperror.Internal(err, "failed to create order")
		}

		if c.AppliedCouponCode != nil {
			cp, err := coupon.FindByCode(tx, *c.AppliedCouponCode)
			switch {
			case err == nil:
				if err := coupon.RecordUsage(tx, cp.ID, userID, &created.ID, now); err != nil {
					return err
				}
				redeemed = cp.Code
			case !apperror.Is(err, apperror.KindNotFound):
				return err
			}
		}

		summary = &CheckoutSummary{
			Order:          created,
			Subtotal:       created.SubtotalPrice,
			DiscountAmount: created.DiscountAmount,
			Total:          created.TotalPrice,
			CouponCode:     created.CouponCode,
		}
		return cart.ClearCart(tx, c)
	})
	if err != nil {
		return nil, err
	}

	s.published(ctx, summary.Order, "cart_checkout")
	if redeemed != "" {
		s.logger.WithFields(logrus.Fields{"code": redeemed, "order_id": summary.Order.ID}).Info("coupon redeemed")
		events.Emit(ctx, s.publisher, s.logger, events.New(events.CouponRedeemed, order.OrderKey(summary.Order.ID), map[string]interface{}{
			"order_id": summary.Order.ID,
			"code":     redeemed,
			"user_id":  userID,
		}))
	}
	return summary, nil
}

// PlaceOrder creates an order for the caller from an explicit item list.
// Every line is validated before any stock is reserved.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *PlaceOrderRequest) (*order.Order, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, apperror.InvalidArgument("Order must contain at least one item.")
	}

	now := s.now().UTC()
	var created *order.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u user.User
		if err := tx.Select("id").First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("User not found.")
			}
			return apperror.Internal(err, "failed to retrieve user")
		}

		lines := make([]product.StockLine, len(req.Items))
		for i, item := range req.Items {
			var p product.Product
			if err := tx.First(&p, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("Product with ID %d not found.", item.ProductID)
				}
				return apperror.Internal(err, "failed to retrieve product")
			}
			if item.Quantity <= 0 {
				return apperror.InvalidArgument("Quantity for product '%s' must be greater than zero.", p.Name)
			}
			lines[i] = product.StockLine{ProductID: item.ProductID, Quantity: item.Quantity}
		}

		products, err := product.ReserveStock(tx, lines)
		if err != nil {
			return err
		}

		created = &order.Order{
			UserID:         userID,
			Status:         order.OrderStatusPending,
			PaymentStatus:  order.PaymentStatusPending,
			DiscountAmount: decimal.Zero,
			OrderDate:      now,
		}
		subtotal := decimal.Zero
		for _, line := range lines {
			p := products[line.ProductID]
			item := order.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Author:      p.Author,
				Quantity:    line.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  money.LineTotal(p.Price, line.Quantity),
			}
			subtotal = subtotal.Add(item.TotalPrice)
			created.Items = append(created.Items, item)
		}
		created.SubtotalPrice = subtotal
		created.TotalPrice = subtotal

		if err := tx.Create(created).Error; err != nil {
			return apperror.Internal(err, "failed to create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.published(ctx, created, "place")
	return created, nil
}

func (s *Service) published(ctx context.Context, o *order.Order, source string) {
	s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"total":    o.TotalPrice.StringFixed(2),
		"items":    len(o.Items),
		"source":   source,
	}).Info("order created")
	events.Emit(ctx, s.publisher, s.logger, events.New(events.OrderCreated, order.OrderKey(o.ID), map[string]interface{}{
		"order_id":   o.ID,
		"user_id":    o.UserID,
		"total":      o.TotalPrice,
		"expires_at": o.ExpiresAt,
		"source":     source,
	}))
}

// orderFromCart snapshots the cart lines and totals into a new pending order
func orderFromCart(userID uint, c *cart.Cart, now time.Time) *order.Order {
	o := &order.Order{
		UserID:         userID,
		Status:         order.OrderStatusPending,
		PaymentStatus:  order.PaymentStatusPending,
		SubtotalPrice:  c.Subtotal(),
		DiscountAmount: c.DiscountAmount,
		TotalPrice:     c.Total(),
		CouponCode:     c.AppliedCouponCode,
		OrderDate:      now,
		Items:          make([]order.OrderItem, len(c.Items)),
	}
	for i := range c.Items {
		item := &c.Items[i]
		o.Items[i] = order.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Author:      item.Author,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice(),
		}
	}
	return o
}

func checkAddress(tx *gorm.DB, userID, addressID uint) error {
	var n int64
	err := tx.Model(&user.Address{}).Where("id = ? AND user_id = ?", addressID, userID).Count(&n).Error
	if err != nil {
		return apperror.Internal(err, "failed to check shipping address")
	}
	if n == 0 {
		return apperror.InvalidArgument("Invalid shipping address")
	}
	return nil
}
