// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// PaymentStatus represents payment status of an order or a transaction
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "Pending"
	PaymentStatusCompleted         PaymentStatus = "Completed"
	PaymentStatusFailed            PaymentStatus = "Failed"
	PaymentStatusRefunded          PaymentStatus = "Refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "PartiallyRefunded"
)

var validStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCompleted:  true,
	OrderStatusCancelled:  true,
}

// IsValid reports whether s is a known order status
func (s OrderStatus) IsValid() bool {
	return validStatuses[s]
}

// Order represents the order entity. Items are snapshots and do not follow later catalog edits.
type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	Status            OrderStatus     `gorm:"not null;size:20;default:'Pending'" json:"status"`
	PaymentStatus     PaymentStatus   `gorm:"not null;size:20;default:'Pending';index" json:"payment_status"`
	SubtotalPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal_price"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CouponCode        *string         `gorm:"size:50" json:"coupon_code,omitempty"`
	TransactionID     *string         `gorm:"size:50" json:"transaction_id,omitempty"`
	PaymentMethodID   *uint           `gorm:"index" json:"payment_method_id,omitempty"`
	ShippingAddressID *uint           `json:"shipping_address_id,omitempty"`
	OrderDate         time.Time       `gorm:"not null" json:"order_date"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a line snapshot taken when the order was created
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null;size:255" json:"product_name"`
	Author      string          `gorm:"size:255" json:"author"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
}

func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// IsExpired reports whether the payment window has closed
func (o *Order) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// StockLines returns the reserved quantities held by this order
func (o *Order) StockLines() []product.StockLine {
	lines := make([]product.StockLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = product.StockLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

// PendingOrder is the projection of an order awaiting payment
type PendingOrder struct {
	ID                uint            `json:"id"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	OrderDate         time.Time       `json:"order_date"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	ShippingAddressID *uint           `json:"shipping_address_id,omitempty"`
	MinutesRemaining  float64         `json:"minutes_remaining"`
	IsExpired         bool            `json:"is_expired"`
	Items             []OrderItem     `json:"items"`
}

func newPendingOrder(o *Order, now time.Time) PendingOrder {
	pending := PendingOrder{
		ID:                o.ID,
		TotalPrice:        o.TotalPrice,
		OrderDate:         o.OrderDate,
		ExpiresAt:         o.ExpiresAt,
		ShippingAddressID: o.ShippingAddressID,
		IsExpired:         o.IsExpired(now),
		Items:             o.Items,
	}
	if o.ExpiresAt != nil {
		if remaining := o.ExpiresAt.Sub(now).Minutes(); remaining > 0 {
			pending.MinutesRemaining = remaining
		}
	}
	return pending
}
