// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// Cart is the per-user shopping cart, created lazily on first access
type Cart struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	AppliedCouponCode *string         `gorm:"size:50" json:"applied_coupon_code"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	LastUpdated       time.Time       `json:"last_updated"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is a cart line with a snapshot of the product at the time it was added.
// LineID numbers lines within one cart and is what clients address.
type CartItem struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	CartID      uint            `gorm:"not null;uniqueIndex:idx_cart_line" json:"-"`
	LineID      uint            `gorm:"not null;uniqueIndex:idx_cart_line" json:"id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null;size:255" json:"product_name"`
	Author      string          `gorm:"size:255" json:"author"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// TotalPrice returns unit price times quantity
func (i *CartItem) TotalPrice() decimal.Decimal {
	return money.LineTotal(i.UnitPrice, i.Quantity)
}

// Subtotal sums the line totals
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].TotalPrice())
	}
	return subtotal
}

// Total is subtotal minus discount, never negative
func (c *Cart) Total() decimal.Decimal {
	return money.Max(c.Subtotal().Sub(c.DiscountAmount), decimal.Zero)
}

// TotalItems sums the quantities
func (c *Cart) TotalItems() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindLine returns the line with the given id, or nil
func (c *Cart) FindLine(lineID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].LineID == lineID {
			return &c.Items[i]
		}
	}
	return nil
}

// StockLines returns the quantities the cart would reserve
func (c *Cart) StockLines() []product.StockLine {
	lines := make([]product.StockLine, len(c.Items))
	for i, item := range c.Items {
		lines[i] = product.StockLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

func (c *Cart) nextLineID() uint {
	var highest uint
	for i := range c.Items {
		if c.Items[i].LineID > highest {
			highest = c.Items[i].LineID
		}
	}
	return highest + 1
}

// CartItemView is a cart line with its line total
type CartItemView struct {
	CartItem
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartView is the cart projection returned to clients
type CartView struct {
	ID                uint            `json:"id"`
	UserID            uint            `json:"user_id"`
	Items             []CartItemView  `json:"items"`
	AppliedCouponCode *string         `json:"applied_coupon_code"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	TotalItems        int             `json:"total_items"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// View builds the client projection
func (c *Cart) View() *CartView {
	items := make([]CartItemView, len(c.Items))
	for i := range c.Items {
		items[i] = CartItemView{CartItem: c.Items[i], TotalPrice: c.Items[i].TotalPrice()}
	}
	return &CartView{
		ID:                c.ID,
		UserID:            c.UserID,
		Items:             items,
		AppliedCouponCode: c.AppliedCouponCode,
		Subtotal:          c.Subtotal(),
		DiscountAmount:    c.DiscountAmount,
		TotalPrice:        c.Total(),
		TotalItems:        c.TotalItems(),
		LastUpdated:       c.LastUpdated,
	}
}
