package wishlist

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistItem represents a wishlist item
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}

// TableName overrides the table name
func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// WishlistItemResponse represents a wishlist item with product details
type WishlistItemResponse struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	Author        string          `json:"author"`
	Genre         string          `json:"genre"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	AverageRating decimal.Decimal `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
	InStock       bool            `json:"in_stock"`
	AddedAt       time.Time       `json:"added_at"`
}

// WishlistResponse is the caller's wishlist
type WishlistResponse struct {
	UserID     uint                   `json:"user_id"`
	Items      []WishlistItemResponse `json:"items"`
	TotalItems int                    `json:"total_items"`
}

// MoveResult reports what move-to-cart did
type MoveResult struct {
	AddedToCart        int      `json:"added_to_cart"`
	Skipped            int      `json:"skipped"`
	OutOfStockProducts []string `json:"out_of_stock_products"`
	CartTotalItems     int      `json:"cart_total_items"`
}
