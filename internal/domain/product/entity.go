// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is derived from stock quantity and the low-stock threshold
type StockStatus string

const (
	StockStatusInStock    StockStatus = "InStock"
	StockStatusLowStock   StockStatus = "LowStock"
	StockStatusOutOfStock StockStatus = "OutOfStock"
)

// Product represents a catalog entry
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"not null;size:255" json:"name"`
	Author            string          `gorm:"size:255;index" json:"author"`
	Genre             string          `gorm:"size:100;index" json:"genre"`
	ISBN              string          `gorm:"size:20" json:"isbn"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description       string          `gorm:"type:text" json:"description"`
	Type              string          `gorm:"size:50;default:'Book'" json:"type"`
	StockQuantity     int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	LowStockThreshold int             `gorm:"not null;default:5" json:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Review is a customer rating of a product. One per user per product.
type Review struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProductID          uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID             uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"user_id"`
	UserName           string    `gorm:"size:100" json:"user_name"`
	Rating             int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	ReviewText         string    `gorm:"type:text" json:"review_text,omitempty"`
	IsVerifiedPurchase bool      `gorm:"default:false" json:"is_verified_purchase"`
	HelpfulCount       int       `gorm:"default:0" json:"helpful_count"`
	IsHidden           bool      `gorm:"default:false;index" json:"is_hidden"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ReviewHelpful records that a user marked a review helpful
type ReviewHelpful struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_helpful_review_user" json:"review_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_helpful_review_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Product) TableName() string       { return "products" }
func (Review) TableName() string        { return "product_reviews" }
func (ReviewHelpful) TableName() string { return "product_review_helpful" }

// StockStatus returns the derived stock status
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.StockQuantity <= 0:
		return StockStatusOutOfStock
	case p.StockQuantity <= p.LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// IsAvailable reports whether quantity can be taken from live stock
func (p *Product) IsAvailable(quantity int) bool {
	return p.StockQuantity >= quantity
}

// ProductView is the read projection with derived fields
type ProductView struct {
	Product
	StockStatus   StockStatus     `json:"stock_status"`
	AverageRating decimal.Decimal `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
}

// Availability answers an availability query
type Availability struct {
	ProductID         uint        `json:"product_id"`
	ProductName       string      `json:"product_name"`
	StockQuantity     int         `json:"stock_quantity"`
	StockStatus       StockStatus `json:"stock_status"`
	RequestedQuantity int         `json:"requested_quantity"`
	IsAvailable       bool        `json:"is_available"`
}

// StockLevel is returned by the admin stock endpoints
type StockLevel struct {
	ProductID     uint        `json:"product_id"`
	ProductName   string      `json:"product_name"`
	StockQuantity int         `json:"stock_quantity"`
	StockStatus   StockStatus `json:"stock_status"`
	Message       string      `json:"message,omitempty"`
}

func (p *Product) stockLevel(message string) *StockLevel {
	return &StockLevel{
		ProductID:     p.ID,
		ProductName:   p.Name,
		StockQuantity: p.StockQuantity,
		StockStatus:   p.StockStatus(),
		Message:       message,
	}
}
