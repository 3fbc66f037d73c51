// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db      *gorm.DB
	config  *config.Config
	logger  *logrus.Logger
	ratings *RatingCache
}

// NewService creates a new product service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:      db,
		config:  cfg,
		logger:  logger,
		ratings: NewRatingCache(db, redisClient, logger),
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Search    string   `form:"search"`
	Genre     string   `form:"genre"`
	Author    string   `form:"author"`
	MinPrice  *float64 `form:"min_price"`
	MaxPrice  *float64 `form:"max_price"`
	SortBy    string   `form:"sort_by,default=name"`
	SortOrder string   `form:"sort_order,default=asc"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name              string          `json:"name" binding:"required"`
	Author            string          `json:"author"`
	Genre             string          `json:"genre"`
	ISBN              string          `json:"isbn"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	Description       string          `json:"description"`
	Type              string          `json:"type"`
	StockQuantity     int             `json:"stock_quantity" binding:"min=0"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name              *string          `json:"name"`
	Author            *string          `json:"author"`
	Genre             *string          `json:"genre"`
	ISBN              *string          `json:"isbn"`
	Price             *decimal.Decimal `json:"price"`
	Description       *string          `json:"description"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
}

// GetProducts lists products with filtering and sorting
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) ([]ProductView, error) {
	query := s.db.WithContext(ctx).Model(&Product{})

	if search := strings.TrimSpace(req.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(author) LIKE ? OR LOWER(description) LIKE ?", term, term, term)
	}
	if genre := strings.TrimSpace(req.Genre); genre != "" {
		query = query.Where("LOWER(genre) = ?", strings.ToLower(genre))
	}
	if author := strings.TrimSpace(req.Author); author != "" {
		query = query.Where("LOWER(author) = ?", strings.ToLower(author))
	}
	if req.MinPrice != nil {
		query = query.Where("price >= ?", *req.MinPrice)
	}
	if req.MaxPrice != nil {
		query = query.Where("price <= ?", *req.MaxPrice)
	}

	var products []Product
	if err := query.Order(s.buildOrderClause(req.SortBy, req.SortOrder)).Find(&products).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve products")
	}

	summaries, err := s.ratings.Summaries(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = newProductView(products[i], summaries[products[i].ID])
	}
	return views, nil
}

// GetProduct retrieves a single product by ID with its derived fields
func (s *Service) GetProduct(ctx context.Context, id uint) (*ProductView, error) {
	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.ratings.Summary(ctx, id)
	if err != nil {
		return nil, err
	}

	view := newProductView(*product, summary)
	return &view, nil
}

// FindProduct loads the raw product row
func (s *Service) FindProduct(ctx context.Context, id uint) (*Product, error) {
	return findProduct(s.db.WithContext(ctx), id)
}

// CheckAvailability reports whether quantity can be fulfilled from live stock
func (s *Service) CheckAvailability(ctx context.Context, id uint, quantity int) (*Availability, error) {
	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Availability{
		ProductID:         product.ID,
		ProductName:       product.Name,
		StockQuantity:     product.StockQuantity,
		StockStatus:       product.StockStatus(),
		RequestedQuantity: quantity,
		IsAvailable:       product.IsAvailable(quantity),
	}, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if !req.Price.IsPositive() {
		return nil, apperror.InvalidArgument("Price must be greater than zero.")
	}
	if req.StockQuantity < 0 {
		return nil, apperror.InvalidArgument("Stock quantity cannot be negative.")
	}

	product := Product{
		Name:              strings.TrimSpace(req.Name),
		Author:            req.Author,
		Genre:             req.Genre,
		ISBN:              req.ISBN,
		Price:             req.Price.Round(2),
		Description:       req.Description,
		Type:              req.Type,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: 5,
	}
	if product.Type == "" {
		product.Type = "Book"
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, apperror.Internal(err, "failed to create product")
	}

	s.logger.WithFields(logrus.Fields{"product_id": product.ID, "name": product.Name}).Info("product created")
	return &product, nil
}

// UpdateProduct updates catalog fields. Stock is changed through the stock operations only.
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperror.InvalidArgument("Name cannot be empty.")
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Author != nil {
		updates["author"] = *req.Author
	}
	if req.Genre != nil {
		updates["genre"] = *req.Genre
	}
	if req.ISBN != nil {
		updates["isbn"] = *req.ISBN
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperror.InvalidArgument("Price must be greater than zero.")
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, apperror.InvalidArgument("Low stock threshold cannot be negative.")
		}
		updates["low_stock_threshold"] = *req.LowStockThreshold
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, apperror.Internal(err, "failed to update product")
		}
	}

	return s.FindProduct(ctx, id)
}

// DeleteProduct removes a product and its reviews
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&Product{})
		if result.Error != nil {
			return apperror.Internal(result.Error, "failed to delete product")
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("Product not found.")
		}

		var reviewIDs []uint
		if err := tx.Model(&Review{}).Where("product_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
			return apperror.Internal(err, "failed to load product reviews")
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&ReviewHelpful{}).Error; err != nil {
				return apperror.Internal(err, "failed to delete review votes")
			}
			if err := tx.Where("id IN ?", reviewIDs).Delete(&Review{}).Error; err != nil {
				return apperror.Internal(err, "failed to delete product reviews")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.ratings.Invalidate(ctx, id)
	return nil
}

// SetStock overwrites the stock quantity
func (s *Service) SetStock(ctx context.Context, id uint, quantity int) (*StockLevel, error) {
	if quantity < 0 {
		return nil, apperror.InvalidArgument("Stock quantity cannot be negative.")
	}

	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(product).Update("stock_quantity", quantity).Error; err != nil {
		return nil, apperror.Internal(err, "failed to update stock")
	}
	product.StockQuantity = quantity

	s.logger.WithFields(logrus.Fields{"product_id": id, "stock_quantity": quantity}).Info("stock set")
	return product.stockLevel(""), nil
}

// IncreaseStock adds amount to the stock quantity
func (s *Service) IncreaseStock(ctx context.Context, id uint, amount int) (*StockLevel, error) {
	if amount <= 0 {
		return nil, apperror.InvalidArgument("Amount must be greater than zero.")
	}

	var product *Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findProduct(tx, id); err != nil {
			return err
		}
		if err := incrementStock(tx, id, amount); err != nil {
			return err
		}
		var err error
		product, err = findProduct(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return product.stockLevel(fmt.Sprintf("Stock increased by %d", amount)), nil
}

// DecreaseStock removes amount from the stock quantity, never below zero
func (s *Service) DecreaseStock(ctx context.Context, id uint, amount int) (*StockLevel, error) {
	if amount <= 0 {
		return nil, apperror.InvalidArgument("Amount must be greater than zero.")
	}

	var product *Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findProduct(tx, id)
		if err != nil {
			return err
		}
		ok, err := decrementStock(tx, id, amount)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.InvalidArgument("Cannot decrease stock by %d. Current stock: %d", amount, current.StockQuantity)
		}
		product, err = findProduct(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return product.stockLevel(fmt.Sprintf("Stock decreased by %d", amount)), nil
}

// buildOrderClause builds ORDER BY clause for sorting
func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":   true,
		"author": true,
		"price":  true,
		"genre":  true,
	}

	sortBy = strings.ToLower(sortBy)
	sortOrder = strings.ToLower(sortOrder)

	if !validSortFields[sortBy] {
		return "name asc, id asc"
	}
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	return fmt.Sprintf("%s %s, id asc", sortBy, sortOrder)
}

func findProduct(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product with ID %d not found.", id)
		}
		return nil, apperror.Internal(err, "failed to retrieve product")
	}
	return &product, nil
}

func newProductView(p Product, summary RatingSummary) ProductView {
	return ProductView{
		Product:       p,
		StockStatus:   p.StockStatus(),
		AverageRating: summary.AverageRating,
		ReviewCount:   summary.ReviewCount,
	}
}
