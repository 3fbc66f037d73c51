package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles wishlist business logic
type Service struct {
	db      *gorm.DB
	ratings *product.RatingCache
	logger  *logrus.Logger
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, ratings *product.RatingCache, logger *logrus.Logger) *Service {
	return &Service{
		db:      db,
		ratings: ratings,
		logger:  logger,
	}
}

// GetWishlist returns the caller's wishlist with live product details.
// Products deleted since they were added are left out.
func (s *Service) GetWishlist(ctx context.Context, userID uint) (*WishlistResponse, error) {
	db := s.db.WithContext(ctx)

	var rows []wishlistRow
	err := db.Table("wishlist_items w").
		Select("w.product_id, w.added_at, p.name, p.author, p.genre, p.price, p.stock_quantity").
		Joins("JOIN products p ON p.id = w.product_id").
		Where("w.user_id = ?", userID).
		Order("w.added_at asc, w.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to retrieve wishlist")
	}

	items := make([]WishlistItemResponse, 0, len(rows))
	for _, row := range rows {
		summary, err := s.ratings.Summary(ctx, row.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, WishlistItemResponse{
			ProductID:     row.ProductID,
			Name:          row.Name,
			Author:        row.Author,
			Genre:         row.Genre,
			Price:         row.Price,
			StockQuantity: row.StockQuantity,
			AverageRating: summary.AverageRating,
			ReviewCount:   summary.ReviewCount,
			InStock:       row.StockQuantity > 0,
			AddedAt:       row.AddedAt,
		})
	}

	return &WishlistResponse{UserID: userID, Items: items, TotalItems: len(items)}, nil
}

// AddToWishlist adds a product. Adding the same product twice is rejected.
func (s *Service) AddToWishlist(ctx context.Context, userID, productID uint) (*product.Product, int, error) {
	var p product.Product
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Product not found")
			}
			return apperror.Internal(err, "failed to retrieve product")
		}

		exists, err := contains(tx, userID, productID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.InvalidArgument("Product already in wishlist")
		}

		item := WishlistItem{UserID: userID, ProductID: productID, AddedAt: time.Now().UTC()}
		if err := tx.Create(&item).Error; err != nil {
			return apperror.Internal(err, "failed to add item to wishlist")
		}
		total, err = count(tx, userID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return &p, int(total), nil
}

// RemoveFromWishlist removes a product and returns the remaining count
func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID uint) (int, error) {
	db := s.db.WithContext(ctx)
	result := db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&WishlistItem{})
	if result.Error != nil {
		return 0, apperror.Internal(result.Error, "failed to remove item from wishlist")
	}
	if result.RowsAffected == 0 {
		return 0, apperror.NotFound("Product not in wishlist")
	}

	total, err := count(db, userID)
	return int(total), err
}

// ClearWishlist removes every item. It reports whether anything was removed.
func (s *Service) ClearWishlist(ctx context.Context, userID uint) (bool, error) {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&WishlistItem{})
	if result.Error != nil {
		return false, apperror.Internal(result.Error, "failed to clear wishlist")
	}
	return result.RowsAffected > 0, nil
}

// IsInWishlist reports whether the product is on the caller's wishlist
func (s *Service) IsInWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	return contains(s.db.WithContext(ctx), userID, productID)
}

// GetCount returns the number of wishlist items
func (s *Service) GetCount(ctx context.Context, userID uint) (int, error) {
	total, err := count(s.db.WithContext(ctx), userID)
	return int(total), err
}

// MoveToCart adds one unit of every wishlisted product to the cart and
// clears the wishlist. Out-of-stock products, and products whose cart line
// already holds all available stock, are skipped.
func (s *Service) MoveToCart(ctx context.Context, userID uint) (*MoveResult, error) {
	result := &MoveResult{OutOfStockProducts: []string{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []WishlistItem
		if err := tx.Where("user_id = ?", userID).Order("added_at asc, id asc").Find(&items).Error; err != nil {
			return apperror.Internal(err, "failed to retrieve wishlist")
		}
		if len(items) == 0 {
			return apperror.InvalidArgument("Wishlist is empty")
		}

		c, err := cart.LoadCart(tx, userID)
		if err != nil {
			return err
		}

		for _, item := range items {
			var p product.Product
			if err := tx.First(&p, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return apperror.Internal(err, "failed to retrieve product")
			}
			if p.StockQuantity <= 0 {
				result.OutOfStockProducts = append(result.OutOfStockProducts, p.Name)
				result.Skipped++
				continue
			}

			added, err := cart.AddProduct(tx, c, &p, 1)
			if err != nil {
				return err
			}
			if added {
				result.AddedToCart++
			} else {
				result.Skipped++
			}
		}

		if err := cart.Save(tx, c); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&WishlistItem{}).Error; err != nil {
			return apperror.Internal(err, "failed to clear wishlist")
		}
		result.CartTotalItems = c.TotalItems()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"added":   result.AddedToCart,
		"skipped": result.Skipped,
	}).Info("wishlist moved to cart")
	return result, nil
}

type wishlistRow struct {
	ProductID     uint
	AddedAt       time.Time
	Name          string
	Author        string
	Genre         string
	Price         decimal.Decimal
	StockQuantity int
}

func contains(db *gorm.DB, userID, productID uint) (bool, error) {
	var n int64
	err := db.Model(&WishlistItem{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&n).Error
	if err != nil {
		return false, apperror.Internal(err, "failed to check wishlist")
	}
	return n > 0, nil
}

func count(db *gorm.DB, userID uint) (int64, error) {
	var n int64
	if err := db.Model(&WishlistItem{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, apperror.Internal(err, "failed to count wishlist items")
	}
	return n, nil
}
