// internal/infrastructure/database/migration.go
package database

import (
	"fmt"

	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/farumdev/bookstore-backend/internal/domain/wishlist"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		// User domain
		&user.User{},
		&user.Address{},

		// Catalog
		&product.Product{},
		&product.Review{},
		&product.ReviewHelpful{},

		// Coupons
		&coupon.Coupon{},
		&coupon.CouponUsage{},

		// Cart
		&cart.Cart{},
		&cart.CartItem{},

		// Orders
		&order.Order{},
		&order.OrderItem{},

		// Payments
		&payment.PaymentMethod{},
		&payment.Transaction{},
		&payment.Refund{},

		// Wishlist
		&wishlist.WishlistItem{},
	}
}

// indexes are composite lookups that struct tags cannot express
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_orders_user_payment_status ON orders(user_id, payment_status)",
	"CREATE INDEX IF NOT EXISTS idx_orders_expires_at ON orders(payment_status, expires_at)",
	"CREATE INDEX IF NOT EXISTS idx_payment_transactions_user ON payment_transactions(user_id, processed_at)",
	"CREATE INDEX IF NOT EXISTS idx_product_reviews_product_hidden ON product_reviews(product_id, is_hidden)",
}

// Migrate runs auto-migrations for all models and creates the extra indexes
func Migrate(db *gorm.DB, logger *logrus.Logger) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.WithError(err).WithField("statement", stmt).Warn("index creation failed")
		}
	}

	logger.WithField("models", len(Models())).Info("Database migrations completed")
	return nil
}
