// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// ApplyCouponRequest carries the code to apply
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// CouponSummary describes the applied coupon
type CouponSummary struct {
	Code  string              `json:"code"`
	Type  coupon.DiscountType `json:"type"`
	Value decimal.Decimal     `json:"value"`
}

// ApplyCouponResult is returned after a successful coupon application
type ApplyCouponResult struct {
	Coupon CouponSummary `json:"coupon"`
	Cart   *CartView     `json:"cart"`
}

// GetCart returns the caller's cart, creating an empty one on first access
func (s *Service) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	cart, err := LoadCart(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return cart.View(), nil
}

// AddItem adds quantity of a product, merging into an existing line for the same product
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddToCartRequest) (*CartView, error) {
	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, req.ProductID)
		if err != nil {
			return err
		}
		if req.Quantity <= 0 {
			return apperror.InvalidArgument("Quantity must be greater than zero.")
		}
		if !p.IsAvailable(req.Quantity) {
			return apperror.InsufficientStock("Insufficient stock for '%s'. Available: %d", p.Name, p.StockQuantity)
		}

		cart, err = LoadCart(tx, userID)
		if err != nil {
			return err
		}

		if existing := findByProduct(cart, p.ID); existing != nil {
			newQuantity := existing.Quantity + req.Quantity
			if !p.IsAvailable(newQuantity) {
				return apperror.InsufficientStock("Cannot add %d more. Cart has %d, available stock: %d",
					req.Quantity, existing.Quantity, p.StockQuantity)
			}
			existing.Quantity = newQuantity
			if err := tx.Model(existing).Update("quantity", newQuantity).Error; err != nil {
				return apperror.Internal(err, "failed to update cart item")
			}
		} else {
			item := CartItem{
				CartID:      cart.ID,
				LineID:      cart.nextLineID(),
				ProductID:   p.ID,
				ProductName: p.Name,
				Author:      p.Author,
				UnitPrice:   p.Price,
				Quantity:    req.Quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperror.Internal(err, "failed to add cart item")
			}
			cart.Items = append(cart.Items, item)
		}

		return Save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart.View(), nil
}

// UpdateItemQuantity overwrites the quantity of a cart line
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, lineID uint, quantity int) (*CartView, error) {
	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = findCart(tx, userID)
		if err != nil {
			return err
		}
		item := cart.FindLine(lineID)
		if item == nil {
			return apperror.NotFound("Item not found in cart.")
		}
		if quantity <= 0 {
			return apperror.InvalidArgument("Quantity must be greater than zero.")
		}

		p, err := findProduct(tx, item.ProductID)
		if err != nil {
			return err
		}
		if !p.IsAvailable(quantity) {
			return apperror.InsufficientStock("Insufficient stock. Available: %d", p.StockQuantity)
		}

		item.Quantity = quantity
		if err := tx.Model(item).Update("quantity", quantity).Error; err != nil {
			return apperror.Internal(err, "failed to update cart item")
		}
		return Save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart.View(), nil
}

// RemoveItem deletes a cart line. Removing a missing line reports NotFound and changes nothing.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID uint) (*CartView, error) {
	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = findCart(tx, userID)
		if err != nil {
			return err
		}
		item := cart.FindLine(lineID)
		if item == nil {
			return apperror.NotFound("Item not found in cart.")
		}

		if err := tx.Delete(&CartItem{}, item.ID).Error; err != nil {
			return apperror.Internal(err, "failed to remove cart item")
		}
		remaining := cart.Items[:0]
		for _, it := range cart.Items {
			if it.LineID != lineID {
				remaining = append(remaining, it)
			}
		}
		cart.Items = remaining
		return Save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart.View(), nil
}

// Clear empties the cart and drops any applied coupon
func (s *Service) Clear(ctx context.Context, userID uint) (*CartView, error) {
	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = LoadCart(tx, userID)
		if err != nil {
			return err
		}
		return ClearCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart.View(), nil
}

// ApplyCoupon validates a code and stores it with its discount on the cart
func (s *Service) ApplyCoupon(ctx context.Context, userID uint, code string) (*ApplyCouponResult, error) {
	var result *ApplyCouponResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := LoadCart(tx, userID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return apperror.InvalidArgument("Cart is empty.")
		}

		c, err := coupon.FindByCode(tx, code)
		if err != nil {
			return err
		}
		if err := c.Validate(time.Now().UTC()); err != nil {
			return err
		}

		cart.AppliedCouponCode = &c.Code
		cart.DiscountAmount = c.ComputeDiscount(cart.Subtotal())
		if err := Save(tx, cart); err != nil {
			return err
		}

		result = &ApplyCouponResult{
			Coupon: CouponSummary{Code: c.Code, Type: c.Type, Value: c.Value},
			Cart:   cart.View(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "code": result.Coupon.Code}).Info("coupon applied to cart")
	return result, nil
}

// RemoveCoupon clears the applied coupon and discount
func (s *Service) RemoveCoupon(ctx context.Context, userID uint) (*CartView, error) {
	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = findCart(tx, userID)
		if err != nil {
			return err
		}
		if cart.AppliedCouponCode == nil {
			return apperror.InvalidState("No coupon applied to cart.")
		}
		cart.AppliedCouponCode = nil
		cart.DiscountAmount = decimal.Zero
		return Save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart.View(), nil
}

// LoadCart returns the user's cart with its lines, creating it if absent
func LoadCart(db *gorm.DB, userID uint) (*Cart, error) {
	cart := Cart{UserID: userID, LastUpdated: time.Now().UTC()}
	err := db.Where(Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to load cart")
	}
	if err := db.Where("cart_id = ?", cart.ID).Order("line_id asc").Find(&cart.Items).Error; err != nil {
		return nil, apperror.Internal(err, "failed to load cart items")
	}
	return &cart, nil
}

// ClearCart removes every line, the applied coupon and the discount
func ClearCart(tx *gorm.DB, cart *Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		return apperror.Internal(err, "failed to clear cart")
	}
	cart.Items = nil
	cart.AppliedCouponCode = nil
	cart.DiscountAmount = decimal.Zero
	return Save(tx, cart)
}

// findCart loads an existing cart without creating one
func findCart(db *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Cart not found.")
		}
		return nil, apperror.Internal(err, "failed to load cart")
	}
	if err := db.Where("cart_id = ?", cart.ID).Order("line_id asc").Find(&cart.Items).Error; err != nil {
		return nil, apperror.Internal(err, "failed to load cart items")
	}
	return &cart, nil
}

// Save recomputes the discount against the current subtotal and saves
// the cart header. A coupon that no longer exists is dropped.
func Save(tx *gorm.DB, cart *Cart) error {
	if cart.AppliedCouponCode != nil {
		c, err := coupon.FindByCode(tx, *cart.AppliedCouponCode)
		switch {
		case err == nil:
			cart.DiscountAmount = c.ComputeDiscount(cart.Subtotal())
		case apperror.Is(err, apperror.KindNotFound):
			cart.AppliedCouponCode = nil
			cart.DiscountAmount = decimal.Zero
		default:
			return err
		}
	}

	cart.LastUpdated = time.Now().UTC()
	err := tx.Model(&Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
		"applied_coupon_code": cart.AppliedCouponCode,
		"discount_amount":     cart.DiscountAmount,
		"last_updated":        cart.LastUpdated,
	}).Error
	if err != nil {
		return apperror.Internal(err, "failed to update cart")
	}
	return nil
}

// AddProduct puts quantity units of p into the cart without saving the
// header. It returns false, changing nothing, when the resulting line
// would exceed the live stock.
func AddProduct(tx *gorm.DB, cart *Cart, p *product.Product, quantity int) (bool, error) {
	if existing := findByProduct(cart, p.ID); existing != nil {
		if !p.IsAvailable(existing.Quantity + quantity) {
			return false, nil
		}
		existing.Quantity += quantity
		if err := tx.Model(existing).Update("quantity", existing.Quantity).Error; err != nil {
			return false, apperror.Internal(err, "failed to update cart item")
		}
		return true, nil
	}

	if !p.IsAvailable(quantity) {
		return false, nil
	}
	item := CartItem{
		CartID:      cart.ID,
		LineID:      cart.nextLineID(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Author:      p.Author,
		UnitPrice:   p.Price,
		Quantity:    quantity,
	}
	if err := tx.Create(&item).Error; err != nil {
		return false, apperror.Internal(err, "failed to add cart item")
	}
	cart.Items = append(cart.Items, item)
	return true, nil
}

func findByProduct(cart *Cart, productID uint) *CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}

func findProduct(db *gorm.DB, id uint) (*product.Product, error) {
	var p product.Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product with ID %d not found.", id)
		}
		return nil, apperror.Internal(err, "failed to retrieve product")
	}
	return &p, nil
}
