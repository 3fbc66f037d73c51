// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"github.com/farumdev/bookstore-backend/internal/domain/cart"
	"github.com/farumdev/bookstore-backend/internal/domain/checkout"
	"github.com/gin-gonic/gin"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService     *cart.Service
	checkoutService *checkout.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, checkoutService *checkout.Service) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	view, err := h.cartService.GetCart(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart retrieved successfully", view)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	view, err := h.cartService.AddItem(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Item added to cart successfully", view)
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	lineID, ok := parseID(c, "id", "item")
	if !ok {
		return
	}

	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	view, err := h.cartService.UpdateItemQuantity(c.Request.Context(), identity.UserID, lineID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart item updated successfully", view)
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	lineID, ok := parseID(c, "id", "item")
	if !ok {
		return
	}

	view, err := h.cartService.RemoveItem(c.Request.Context(), identity.UserID, lineID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Item removed from cart successfully", view)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	view, err := h.cartService.Clear(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart cleared successfully", view)
}

// ApplyCoupon handles POST /cart/apply-coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req cart.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.cartService.ApplyCoupon(c.Request.Context(), identity.UserID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Coupon applied successfully", result)
}

// RemoveCoupon handles DELETE /cart/remove-coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	view, err := h.cartService.RemoveCoupon(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Coupon removed successfully", view)
}

// Checkout handles POST /cart/checkout, the one-step checkout that
// creates an order and empties the cart
func (h *CartHandler) Checkout(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	summary, err := h.checkoutService.CartCheckout(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Checkout completed successfully", summary)
}
