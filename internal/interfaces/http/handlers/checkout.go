// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"github.com/farumdev/bookstore-backend/internal/domain/checkout"
	"github.com/gin-gonic/gin"
)

// CheckoutHandler turns carts and item lists into orders
type CheckoutHandler struct {
	checkoutService *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// CreateOrder handles POST /orders/create. Stock is reserved and the order
// must be paid before it expires.
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req checkout.CreateOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidRequest(c, err)
			return
		}
	}

	created, err := h.checkoutService.CreateOrder(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Order created successfully. Complete payment before it expires.", created)
}

// PlaceOrder handles POST /orders/place
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req checkout.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	placed, err := h.checkoutService.PlaceOrder(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Order placed successfully", placed)
}
