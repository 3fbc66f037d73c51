// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// GetOrders handles GET /orders (admin)
func (h *OrderHandler) GetOrders(c *gin.Context) {
	orders, err := h.orderService.GetOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
		"total":   len(orders),
	})
}

// GetMyOrders handles GET /orders/my-orders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
		"total":   len(orders),
	})
}

// GetPendingOrders handles GET /orders/pending
func (h *OrderHandler) GetPendingOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	pending, err := h.orderService.GetPendingOrders(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pending orders retrieved successfully",
		"data":    pending,
		"total":   len(pending),
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	found, err := h.orderService.GetOrder(c.Request.Context(), id, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order retrieved successfully", found)
}

// UpdateStatus handles PUT /orders/:id/status (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	updated, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order status updated successfully", updated)
}

// CancelOrder handles DELETE /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	cancelled, err := h.orderService.CancelOrder(c.Request.Context(), identity.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order cancelled successfully", cancelled)
}

// DeleteOrder handles DELETE /orders/:id (admin)
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order deleted successfully",
	})
}
