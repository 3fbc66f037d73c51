package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/gin-gonic/gin"
)

// PaymentMethodHandler manages stored cards and PayPal accounts
type PaymentMethodHandler struct {
	methodService *payment.MethodService
}

// NewPaymentMethodHandler creates a new payment method handler
func NewPaymentMethodHandler(methodService *payment.MethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		methodService: methodService,
	}
}

// GetMethods handles GET /payment-methods
func (h *PaymentMethodHandler) GetMethods(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	methods, err := h.methodService.GetMethods(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment methods retrieved successfully", methods)
}

// GetMethod handles GET /payment-methods/:id
func (h *PaymentMethodHandler) GetMethod(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "payment method")
	if !ok {
		return
	}

	method, err := h.methodService.GetMethod(c.Request.Context(), identity.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment method retrieved successfully", method)
}

// AddMethod handles POST /payment-methods
func (h *PaymentMethodHandler) AddMethod(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req payment.AddMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	method, err := h.methodService.AddMethod(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Payment method added successfully", method)
}

// UpdateMethod handles PUT /payment-methods/:id
func (h *PaymentMethodHandler) UpdateMethod(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "payment method")
	if !ok {
		return
	}

	var req payment.UpdateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	method, err := h.methodService.UpdateMethod(c.Request.Context(), identity.UserID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment method updated successfully", method)
}

// DeleteMethod handles DELETE /payment-methods/:id
func (h *PaymentMethodHandler) DeleteMethod(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "payment method")
	if !ok {
		return
	}

	if err := h.methodService.DeleteMethod(c.Request.Context(), identity.UserID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment method deleted successfully",
	})
}

// SetDefault handles PUT /payment-methods/:id/set-default
func (h *PaymentMethodHandler) SetDefault(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "payment method")
	if !ok {
		return
	}

	method, err := h.methodService.SetDefault(c.Request.Context(), identity.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Default payment method updated", method)
}
