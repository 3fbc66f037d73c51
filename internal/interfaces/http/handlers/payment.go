// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *payment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// ProcessPayment handles POST /payments/process. A declined payment
// answers 400 and leaves the order open for another attempt.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req payment.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.paymentService.ProcessPayment(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.Success {
		response := gin.H{
			"error":     result.Message,
			"can_retry": result.CanRetry,
		}
		if txn := result.Transaction; txn != nil {
			response["transaction_id"] = txn.TransactionID
			if txn.FailureReason != nil {
				response["failure_reason"] = *txn.FailureReason
			}
		}
		c.JSON(http.StatusBadRequest, response)
		return
	}

	respondOK(c, result.Message, result)
}

// GetMyTransactions handles GET /payments/transactions
func (h *PaymentHandler) GetMyTransactions(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	transactions, err := h.paymentService.GetMyTransactions(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transactions retrieved successfully",
		"data":    transactions,
		"total":   len(transactions),
	})
}

// GetTransaction handles GET /payments/transactions/:id
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	txn, err := h.paymentService.GetTransaction(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Transaction retrieved successfully", txn)
}

// Refund handles POST /payments/refund (admin)
func (h *PaymentHandler) Refund(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req payment.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.paymentService.Refund(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result.Message, result)
}

// GetAllTransactions handles GET /payments/admin/transactions?status= (admin)
func (h *PaymentHandler) GetAllTransactions(c *gin.Context) {
	var status *order.PaymentStatus
	if raw := c.Query("status"); raw != "" {
		s := order.PaymentStatus(raw)
		status = &s
	}

	transactions, err := h.paymentService.GetAllTransactions(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transactions retrieved successfully",
		"data":    transactions,
		"total":   len(transactions),
	})
}

// GetStatistics handles GET /payments/admin/statistics (admin)
func (h *PaymentHandler) GetStatistics(c *gin.Context) {
	stats, err := h.paymentService.GetStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment statistics retrieved successfully", stats)
}

// GetStatus handles GET /payments/status/:transaction_id
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	status, err := h.paymentService.GetStatus(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment status retrieved successfully", status)
}
