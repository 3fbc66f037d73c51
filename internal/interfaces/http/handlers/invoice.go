// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/farumdev/bookstore-backend/internal/domain/order"
	"github.com/farumdev/bookstore-backend/internal/pkg/pdf"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice generation endpoints
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, pdfService *pdf.Service) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		pdfService:   pdfService,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	data, ok := h.loadInvoice(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.pdfService.GenerateInvoice(data)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", data.InvoiceNumber))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// GetInvoiceData handles GET /orders/:id/invoice/data (for frontend preview)
func (h *InvoiceHandler) GetInvoiceData(c *gin.Context) {
	data, ok := h.loadInvoice(c)
	if !ok {
		return
	}

	respondOK(c, "Invoice data retrieved successfully", data)
}

func (h *InvoiceHandler) loadInvoice(c *gin.Context) (*pdf.InvoiceData, bool) {
	identity, ok := requireIdentity(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id", "order")
	if !ok {
		return nil, false
	}

	invoice, err := h.orderService.GetInvoice(c.Request.Context(), id, identity)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return h.pdfService.BuildInvoice(invoice), true
}
