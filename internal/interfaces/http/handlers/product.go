// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// SetStockRequest overwrites the stock level
type SetStockRequest struct {
	StockQuantity *int `json:"stock_quantity" binding:"required"`
}

// StockAdjustmentRequest adds or removes stock
type StockAdjustmentRequest struct {
	Amount int `json:"amount"`
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	products, err := h.productService.GetProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    products,
		"total":   len(products),
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	view, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product retrieved successfully", view)
}

// CheckAvailability handles GET /products/:id/availability?quantity=n
func (h *ProductHandler) CheckAvailability(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid quantity",
		})
		return
	}

	availability, err := h.productService.CheckAvailability(c.Request.Context(), id, quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Availability checked successfully", availability)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	created, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Product created successfully", created)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	updated, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product updated successfully", updated)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// SetStock handles PUT /products/:id/stock
func (h *ProductHandler) SetStock(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	level, err := h.productService.SetStock(c.Request.Context(), id, *req.StockQuantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Stock updated successfully", level)
}

// IncreaseStock handles POST /products/:id/stock/increase
func (h *ProductHandler) IncreaseStock(c *gin.Context) {
	h.adjustStock(c, h.productService.IncreaseStock)
}

// DecreaseStock handles POST /products/:id/stock/decrease
func (h *ProductHandler) DecreaseStock(c *gin.Context) {
	h.adjustStock(c, h.productService.DecreaseStock)
}

func (h *ProductHandler) adjustStock(c *gin.Context, adjust func(ctx context.Context, id uint, amount int) (*product.StockLevel, error)) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	level, err := adjust(c.Request.Context(), id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, level.Message, level)
}
