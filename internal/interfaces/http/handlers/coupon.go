package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/gin-gonic/gin"
)

// CouponHandler handles coupon preview and administration
type CouponHandler struct {
	couponService *coupon.Service
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *coupon.Service) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// ValidateCoupon handles GET /coupons/validate/:code
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	preview, err := h.couponService.Preview(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, preview.Message, preview)
}

// GetCoupons handles GET /coupons/admin/coupons
func (h *CouponHandler) GetCoupons(c *gin.Context) {
	coupons, err := h.couponService.GetCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Coupons retrieved successfully", coupons)
}

// CreateCoupon handles POST /coupons/admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	created, err := h.couponService.CreateCoupon(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Coupon created successfully", created)
}

// UpdateCoupon handles PUT /coupons/admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := parseID(c, "id", "coupon")
	if !ok {
		return
	}

	var req coupon.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	updated, err := h.couponService.UpdateCoupon(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Coupon updated successfully", updated)
}

// DeleteCoupon handles DELETE /coupons/admin/coupons/:id
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := parseID(c, "id", "coupon")
	if !ok {
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deleted successfully",
	})
}

// GetCouponUsage handles GET /coupons/admin/coupons/:id/usage
func (h *CouponHandler) GetCouponUsage(c *gin.Context) {
	id, ok := parseID(c, "id", "coupon")
	if !ok {
		return
	}

	report, err := h.couponService.GetUsage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Coupon usage retrieved successfully", report)
}
