// internal/interfaces/http/handlers/review.go
package handlers

import (
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ReviewHandler handles review endpoints
type ReviewHandler struct {
	reviewService *product.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *product.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// SaveReview handles POST /products/:id/reviews. A second review by the same
// user replaces the first.
func (h *ReviewHandler) SaveReview(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req product.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	review, created, err := h.reviewService.SaveReview(c.Request.Context(), identity, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if created {
		respondCreated(c, "Review created successfully", review)
		return
	}
	respondOK(c, "Review updated successfully", review)
}

// GetReviews handles GET /products/:id/reviews
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req product.ReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	var currentUserID *uint
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		currentUserID = &userID
	}

	reviews, err := h.reviewService.GetReviews(c.Request.Context(), productID, &req, currentUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Reviews retrieved successfully", reviews)
}

// GetReview handles GET /products/:id/reviews/:reviewId
func (h *ReviewHandler) GetReview(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "reviewId", "review")
	if !ok {
		return
	}

	caller, _ := middleware.IdentityFromContext(c)
	review, err := h.reviewService.GetReview(c.Request.Context(), productID, reviewID, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Review retrieved successfully", review)
}

// GetMyReview handles GET /products/:id/my-review
func (h *ReviewHandler) GetMyReview(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	review, err := h.reviewService.GetMyReview(c.Request.Context(), productID, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Review retrieved successfully", review)
}

// DeleteReview handles DELETE /products/:id/reviews/:reviewId
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "reviewId", "review")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), productID, reviewID, identity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review deleted successfully",
	})
}

// ToggleHelpful handles POST /reviews/:reviewId/helpful
func (h *ReviewHandler) ToggleHelpful(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "reviewId", "review")
	if !ok {
		return
	}

	result, err := h.reviewService.ToggleHelpful(c.Request.Context(), reviewID, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result.Message, result)
}

// ModerateReview handles PUT /products/:id/reviews/:reviewId/moderate
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "reviewId", "review")
	if !ok {
		return
	}

	var req product.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	review, err := h.reviewService.ModerateReview(c.Request.Context(), productID, reviewID, req.IsHidden)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Review is now visible"
	if review.IsHidden {
		message = "Review is now hidden"
	}
	respondOK(c, message, review)
}

// ListAllReviews handles GET /admin/reviews
func (h *ReviewHandler) ListAllReviews(c *gin.Context) {
	var req product.AdminReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	reviews, err := h.reviewService.ListAllReviews(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reviews retrieved successfully",
		"data":    reviews,
		"total":   len(reviews),
	})
}
