// internal/domain/product/review_dto.go
package product

// Review DTOs and Request/Response structures

// CreateReviewRequest creates or replaces the caller's review of a product
type CreateReviewRequest struct {
	Rating     int    `json:"rating" binding:"required"`
	ReviewText string `json:"review_text" binding:"max=2000"`
}

// ModerateReviewRequest hides or unhides a review
type ModerateReviewRequest struct {
	IsHidden bool `json:"is_hidden"`
}

// ReviewListRequest represents query parameters for listing reviews
type ReviewListRequest struct {
	Rating       *int   `form:"rating"`
	VerifiedOnly bool   `form:"verified_only"`
	SortBy       string `form:"sort_by,default=date"` // date, rating, helpful
	SortOrder    string `form:"sort_order,default=desc"`
}

// AdminReviewListRequest represents the moderation listing filters
type AdminReviewListRequest struct {
	IncludeHidden *bool `form:"include_hidden"`
	ProductID     *uint `form:"product_id"`
}

// ReviewResponse is a review as seen by a particular caller
type ReviewResponse struct {
	Review
	MarkedAsHelpfulByCurrentUser bool `json:"marked_as_helpful_by_current_user"`
}

// ReviewListResponse is a product's visible reviews with a summary
type ReviewListResponse struct {
	ProductID   uint             `json:"product_id"`
	ProductName string           `json:"product_name"`
	Summary     RatingSummary    `json:"summary"`
	Total       int              `json:"total_reviews"`
	Reviews     []ReviewResponse `json:"reviews"`
}

// HelpfulResult reports the state after a helpful toggle
type HelpfulResult struct {
	Message         string `json:"message"`
	HelpfulCount    int    `json:"helpful_count"`
	MarkedAsHelpful bool   `json:"marked_as_helpful"`
}
