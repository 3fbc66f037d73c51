// internal/domain/product/review_service.go
package product

import (
	"context"
	"errors"
	"strings"

	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewService handles review business logic
type ReviewService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	ratings *RatingCache
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		db:      db,
		logger:  logger,
		ratings: NewRatingCache(db, redisClient, logger),
	}
}

// SaveReview creates the caller's review, or replaces rating and text of an
// existing one. Returns true when a new review was created.
func (s *ReviewService) SaveReview(ctx context.Context, caller *auth.Identity, productID uint, req *CreateReviewRequest) (*Review, bool, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, false, apperror.InvalidArgument("Rating must be between 1 and 5.")
	}

	db := s.db.WithContext(ctx)
	if _, err := findProduct(db, productID); err != nil {
		return nil, false, apperror.NotFound("Product not found.")
	}

	verified, err := s.hasPurchased(db, caller.UserID, productID)
	if err != nil {
		return nil, false, err
	}

	var review Review
	created := false
	err = db.Where("product_id = ? AND user_id = ?", productID, caller.UserID).First(&review).Error
	switch {
	case err == nil:
		review.Rating = req.Rating
		review.ReviewText = strings.TrimSpace(req.ReviewText)
		review.IsVerifiedPurchase = verified
		if err := db.Save(&review).Error; err != nil {
			return nil, false, apperror.Internal(err, "failed to update review")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = Review{
			ProductID:          productID,
			UserID:             caller.UserID,
			UserName:           caller.Username,
			Rating:             req.Rating,
			ReviewText:         strings.TrimSpace(req.ReviewText),
			IsVerifiedPurchase: verified,
		}
		if err := db.Create(&review).Error; err != nil {
			return nil, false, apperror.Internal(err, "failed to create review")
		}
		created = true
	default:
		return nil, false, apperror.Internal(err, "failed to load review")
	}

	s.ratings.Invalidate(ctx, productID)
	return &review, created, nil
}

// GetReviews lists the visible reviews of a product
func (s *ReviewService) GetReviews(ctx context.Context, productID uint, req *ReviewListRequest, currentUserID *uint) (*ReviewListResponse, error) {
	db := s.db.WithContext(ctx)
	product, err := findProduct(db, productID)
	if err != nil {
		return nil, apperror.NotFound("Product not found.")
	}

	query := db.Model(&Review{}).Where("product_id = ? AND is_hidden = ?", productID, false)
	if req.Rating != nil && *req.Rating >= 1 && *req.Rating <= 5 {
		query = query.Where("rating = ?", *req.Rating)
	}
	if req.VerifiedOnly {
		query = query.Where("is_verified_purchase = ?", true)
	}

	var reviews []Review
	if err := query.Order(s.buildOrderClause(req.SortBy, req.SortOrder)).Find(&reviews).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve reviews")
	}

	marked := map[uint]bool{}
	if currentUserID != nil && len(reviews) > 0 {
		ids := make([]uint, len(reviews))
		for i := range reviews {
			ids[i] = reviews[i].ID
		}
		var markedIDs []uint
		if err := db.Model(&ReviewHelpful{}).Where("user_id = ? AND review_id IN ?", *currentUserID, ids).Pluck("review_id", &markedIDs).Error; err != nil {
			return nil, apperror.Internal(err, "failed to load helpful marks")
		}
		for _, id := range markedIDs {
			marked[id] = true
		}
	}

	summary, err := s.ratings.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		responses[i] = ReviewResponse{Review: reviews[i], MarkedAsHelpfulByCurrentUser: marked[reviews[i].ID]}
	}

	return &ReviewListResponse{
		ProductID:   product.ID,
		ProductName: product.Name,
		Summary:     summary,
		Total:       len(responses),
		Reviews:     responses,
	}, nil
}

// GetReview returns one review. Hidden reviews are visible to their author and admins only.
func (s *ReviewService) GetReview(ctx context.Context, productID, reviewID uint, caller *auth.Identity) (*Review, error) {
	review, err := s.findReview(s.db.WithContext(ctx), productID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.IsHidden && !auth.CanAccess(caller, review.UserID) {
		return nil, apperror.NotFound("Review not found.")
	}
	return review, nil
}

// GetMyReview returns the caller's review of a product
func (s *ReviewService) GetMyReview(ctx context.Context, productID, userID uint) (*Review, error) {
	var review Review
	err := s.db.WithContext(ctx).Where("product_id = ? AND user_id = ?", productID, userID).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("You haven't reviewed this product yet.")
		}
		return nil, apperror.Internal(err, "failed to load review")
	}
	return &review, nil
}

// DeleteReview removes a review and its helpful marks. Author or admin only.
func (s *ReviewService) DeleteReview(ctx context.Context, productID, reviewID uint, caller *auth.Identity) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := s.findReview(tx, productID, reviewID)
		if err != nil {
			return err
		}
		if !auth.CanAccess(caller, review.UserID) {
			return apperror.Forbidden("You can only delete your own reviews.")
		}
		if err := tx.Where("review_id = ?", reviewID).Delete(&ReviewHelpful{}).Error; err != nil {
			return apperror.Internal(err, "failed to delete helpful marks")
		}
		if err := tx.Delete(review).Error; err != nil {
			return apperror.Internal(err, "failed to delete review")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.ratings.Invalidate(ctx, productID)
	return nil
}

// ToggleHelpful marks a review helpful for the caller, or removes an existing mark
func (s *ReviewService) ToggleHelpful(ctx context.Context, reviewID, userID uint) (*HelpfulResult, error) {
	var result HelpfulResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review Review
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Review not found.")
			}
			return apperror.Internal(err, "failed to load review")
		}

		var mark ReviewHelpful
		err := tx.Where("review_id = ? AND user_id = ?", reviewID, userID).First(&mark).Error
		switch {
		case err == nil:
			if err := tx.Delete(&mark).Error; err != nil {
				return apperror.Internal(err, "failed to remove helpful mark")
			}
			review.HelpfulCount--
			result = HelpfulResult{Message: "Removed helpful mark", MarkedAsHelpful: false}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&ReviewHelpful{ReviewID: reviewID, UserID: userID}).Error; err != nil {
				return apperror.Internal(err, "failed to add helpful mark")
			}
			review.HelpfulCount++
			result = HelpfulResult{Message: "Marked as helpful", MarkedAsHelpful: true}
		default:
			return apperror.Internal(err, "failed to load helpful mark")
		}

		if review.HelpfulCount < 0 {
			review.HelpfulCount = 0
		}
		if err := tx.Model(&review).Update("helpful_count", review.HelpfulCount).Error; err != nil {
			return apperror.Internal(err, "failed to update helpful count")
		}
		result.HelpfulCount = review.HelpfulCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ModerateReview hides or unhides a review
func (s *ReviewService) ModerateReview(ctx context.Context, productID, reviewID uint, hidden bool) (*Review, error) {
	db := s.db.WithContext(ctx)
	review, err := s.findReview(db, productID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(review).Update("is_hidden", hidden).Error; err != nil {
		return nil, apperror.Internal(err, "failed to moderate review")
	}
	review.IsHidden = hidden

	s.logger.WithFields(logrus.Fields{"review_id": reviewID, "is_hidden": hidden}).Info("review moderated")
	s.ratings.Invalidate(ctx, productID)
	return review, nil
}

// ListAllReviews is the moderation view, newest first. Hidden reviews are included by default.
func (s *ReviewService) ListAllReviews(ctx context.Context, req *AdminReviewListRequest) ([]Review, error) {
	query := s.db.WithContext(ctx).Model(&Review{})
	if req.ProductID != nil {
		query = query.Where("product_id = ?", *req.ProductID)
	}
	if req.IncludeHidden != nil && !*req.IncludeHidden {
		query = query.Where("is_hidden = ?", false)
	}

	var reviews []Review
	if err := query.Order("created_at desc, id desc").Find(&reviews).Error; err != nil {
		return nil, apperror.Internal(err, "failed to retrieve reviews")
	}
	return reviews, nil
}

// hasPurchased reports whether any order of the user contains the product
func (s *ReviewService) hasPurchased(db *gorm.DB, userID, productID uint) (bool, error) {
	var count int64
	err := db.Raw(`
		SELECT COUNT(*) FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		WHERE o.user_id = ? AND oi.product_id = ?
	`, userID, productID).Scan(&count).Error
	if err != nil {
		return false, apperror.Internal(err, "failed to check purchase history")
	}
	return count > 0, nil
}

func (s *ReviewService) findReview(db *gorm.DB, productID, reviewID uint) (*Review, error) {
	var review Review
	if err := db.Where("id = ? AND product_id = ?", reviewID, productID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Review not found.")
		}
		return nil, apperror.Internal(err, "failed to load review")
	}
	return &review, nil
}

// buildOrderClause builds ORDER BY clause for sorting
func (s *ReviewService) buildOrderClause(sortBy, sortOrder string) string {
	direction := "desc"
	if strings.ToLower(sortOrder) == "asc" {
		direction = "asc"
	}

	switch strings.ToLower(sortBy) {
	case "rating":
		return "rating " + direction + ", id " + direction
	case "helpful":
		return "helpful_count " + direction + ", id " + direction
	default:
		return "created_at " + direction + ", id " + direction
	}
}
