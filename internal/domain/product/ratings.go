// internal/domain/product/ratings.go
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ratingCacheTTL = 10 * time.Minute

// RatingSummary aggregates the visible reviews of one product
type RatingSummary struct {
	AverageRating decimal.Decimal `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
	Distribution  map[int]int     `json:"distribution,omitempty"`
}

// RatingCache computes rating summaries from visible reviews and caches
// them in redis. Writers call Invalidate after any review change.
type RatingCache struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *logrus.Logger
}

// NewRatingCache creates a rating cache; redisClient may be nil
func NewRatingCache(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *RatingCache {
	return &RatingCache{db: db, redis: redisClient, logger: logger}
}

func ratingKey(productID uint) string {
	return fmt.Sprintf("product:%d:rating", productID)
}

// Summary returns the rating summary of one product
func (c *RatingCache) Summary(ctx context.Context, productID uint) (RatingSummary, error) {
	var cached RatingSummary
	if err := c.redis.GetJSON(ctx, ratingKey(productID), &cached); err == nil {
		return cached, nil
	}

	var rows []struct {
		Rating int
		Count  int
	}
	err := c.db.WithContext(ctx).Model(&Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ? AND is_hidden = ?", productID, false).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return RatingSummary{}, apperror.Internal(err, "failed to compute rating summary")
	}

	summary := RatingSummary{Distribution: make(map[int]int, 5)}
	sum := 0
	for _, row := range rows {
		summary.Distribution[row.Rating] = row.Count
		summary.ReviewCount += row.Count
		sum += row.Rating * row.Count
	}
	summary.AverageRating = averageRating(sum, summary.ReviewCount)

	if err := c.redis.SetJSON(ctx, ratingKey(productID), summary, ratingCacheTTL); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("failed to cache rating summary")
	}
	return summary, nil
}

// Summaries returns count and average for every product with visible reviews
func (c *RatingCache) Summaries(ctx context.Context) (map[uint]RatingSummary, error) {
	var rows []struct {
		ProductID uint
		Count     int
		Total     int
	}
	err := c.db.WithContext(ctx).Model(&Review{}).
		Select("product_id, COUNT(*) AS count, SUM(rating) AS total").
		Where("is_hidden = ?", false).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to compute rating summaries")
	}

	summaries := make(map[uint]RatingSummary, len(rows))
	for _, row := range rows {
		summaries[row.ProductID] = RatingSummary{
			AverageRating: averageRating(row.Total, row.Count),
			ReviewCount:   row.Count,
		}
	}
	return summaries, nil
}

// Invalidate drops the cached summary of a product
func (c *RatingCache) Invalidate(ctx context.Context, productID uint) {
	if err := c.redis.Del(ctx, ratingKey(productID)); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("failed to invalidate rating summary")
	}
}

// averageRating rounds to one decimal place; zero when there are no reviews
func averageRating(sum, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(count))).Round(1)
}
