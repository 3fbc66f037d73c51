package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimit allows RateLimitPerMinute requests per client IP. With redis the
// window is shared across instances; without it, or while redis is failing,
// a per-process token bucket applies.
func RateLimit(cfg *config.Config, redisClient *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	limit := cfg.Security.RateLimitPerMinute
	local := newLocalLimiter(limit)

	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))

		if redisClient.Enabled() {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			count, err := redisClient.Incr(ctx, "rate_limit:"+clientIP, time.Minute)
			cancel()
			if err == nil {
				remaining := limit - int(count)
				if remaining < 0 {
					remaining = 0
				}
				c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
				if int(count) > limit {
					tooManyRequests(c)
					return
				}
				c.Next()
				return
			}
			logger.WithError(err).Warn("redis rate limit unavailable, using local limiter")
		}

		if !local.allow(clientIP) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "60")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "Rate limit exceeded",
		"retry_after": 60,
	})
}

type localLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	lastGC   time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(perMinute int) *localLimiter {
	return &localLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		visitors: make(map[string]*visitor),
		lastGC:   time.Now(),
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > 5*time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > 5*time.Minute {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
