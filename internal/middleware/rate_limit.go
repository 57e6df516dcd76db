package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/constants"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

// Counter is the expiring-counter primitive behind the limiter
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit throttles by client IP using a fixed window counter in
// redis. A counter outage fails open; throttling is not worth an
// outage of its own.
func RateLimit(counter Counter, cfg *config.Config) gin.HandlerFunc {
	window := time.Duration(cfg.RateLimit.Duration) * time.Second
	limit := int64(cfg.RateLimit.Request)

	return func(c *gin.Context) {
		key := fmt.Sprintf("%sratelimit:%s", constants.CacheKeyPrefix, c.ClientIP())
		count, err := counter.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			logger.WarnWithContext(c.Request.Context(), "rate limit counter unavailable").
				Err(err).
				Log()
			c.Next()
			return
		}

		if count > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				constants.BuildErrorResponse("too many requests", nil))
			return
		}
		c.Next()
	}
}
