package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/victoralfred/userdir/internal/domain/ratelimit"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP and route. When the limiter itself fails
// the request is let through and the failure is logged.
func RateLimit(limiter ratelimit.Limiter, rule ratelimit.Rule, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.Request.Method + ":" + c.FullPath() + ":ip:" + c.ClientIP()

		result, err := limiter.Check(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "RATE_LIMIT_EXCEEDED",
					"message":     "Rate limit exceeded",
					"retry_after": int(result.RetryAfter.Seconds()),
				},
			})
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

	if result.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
	}
}
