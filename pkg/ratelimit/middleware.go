package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"seatwave/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// Middleware applies per-route-class rate limits
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// Fail open: a broken limiter must not take down the booking flow
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	// Hold/commit/return flow touches the ledger; keep it tight
	case strings.Contains(path, "/bookings"),
		strings.Contains(path, "/payments"),
		strings.Contains(path, "/tickets"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/events"),
		strings.Contains(path, "/layouts"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}
