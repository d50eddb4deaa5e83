package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ramosjr18/categorizar-docs/pkg/ratelimiter"
)

// RateLimit applies a rate limiter to the routes behind it. Uploads are
// extraction-heavy, so the limiter guards the intake route against bursts.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
