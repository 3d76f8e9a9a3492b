package middlewares

import (
	"net/http"

	"kioskcms/internal/logger"
	"kioskcms/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients that exceed the limiter's budget, keyed by client
// IP. A limiter error lets the request through.
func RateLimit(limiter ratelimit.Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			if log != nil {
				log.Warn("Rate limiter unavailable", "client_ip", c.ClientIP(), "error", err)
			}
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
