package middlewares

import (
	"net/http"
	"strings"

	"kioskcms/services"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer token and sets the admin email in context
func AuthMiddleware(auth services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Missing Authorization token"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid Authorization token format"})
			return
		}

		email, err := auth.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		c.Set("userEmail", email)
		c.Next()
	}
}
