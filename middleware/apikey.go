package middleware

import (
	"errors"
	"net/http"

	"github.com/zacktam12/Restaurant-management-sub000/gate"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/gin-gonic/gin"
)

// ApiKeyRequired authenticates partner calls via the X-API-Key header.
// The gate applies the usage side effects; deny responses stay generic.
func ApiKeyRequired(g *gate.Gate, required models.ApiKeyPermission) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-API-Key header required"})
			c.Abort()
			return
		}

		apiKey, err := g.Authorize(c.Request.Context(), key, required)
		if err != nil {
			switch {
			case errors.Is(err, gate.ErrRateLimited):
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded, try again later"})
			case errors.Is(err, gate.ErrDenied):
				c.JSON(http.StatusForbidden, gin.H{"error": "Not permitted"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			}
			c.Abort()
			return
		}

		c.Set("consumerGroup", apiKey.ConsumerGroup)
		c.Set("apiKeyService", apiKey.ServiceName)
		c.Next()
	}
}
