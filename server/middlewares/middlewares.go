package middlewares

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// AdminKey guards admin routes with a shared key carried in the X-Admin-Key
// header. The configured key is read per request so it picks up values loaded
// from .env files after package init. When no key is configured the whole
// admin surface is refused rather than left open.
func AdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminKey := os.Getenv("ADMIN_API_KEY")
		if adminKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"message": "admin api is not configured",
			})
			c.Abort()
			return
		}

		provided := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "invalid admin key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
