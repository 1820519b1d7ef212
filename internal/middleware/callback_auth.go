package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CallbackAuth gates provider callback endpoints with a shared secret carried
// in the URL path, the way the callback URLs are registered with the provider.
// An empty configured secret disables the check (development only).
func CallbackAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		supplied := c.Param("secret")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			GetLoggerFromCtx(c.Request.Context()).Warn("Callback secret mismatch")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
