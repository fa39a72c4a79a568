package middleware

import (
	"net/http"
	"strings"

	"chirp/services"

	"github.com/gin-gonic/gin"
)

// bearerToken pulls the token from the Authorization header or the
// token cookie, in that order.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// AuthRequired rejects requests without a valid bearer token and sets
// user_id in the context for downstream handlers.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "not authorized"})
			c.Abort()
			return
		}
		userID, err := services.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "not authorized"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuth sets user_id when a valid token is present and lets the
// request through either way. Used by routes whose response depends on
// who is asking, like scheduled-post visibility.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if userID, err := services.ParseToken(token); err == nil {
				c.Set("user_id", userID)
			}
		}
		c.Next()
	}
}
