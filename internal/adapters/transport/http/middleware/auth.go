package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/streamforge/user-service/internal/domain/user/token"
)

const userIDKey = "auth.userID"

// Auth admits requests carrying a valid access token, taken from the
// access_token cookie or an Authorization bearer header.
func Auth(tu token.TokenUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if cookie, err := c.Cookie("access_token"); err == nil {
			raw = cookie
		}
		if raw == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
			return
		}

		claims, err := tu.ValidateAccessToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}
		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}

		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID returns the authenticated user id placed by Auth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	uid, ok := v.(uuid.UUID)
	return uid, ok
}
