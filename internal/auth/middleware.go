package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDContextKey = "auth_user_id"

// Middleware authenticates bearer tokens when one is supplied. Requests without
// an Authorization header pass through anonymously; handlers decide whether
// that is acceptable. A header carrying a bad token is rejected outright.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(s.headerName)
		if strings.TrimSpace(header) == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			abortUnauthorized(c, "authorization header must use the Bearer scheme")
			return
		}
		userID, err := s.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// UserIDFromContext retrieves the authenticated user id from the gin context.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	val, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":  msg,
		"detail": msg,
		"code":   "token_not_valid",
	})
}
