package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/radityabs/huddle-backend/pkg/helpers"
	"github.com/radityabs/huddle-backend/pkg/response"
)

// Auth validates the access token from the accessToken cookie or the
// Authorization bearer header. It sets userID in the Gin context on success.
func Auth(tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessTokenFrom(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := tokens.Parse(helpers.TokenAccess, token)
		if err != nil {
			// Expired and malformed tokens get the same answer.
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}

func accessTokenFrom(c *gin.Context) string {
	if tk, err := c.Cookie(helpers.AccessCookie); err == nil && tk != "" {
		return tk
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
