package middleware

import (
	"net/http"
	"strings"

	"ivr-flow/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards the read-only admin API with an HS256 bearer token.
// Without a configured secret the API is disabled.
func AdminAuth(jwtSecret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "admin api disabled")
			c.Abort()
			return
		}

		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) ?token=xxx, for export downloads opened in a browser
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "missing token")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, issuer, tokenStr)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("adminSubject", claims.Subject)
		c.Next()
	}
}
