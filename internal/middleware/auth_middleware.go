// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"timesoffice-service/internal/pkg/auth"
	"timesoffice-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	manager *auth.Manager
}

func NewAuthMiddleware(manager *auth.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		manager: manager,
	}
}

// Auth validates the operator token and stores the operator name in
// the request context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.manager.Verify(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set("operator", claims.Subject)
		c.Set("jti", claims.ID)

		c.Next()
	}
}

// ExtractToken pulls a Bearer token from the Authorization header,
// falling back to the token query param. The query fallback exists for
// the websocket handshake, where browsers cannot set headers.
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return c.Query("token")
}

// GetOperator gets the authenticated operator name from context.
func GetOperator(c *gin.Context) (string, bool) {
	operator, exists := c.Get("operator")
	if !exists {
		return "", false
	}

	name, ok := operator.(string)
	return name, ok
}
