package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docmanager-backend/internal/shared/auth"
	"docmanager-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	isAdminKey   = "isAdmin"
)

// Auth validates the bearer token and stores the resolved identity in
// context. Credential issuance happens elsewhere; this only maps an
// already-signed token to a user id and admin flag.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Set(isAdminKey, claims.Admin)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// IsAdminFromContext fetches the admin flag set by the auth middleware.
func IsAdminFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(isAdminKey)
	admin, _ := val.(bool)
	return admin
}
