package middleware

import (
	"crypto/subtle"
	"net/http"

	"cottage/internal/domain"
	"cottage/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// KeyMatches compares a presented admin key with the configured one in
// constant time. An unconfigured key never matches.
func KeyMatches(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// AdminKeyFromRequest reads the key from the header or the ?key= query.
func AdminKeyFromRequest(c *gin.Context) string {
	if k := c.GetHeader(AdminKeyHeader); k != "" {
		return k
	}
	return c.Query("key")
}

// AdminOnly admits callers presenting the shared admin key, or carrying an
// ADMIN token when OptionalJWT ran earlier in the chain.
func AdminOnly(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if KeyMatches(adminKey, AdminKeyFromRequest(c)) || Role(c) == string(domain.RoleAdmin) {
			c.Next()
			return
		}
		response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Admin key is missing or invalid")
	}
}
