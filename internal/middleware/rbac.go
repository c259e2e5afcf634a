package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// SelfRole is a pseudo-role accepted by RBAC: it grants access when the
// route's :id parameter matches the caller's own user ID.
const SelfRole = "SELF"

// RBAC restricts a route to the listed roles. The allowed set is computed
// once at route registration, not per request.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		if a == SelfRole {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}
		if allowSelf && claims.UserID != "" && c.Param("id") == claims.UserID {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is RBAC with typed role arguments.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
