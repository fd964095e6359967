package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// super_admin always passes.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := UserRole(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if role == models.RoleSuperAdmin {
			c.Next()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
