package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...bazaar.UserRole) gin.HandlerFunc {
	allowed := make(map[bazaar.UserRole]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserRole); !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if _, ok := allowed[Role(c)]; !ok {
			response.Error(c, bazaar.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff allows admins and managers.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(bazaar.UserRoleAdmin, bazaar.UserRoleManager)
}
