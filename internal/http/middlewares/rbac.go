package middlewares

import (
	"net/http"

	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole gates a route on a set of permitted roles. An empty set means
// any authenticated caller passes. Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	allowedSet := make(map[user.Role]struct{}, len(allowed))

	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		if len(allowedSet) > 0 {
			if _, ok := allowedSet[role]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": gin.H{
						"code":    "forbidden",
						"message": "Access denied",
					},
				})
				return
			}
		}

		c.Next()
	}
}
