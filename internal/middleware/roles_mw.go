package middleware

import (
	"net/http"
	"slices"

	"attendance_tracker/internal/model"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits requests whose token role is one of allowedRoles.
func RoleMiddleware(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRole(c, allowedRoles) {
			return
		}
		c.Next()
	}
}

// requireRole aborts with 403 and reports false unless the authenticated
// role is allowed.
func requireRole(c *gin.Context, allowed []model.Role) bool {
	role, ok := c.Get(AuthRoleKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role not found in token, ensure JWT middleware runs first"})
		return false
	}
	if s, _ := role.(string); !slices.Contains(allowed, model.Role(s)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
		return false
	}
	return true
}

func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleAdmin)
}

// EmployeeMiddleware also requires the token to name the employee's store.
func EmployeeMiddleware() gin.HandlerFunc {
	employee := []model.Role{model.RoleEmployee}
	return func(c *gin.Context) {
		if !requireRole(c, employee) {
			return
		}
		if c.GetString(AuthStoreKey) == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token is not bound to a store, sign in again"})
			return
		}
		c.Next()
	}
}
