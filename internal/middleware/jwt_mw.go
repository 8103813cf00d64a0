package middleware

import (
	"net/http"
	"strings"

	"attendance_tracker/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey  = "authUser"
	AuthRoleKey  = "authRole"
	AuthStoreKey = "authStore"
)

// accessTokenParam lets EventSource clients, which cannot set headers,
// authenticate stream requests.
const accessTokenParam = "access_token"

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(AuthUserKey, claims.UserID)
		c.Set(AuthRoleKey, claims.Role)
		if claims.StoreID != "" {
			c.Set(AuthStoreKey, claims.StoreID)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if c.Request.Method == http.MethodGet {
			if token := c.Query(accessTokenParam); token != "" {
				return token, true
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return "", false
	}
	return parts[1], true
}
