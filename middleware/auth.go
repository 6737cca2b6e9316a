package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Register roles, least to most privileged. ADMIN implies the others.
const (
	RoleViewer    = "VIEWER"
	RoleTrialLead = "TRIAL_LEAD"
	RoleAdmin     = "ADMIN"
)

type Claims struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func authDisabled() bool {
	return strings.EqualFold(os.Getenv("AUTH_ENABLED"), "false")
}

// AuthMiddleware validates the bearer token and stores the caller identity in
// the request context. With AUTH_ENABLED=false every request runs as a mock
// admin, for local development only.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authDisabled() {
			c.Set("email", "dev@local")
			c.Set("name", "Local Developer")
			c.Set("roles", []string{RoleAdmin})
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "AUTHENTICATION_ERROR",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "AUTHENTICATION_ERROR",
				"message": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "AUTHENTICATION_ERROR",
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "AUTHENTICATION_ERROR",
				"message": "Invalid token claims",
			})
			c.Abort()
			return
		}

		c.Set("email", claims.Email)
		c.Set("name", claims.Name)
		c.Set("roles", claims.Roles)

		c.Next()
	}
}

var roleRank = map[string]int{
	RoleViewer:    1,
	RoleTrialLead: 2,
	RoleAdmin:     3,
}

// RequireRole allows the request through when the caller holds the given role
// or a stronger one.
func RequireRole(role string) gin.HandlerFunc {
	required := roleRank[role]
	return func(c *gin.Context) {
		held, exists := c.Get("roles")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "AUTHORIZATION_ERROR",
				"message": "Role not found",
			})
			c.Abort()
			return
		}

		userRoles, _ := held.([]string)
		allowed := false
		for _, userRole := range userRoles {
			if roleRank[userRole] >= required {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "AUTHORIZATION_ERROR",
				"message": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
