package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxUserRole = "user_role"
	ctxClaims   = "claims"
	ctxToken    = "access_token"
)

// TokenValidator is implemented by services.AuthService
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// RequireAuth validates the bearer token and stores the caller in the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_AUTH_HEADER", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			abortWithError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		claims, err := m.validator.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Set(ctxToken, tokenString)

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ctxUserRole)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "MISSING_USER_ROLE", "User role not found in context")
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions to access this resource")
	}
}

// RequireAdmin admits the roles that may use the admin API.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(models.RoleAdmin, models.RoleLibrarian)
}

// RequireSuperAdmin admits only the admin role (user management).
func (m *AuthMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return m.RequireRole(models.RoleAdmin)
}

func GetUserID(c *gin.Context) int32 {
	if id, ok := c.Get(ctxUserID); ok {
		if v, ok := id.(int32); ok {
			return v
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

func GetUserRole(c *gin.Context) models.UserRole {
	if role, ok := c.Get(ctxUserRole); ok {
		if r, ok := role.(models.UserRole); ok {
			return r
		}
	}
	return ""
}

// GetToken returns the raw bearer token of the current request.
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
