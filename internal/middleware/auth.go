package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"workforce-service/internal/auth"
	"workforce-service/internal/models"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

var errBadHeader = errors.New("invalid authorization header")

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errBadHeader
	}
	return strings.TrimSpace(token), nil
}

// AuthMiddleware validates the bearer token and stores the caller identity on the context.
func AuthMiddleware(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		token, err := bearerToken(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		id, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, id.UserID)
		c.Set(RoleKey, id.Role)
		c.Next()
	}
}

// RoleFromContext returns the caller role set by AuthMiddleware.
func RoleFromContext(c *gin.Context) models.Role {
	if val, ok := c.Get(RoleKey); ok {
		if role, ok := val.(models.Role); ok {
			return role
		}
	}
	return models.RoleEmployee
}

// RequireElevated aborts unless the caller is a CEO or manager.
func RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !RoleFromContext(c).Elevated() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient role"})
			return
		}
		c.Next()
	}
}
