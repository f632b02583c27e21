package middleware

import (
	"context"
	"net/http"
	"strings"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"

	"github.com/gin-gonic/gin"
)

// StaffKey is the context key of the authenticated staff member
const StaffKey = "staff"

// TokenCookie is the cookie carrying the session token
const TokenCookie = "token"

// Authenticator resolves a session token to a staff member
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Staff, error)
}

// TokenFromRequest reads the token from the cookie or the Authorization header
func TokenFromRequest(c *gin.Context) string {
	if cookieToken, err := c.Cookie(TokenCookie); err == nil && cookieToken != "" {
		return cookieToken
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthenticateToken loads the staff member behind the request token. Frozen
// accounts are refused.
func AuthenticateToken(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied. No token provided."})
			return
		}

		staff, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			if !apperr.IsKind(err, apperr.KindAuth) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"message": apperr.Message(err)})
			return
		}

		c.Set(StaffKey, *staff)
		c.Next()
	}
}

// CurrentStaff returns the staff member set by AuthenticateToken
func CurrentStaff(c *gin.Context) (models.Staff, bool) {
	v, ok := c.Get(StaffKey)
	if !ok {
		return models.Staff{}, false
	}
	staff, ok := v.(models.Staff)
	return staff, ok
}

// AuthorizeRoles lets the request through only for the given roles
func AuthorizeRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, ok := CurrentStaff(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
			return
		}

		for _, role := range roles {
			if staff.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Insufficient permissions."})
	}
}
