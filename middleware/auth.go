// Package middleware contains Gin middleware for the OAuth2 access-token
// authentication the userinfo endpoint (and any future protected endpoint)
// relies on.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ory/fosite"

	"wibusystem/oauth-provider/token"
)

const (
	contextIntrospectionKey = "oauth_introspection"
	contextUserIDKey        = "oauth_user_id"
)

// AuthMiddleware validates bearer access tokens against the token service's
// introspection store and enriches the Gin context with the result.
type AuthMiddleware struct {
	tokens *token.Service
}

// NewAuthMiddleware creates new authentication middleware.
func NewAuthMiddleware(tokens *token.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth returns middleware that requires a valid, active access token
// bound to a user (not a client_credentials token).
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c.Request.Header.Get("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token", "error_description": "missing bearer token"})
			return
		}

		result, err := am.tokens.Introspect(c.Request.Context(), raw)
		if err != nil || !result.Active || result.UserID == nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token", "error_description": "token is inactive, expired, or not a user token"})
			return
		}

		c.Set(contextIntrospectionKey, result)
		c.Set(contextUserIDKey, *result.UserID)
		c.Next()
	}
}

// RequireScope enforces that the request's introspected token carries every
// scope in required. Must run after RequireAuth.
func (am *AuthMiddleware) RequireScope(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, ok := GetIntrospectionFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token", "error_description": "missing bearer token"})
			return
		}

		granted := fosite.Arguments(strings.Fields(result.Scope))
		for _, scope := range required {
			if !granted.Has(scope) {
				c.AbortWithStatusJSON(403, gin.H{"error": "insufficient_scope", "error_description": "token missing required scope: " + scope})
				return
			}
		}
		c.Next()
	}
}

// extractToken returns the bearer token from an Authorization header value.
func extractToken(authHeader string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}

// GetIntrospectionFromContext returns the introspection result RequireAuth
// stored in the Gin context.
func GetIntrospectionFromContext(c *gin.Context) (*token.Introspection, bool) {
	value, exists := c.Get(contextIntrospectionKey)
	if !exists {
		return nil, false
	}
	result, ok := value.(*token.Introspection)
	return result, ok
}

// GetUserIDFromContext returns the authenticated user id RequireAuth stored
// in the Gin context.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(contextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
