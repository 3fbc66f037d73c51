// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	claimsKey   = "token_claims"
)

// RevocationChecker reports whether a token id was logged out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// AuthMiddleware requires a valid access token from the Authorization
// header or, when no header is sent, from the auth cookie
func AuthMiddleware(cfg *config.Config, revoked RevocationChecker) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c, cfg.JWT.CookieName)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		if revoked != nil && revoked.IsRevoked(c.Request.Context(), claims.ID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token has been revoked",
			})
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller identity when a valid token is
// present and lets anonymous requests through
func OptionalAuthMiddleware(cfg *config.Config, revoked RevocationChecker) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c, cfg.JWT.CookieName)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil || (revoked != nil && revoked.IsRevoked(c.Request.Context(), claims.ID)) {
			c.Next()
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects callers that fail auth.Authorize for role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if !auth.Authorize(identity, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// AdminMiddleware ensures the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}

// IdentityFromContext returns the authenticated caller
func IdentityFromContext(c *gin.Context) (*auth.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*auth.Identity)
	return identity, ok && identity != nil
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return 0, false
	}
	return identity.UserID, true
}

// ClaimsFromContext returns the validated token claims
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return auth.ExtractTokenFromHeader(header)
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
