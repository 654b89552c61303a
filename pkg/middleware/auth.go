package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portai/pkg/auth"
)

// Context keys set by the auth middleware.
const (
	ContextHandle = "handle"
	ContextWallet = "wallet_address"
	ContextClaims = "claims"
)

// AuthMiddleware handles authentication
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// JWTAuth middleware for JWT authentication
func (am *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := am.claimsFromRequest(c)
		if !ok {
			c.Abort()
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextHandle, claims.Handle)
		c.Set(ContextWallet, claims.WalletAddress)
		c.Next()
	}
}

// OptionalAuth sets identity context when a valid token is present but
// never rejects the request.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if ok {
			if claims, err := am.jwtService.ValidateToken(token); err == nil {
				c.Set(ContextClaims, claims)
				c.Set(ContextHandle, claims.Handle)
				c.Set(ContextWallet, claims.WalletAddress)
			}
		}
		c.Next()
	}
}

func (am *AuthMiddleware) claimsFromRequest(c *gin.Context) (*auth.JWTClaims, bool) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return nil, false
	}

	claims, err := am.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return nil, false
	}

	return claims, true
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", false
	}

	return tokenParts[1], true
}

// GetHandleFromContext returns the authenticated handle, if any.
func GetHandleFromContext(c *gin.Context) (string, bool) {
	handle, exists := c.Get(ContextHandle)
	if !exists {
		return "", false
	}
	s, ok := handle.(string)
	return s, ok && s != ""
}
