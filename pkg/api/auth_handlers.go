package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portai/pkg/auth"
	"portai/pkg/middleware"
)

// AuthHandlers contains the OAuth and session handlers.
type AuthHandlers struct {
	oauthManager *auth.OAuthManager
	jwtService   *auth.JWTService
}

// NewAuthHandlers creates the auth handler set.
func NewAuthHandlers(oauthManager *auth.OAuthManager, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		oauthManager: oauthManager,
		jwtService:   jwtService,
	}
}

// BeginTwitterAuth starts an OAuth flow and returns the popup URL plus the
// flow id the UI polls while the handshake completes externally.
func (h *AuthHandlers) BeginTwitterAuth(c *gin.Context) {
	flow, authURL := h.oauthManager.Begin()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"flow_id":  flow.ID,
			"auth_url": authURL,
			"status":   flow.Status,
		},
	})
}

// TwitterCallback handles the provider redirect: exchanges the code, marks
// the flow completed, and issues a session token for the handle.
func (h *AuthHandlers) TwitterCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")

	if errParam := c.Query("error"); errParam != "" {
		h.oauthManager.Fail(state, errParam)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization denied"})
		return
	}

	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing state or code"})
		return
	}

	flow, err := h.oauthManager.Complete(c.Request.Context(), state, code)
	if err != nil {
		if errors.Is(err, auth.ErrFlowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown or expired flow"})
			return
		}
		logrus.Errorf("OAuth callback failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Authorization failed"})
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(flow.Handle, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"flow_id":    flow.ID,
			"status":     flow.Status,
			"handle":     flow.Handle,
			"token":      token,
			"expires_at": expiresAt.Unix(),
		},
	})
}

// TwitterAuthStatus lets the opener window poll a flow's state machine.
func (h *AuthHandlers) TwitterAuthStatus(c *gin.Context) {
	flow, err := h.oauthManager.Status(c.Param("flowID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown or expired flow"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    flow,
	})
}

// GetProfile echoes the session identity from the validated token.
func (h *AuthHandlers) GetProfile(c *gin.Context) {
	claims, exists := c.Get(middleware.ContextClaims)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	jwtClaims, ok := claims.(*auth.JWTClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"handle":         jwtClaims.Handle,
			"wallet_address": jwtClaims.WalletAddress,
		},
	})
}
