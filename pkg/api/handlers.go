package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portai/pkg/cache"
	"portai/pkg/oort"
	"portai/pkg/store"
	"portai/pkg/websocket"
)

// Handlers contains the user, analysis, and chat handlers.
type Handlers struct {
	store *store.MemStore
	chat  *oort.Client
	cache *cache.RedisCache
	hub   *websocket.Hub
}

// NewHandlers creates the handler set.
func NewHandlers(memStore *store.MemStore, chat *oort.Client, redisCache *cache.RedisCache, hub *websocket.Hub) *Handlers {
	return &Handlers{
		store: memStore,
		chat:  chat,
		cache: redisCache,
		hub:   hub,
	}
}

// CreateUser registers a wallet address with optional social handles
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user data"})
		return
	}

	if errs := ValidateCreateUserRequest(req); len(errs) > 0 {
		SendValidationErrors(c, errs)
		return
	}

	user, err := h.store.CreateUser(store.CreateUserParams{
		WalletAddress:  req.WalletAddress,
		TwitterHandle:  req.TwitterHandle,
		TelegramHandle: req.TelegramHandle,
		DiscordHandle:  req.DiscordHandle,
	})
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetUser returns the record for a wallet address
func (h *Handlers) GetUser(c *gin.Context) {
	walletAddress := c.Param("walletAddress")

	user, ok := h.store.GetUser(walletAddress)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// Analyze runs the get-or-create-and-analyze composition for a wallet
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if errs := ValidateAnalyzeRequest(req); len(errs) > 0 {
		SendValidationErrors(c, errs)
		return
	}

	h.hub.BroadcastAnalysisEvent(websocket.MessageTypeAnalysisStarted, req.WalletAddress, nil)

	user, err := h.store.GetOrCreateAndAnalyze(req.WalletAddress)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logrus.Errorf("Analysis failed for %s: %v", req.WalletAddress, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	h.hub.BroadcastAnalysisEvent(websocket.MessageTypeAnalysisComplete, req.WalletAddress, user)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// Chat forwards a message to the AI agent, caching recent replies
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if errs := ValidateChatRequest(req); len(errs) > 0 {
		SendValidationErrors(c, errs)
		return
	}

	if h.cache != nil {
		if reply, ok := h.cache.GetChatReply(req.Message); ok {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    gin.H{"response": reply, "cached": true},
			})
			return
		}
	}

	reply, fromAgent := h.chat.Chat(c.Request.Context(), req.Message)
	if fromAgent && h.cache != nil {
		h.cache.SetChatReply(req.Message, reply)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"response": reply, "cached": false},
	})
}

// ListUsers returns all records in id order (admin surface)
func (h *Handlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.store.ListUsers(),
	})
}

// CheckRedisHealth verifies the Redis connection
func (h *Handlers) CheckRedisHealth(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "Redis not configured"})
		return
	}

	if err := h.cache.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetWebSocketStats reports hub connection statistics
func (h *Handlers) GetWebSocketStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.hub.GetStats(),
	})
}
