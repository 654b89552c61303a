package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portai/pkg/auth"
	"portai/pkg/cache"
	"portai/pkg/config"
	"portai/pkg/middleware"
	"portai/pkg/oort"
	"portai/pkg/store"
	"portai/pkg/websocket"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, memStore *store.MemStore, cfg *config.Config, redisCache *cache.RedisCache, hub *websocket.Hub) {
	// Initialize authentication services
	jwtService := auth.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.ExpiresIn)
	oauthManager := auth.NewOAuthManager(cfg.OAuth)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisCache)

	// Initialize handlers
	chatClient := oort.NewClient(cfg.Oort)
	handlers := NewHandlers(memStore, chatClient, redisCache, hub)
	authHandlers := NewAuthHandlers(oauthManager, jwtService)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "portai",
			"version": "1.0.0",
		})
	})

	// Setup Swagger documentation
	setupSwagger(router)

	// Apply global rate limiting to all routes
	router.Use(rateLimitMiddleware.IPRateLimit(middleware.DefaultRateLimit))

	// API version group
	v1 := router.Group("/api/v1")
	{
		// User registration and lookup
		users := v1.Group("/users")
		{
			users.POST("", handlers.CreateUser)
			users.GET("/:walletAddress", handlers.GetUser)
		}

		// Portfolio analysis
		v1.POST("/analyze", handlers.Analyze)

		// AI chat passthrough (tighter limits; identity-keyed when present)
		chat := v1.Group("/chat")
		chat.Use(authMiddleware.OptionalAuth())
		chat.Use(rateLimitMiddleware.RateLimit(middleware.ChatRateLimit))
		{
			chat.POST("", handlers.Chat)
		}

		// OAuth handshake (public) and session endpoints
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/twitter", authHandlers.BeginTwitterAuth)
			authGroup.GET("/twitter/callback", authHandlers.TwitterCallback)
			authGroup.GET("/twitter/status/:flowID", authHandlers.TwitterAuthStatus)
		}

		authProtected := v1.Group("/auth")
		authProtected.Use(authMiddleware.JWTAuth())
		{
			authProtected.GET("/profile", authHandlers.GetProfile)
		}

		// WebSocket endpoint for analysis events
		ws := v1.Group("/ws")
		ws.Use(authMiddleware.OptionalAuth())
		{
			ws.GET("", hub.HandleWebSocket)
		}
	}

	// Admin endpoints (require an authenticated session)
	admin := router.Group("/admin")
	admin.Use(authMiddleware.JWTAuth())
	{
		admin.GET("/users", handlers.ListUsers)
		admin.GET("/health/redis", handlers.CheckRedisHealth)
		admin.GET("/ws/stats", handlers.GetWebSocketStats)
	}
}
