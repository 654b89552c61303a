package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"portai/pkg/cache"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests   int                         // Number of requests
	Window     time.Duration               // Time window
	KeyFunc    func(c *gin.Context) string // Function to generate rate limit key
	Message    string                      // Error message to return
	StatusCode int                         // HTTP status code to return
}

// Default rate limiting configurations
var (
	DefaultRateLimit = RateLimitConfig{
		Requests:   100,
		Window:     time.Minute,
		KeyFunc:    func(c *gin.Context) string { return c.ClientIP() },
		Message:    "Too many requests, please try again later",
		StatusCode: http.StatusTooManyRequests,
	}

	// ChatRateLimit keeps the AI passthrough from hammering the upstream
	// agent. Keyed by authenticated handle when present.
	ChatRateLimit = RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if handle, ok := GetHandleFromContext(c); ok {
				return fmt.Sprintf("handle:%s", handle)
			}
			return c.ClientIP()
		},
		Message:    "Chat rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
	}
)

// RateLimitMiddleware handles rate limiting. With no Redis available it
// fails open: requests pass and nothing is counted.
type RateLimitMiddleware struct {
	cache *cache.RedisCache
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(redisCache *cache.RedisCache) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		cache: redisCache,
	}
}

// IPRateLimit creates a rate limiting middleware for IP addresses
func (rl *RateLimitMiddleware) IPRateLimit(config RateLimitConfig) gin.HandlerFunc {
	return rl.RateLimit(config)
}

// RateLimit creates a rate limiting middleware with the given configuration
func (rl *RateLimitMiddleware) RateLimit(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.cache == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf(cache.KeyRateLimit, config.KeyFunc(c))
		allowed, err := rl.checkRateLimit(key, config)
		if err != nil {
			// Rate limiting must never take the service down with it.
			c.Next()
			return
		}

		if !allowed {
			c.JSON(config.StatusCode, gin.H{"error": config.Message})
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimit implements a sliding window counter on a Redis sorted set.
func (rl *RateLimitMiddleware) checkRateLimit(key string, config RateLimitConfig) (bool, error) {
	now := time.Now().UnixNano()
	expired := now - config.Window.Nanoseconds()

	client := rl.cache.Client()
	ctx := rl.cache.Context()

	// Remove entries that slid out of the window
	if _, err := client.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(expired, 10)).Result(); err != nil {
		return false, err
	}

	count, err := client.ZCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count >= int64(config.Requests) {
		return false, nil
	}

	pipe := client.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return true, nil
}
