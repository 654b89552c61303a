package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"portai/pkg/config"
)

// RedisCache wraps the Redis client used for rate limiting and short-lived
// response caching. The service runs without it; callers must tolerate a
// nil cache.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// Cache keys
const (
	KeyChatReply = "chat:reply:%s" // chat:reply:<sha256 of message>
	KeyRateLimit = "rate_limit:%s" // rate_limit:<ip or user key>
)

// Cache expiration times
const (
	ExpireChatReply = 60 * time.Second
)

// Initialize connects to Redis and verifies the connection.
func Initialize(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisURL(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Info("Redis connected successfully")
	return &RedisCache{client: client, ctx: ctx}, nil
}

// Client exposes the underlying Redis client for operations the wrapper
// does not cover (sorted sets for rate limiting).
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Context returns the base context used for cache operations.
func (c *RedisCache) Context() context.Context {
	return c.ctx
}

// Close shuts down the client connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping verifies the connection is alive.
func (c *RedisCache) Ping() error {
	_, err := c.client.Ping(c.ctx).Result()
	return err
}

// Set stores a JSON-encoded value with expiration.
func (c *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.client.Set(c.ctx, key, jsonValue, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves a JSON-encoded value. Missing keys report an error.
func (c *RedisCache) Get(key string, dest interface{}) error {
	val, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (c *RedisCache) Delete(key string) error {
	if err := c.client.Del(c.ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// GetChatReply returns a cached chat reply for the message, if present.
func (c *RedisCache) GetChatReply(message string) (string, bool) {
	var reply string
	if err := c.Get(chatReplyKey(message), &reply); err != nil {
		return "", false
	}
	return reply, true
}

// SetChatReply caches a chat reply for the message.
func (c *RedisCache) SetChatReply(message, reply string) {
	if err := c.Set(chatReplyKey(message), reply, ExpireChatReply); err != nil {
		logrus.Warnf("Failed to cache chat reply: %v", err)
	}
}

func chatReplyKey(message string) string {
	sum := sha256.Sum256([]byte(message))
	return fmt.Sprintf(KeyChatReply, hex.EncodeToString(sum[:]))
}
