package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	JWT    JWTConfig
	OAuth  OAuthConfig
	Oort   OortConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	Database int
	PoolSize int
}

type JWTConfig struct {
	SecretKey string
	ExpiresIn time.Duration
}

// OAuthConfig holds the third-party OAuth2 application settings used for
// the social handle handshake.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	FlowTTL      time.Duration
}

// OortConfig holds the settings for the external AI agent endpoint the chat
// passthrough talks to.
type OortConfig struct {
	Endpoint string
	APIKey   string
	AgentID  string
	Timeout  time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Database: getIntEnv("REDIS_DATABASE", 0),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", 10),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "portai-session-secret"),
			ExpiresIn: getDurationEnv("JWT_EXPIRES_IN", 24*time.Hour),
		},
		OAuth: OAuthConfig{
			ClientID:     getEnv("TWITTER_API_KEY", ""),
			ClientSecret: getEnv("TWITTER_API_SECRET", ""),
			CallbackURL:  getEnv("OAUTH_CALLBACK_URL", "http://localhost:8080/api/v1/auth/twitter/callback"),
			AuthURL:      getEnv("OAUTH_AUTH_URL", "https://twitter.com/i/oauth2/authorize"),
			TokenURL:     getEnv("OAUTH_TOKEN_URL", "https://api.twitter.com/2/oauth2/token"),
			UserInfoURL:  getEnv("OAUTH_USERINFO_URL", "https://api.twitter.com/2/users/me"),
			FlowTTL:      getDurationEnv("OAUTH_FLOW_TTL", 10*time.Minute),
		},
		Oort: OortConfig{
			Endpoint: getEnv("OORT_ENDPOINT", "https://console.oortech.com/api/agent"),
			APIKey:   getEnv("OORT_API_KEY", ""),
			AgentID:  getEnv("OORT_AGENT_ID", ""),
			Timeout:  getDurationEnv("OORT_TIMEOUT", 30*time.Second),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func (c *Config) GetRedisURL() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
