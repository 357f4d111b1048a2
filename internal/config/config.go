package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port                 string
	LogLevel             string
	Environment          string
	RedisAddress         string
	RedisPassword        string
	RedisDB              string
	CartCacheTTL         string
	CacheCleanupInterval string
	SessionTokens        string
	AdminTokens          string
	SyncInterval         string
	LocalCartPath        string
	CartAPIBaseURL       string
	SessionToken         string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() *Config {
	// Load .env file if it exists
	// This will not override existing environment variables
	err := godotenv.Load()
	if err != nil {
		slog.Warn("Could not load .env file, continuing with system environment variables only", "error", err)
	} else {
		slog.Info("Successfully loaded .env file")
	}

	config := &Config{
		Port:                 getEnvWithDefault("PORT", "8080"),
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "development"),
		RedisAddress:         getEnvWithDefault("REDIS_ADDRESS", ""),
		RedisPassword:        getEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:              getEnvWithDefault("REDIS_DB", "0"),
		CartCacheTTL:         getEnvWithDefault("CART_CACHE_TTL", "24h"),
		CacheCleanupInterval: getEnvWithDefault("CACHE_CLEANUP_INTERVAL", "5m"),
		SessionTokens:        getEnvWithDefault("SESSION_TOKENS", ""),
		AdminTokens:          getEnvWithDefault("ADMIN_TOKENS", ""),
		SyncInterval:         getEnvWithDefault("SYNC_INTERVAL", "30s"),
		LocalCartPath:        getEnvWithDefault("LOCAL_CART_PATH", "data/cart.json"),
		CartAPIBaseURL:       getEnvWithDefault("CART_API_BASE_URL", "http://localhost:8080"),
		SessionToken:         getEnvWithDefault("SESSION_TOKEN", ""),
	}

	// Configure slog based on log level
	SetupLogging(config.LogLevel)

	slog.Info("Configuration loaded",
		"port", config.Port,
		"environment", config.Environment,
		"logLevel", config.LogLevel,
		"redisAddress", config.RedisAddress,
		"cartCacheTTL", config.CartCacheTTL,
		"cacheCleanupInterval", config.CacheCleanupInterval,
		"syncInterval", config.SyncInterval,
		"localCartPath", config.LocalCartPath,
		"cartAPIBaseURL", config.CartAPIBaseURL)

	return config
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
