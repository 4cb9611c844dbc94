// Package config provides configuration management for the feed cache service.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration so the service starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - SITE_BASE_URL: Base URL of the site whose feeds are cached; used by the
//     cache warmer (default: http://localhost)
//
// Cache Settings:
//   - CACHE_ENABLED: Whether caching is active (default: true)
//   - CACHE_DURATION: Default entry TTL in seconds (default: 3600)
//   - SWEEP_SCHEDULE: Cron schedule for the expiry sweep (default: @hourly)
//   - WARM_TIMEOUT: Timeout for each warming fetch (default: 10s)
//   - EVENT_CHANNEL: Redis pub/sub channel for mutation events
//     (default: feedcache:events)
//
// Database Configuration (persistent tier):
//   - DATABASE_TYPE: "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./feedcache.db)
//   - POSTGRES_HOST: PostgreSQL host (required if using PostgreSQL)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (required if using PostgreSQL)
//   - POSTGRES_USER: PostgreSQL username (required if using PostgreSQL)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//
// Redis Configuration (ephemeral tier and event bridge):
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the feed cache service.
// All fields correspond to environment variables that can be set to
// override the default values.
type Config struct {
	// Application settings
	Port        string // Server port number
	LogLevel    string // Logging level (debug, info, warn, error)
	SiteBaseURL string // Base URL used to build feed URIs for warming

	// Cache behavior
	CacheEnabled  bool          // Whether caching is active
	CacheDuration int           // Default TTL in seconds
	SweepSchedule string        // Cron schedule for the expiry sweep
	WarmTimeout   time.Duration // Per-request timeout for warming fetches
	EventChannel  string        // Redis pub/sub channel for mutation events

	// Persistent tier
	DatabaseType     string // Database type: "sqlite" or "postgres"
	DatabasePath     string // Path to SQLite database file
	PostgresHost     string // PostgreSQL host address
	PostgresPort     string // PostgreSQL port number
	PostgresDB       string // PostgreSQL database name
	PostgresUser     string // PostgreSQL username
	PostgresPassword string // PostgreSQL password
	PostgresSSLMode  string // PostgreSQL SSL mode

	// Ephemeral tier
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size
}

// Load creates a new Config instance with values loaded from environment
// variables. If an environment variable is not set, the corresponding
// default value is used.
//
// This function does not validate the configuration - call Validate() on
// the returned Config before use.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SiteBaseURL: getEnv("SITE_BASE_URL", "http://localhost"),

		CacheEnabled:  getEnvBool("CACHE_ENABLED", true),
		CacheDuration: getEnvInt("CACHE_DURATION", 3600),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
		WarmTimeout:   getEnvDuration("WARM_TIMEOUT", 10*time.Second),
		EventChannel:  getEnv("EVENT_CHANNEL", "feedcache:events"),

		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./feedcache.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", ""),
		PostgresUser:     getEnv("POSTGRES_USER", ""),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
	}
}

// Validate checks that the configuration is usable. It returns an error
// describing the first problem found.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}

	if c.CacheDuration <= 0 {
		return fmt.Errorf("CACHE_DURATION must be positive, got %d", c.CacheDuration)
	}

	if _, err := url.Parse(c.SiteBaseURL); err != nil {
		return fmt.Errorf("invalid SITE_BASE_URL %q: %w", c.SiteBaseURL, err)
	}

	switch c.DatabaseType {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for sqlite")
		}
	case "postgres":
		if c.PostgresHost == "" || c.PostgresDB == "" || c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_HOST, POSTGRES_DB and POSTGRES_USER are required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
		return fmt.Errorf("REDIS_DB must be a number between 0 and 15, got %q", c.RedisDB)
	}

	return nil
}

// DefaultTTL returns the configured cache duration as a time.Duration.
func (c *Config) DefaultTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Second
}

// RedisDBNumber returns the configured redis database as an int.
func (c *Config) RedisDBNumber() int {
	db, err := strconv.Atoi(c.RedisDB)
	if err != nil {
		return 0
	}
	return db
}

// RedisPool returns the configured redis pool size as an int.
func (c *Config) RedisPool() int {
	size, err := strconv.Atoi(c.RedisPoolSize)
	if err != nil || size <= 0 {
		return 10
	}
	return size
}

// PostgresDSN builds a connection string for the postgres tier.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresUser, c.PostgresPassword, c.PostgresSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
