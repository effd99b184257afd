package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging
	LogLevel  string
	LogPretty bool

	// Upstream (ip-api.com)
	IPAPIHost     string        // host or host:port
	IPAPIUseHTTPS bool          // default scheme when a request does not choose one
	IPAPITimeout  time.Duration // transport timeout

	// Rate limiting of incoming requests
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed
	RateLimitWindow int    // time window in seconds (default: 1)

	// History store
	HistoryStoreType string // "csv", "mysql", or "redis"
	HistoryCSVPath   string // path to the CSV history file
	HistoryLimit     int    // records kept/returned per target

	// MySQL configuration
	MySQLDSN string // Data Source Name

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables
// with sensible defaults
func Load() *Config {
	// .env is only for local development
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port: getEnv("PORT", "3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		IPAPIHost:     getEnv("IPAPI_HOST", "ip-api.com"),
		IPAPIUseHTTPS: getEnvAsBool("IPAPI_USE_HTTPS", false), // HTTPS is a paid upstream feature
		IPAPITimeout:  getEnvAsDuration("IPAPI_TIMEOUT", 5*time.Second),

		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 1),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		HistoryStoreType: getEnv("HISTORY_STORE_TYPE", "csv"),
		HistoryCSVPath:   getEnv("HISTORY_CSV_PATH", "./data/history.csv"),
		HistoryLimit:     getEnvAsInt("HISTORY_LIMIT", 20),

		MySQLDSN: getEnv("MYSQL_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a bool ("true", "1", "false", ...)
// Returns default if not set or invalid
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as a duration ("5s", "750ms")
// Returns default if not set or invalid
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
