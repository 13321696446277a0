package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Redis (provider cache + latest screen result)
	Redis RedisConfig

	// Fundamentals provider
	IEX IEXConfig

	// Strategy YAML (selection / weighting parameters)
	StrategyFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// IEXConfig holds the IEX Cloud compatible provider configuration
type IEXConfig struct {
	BaseURL     string
	Token       string
	BatchSize   int     // symbols per batch request (provider max: 100)
	RateLimit   float64 // requests per second
	Timeout     time.Duration
	Concurrency int // concurrent batch requests
}

// MaxBatchSize is the provider's symbol limit per batch call
const MaxBatchSize = 100

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "12h"),
		},

		// Provider
		IEX: IEXConfig{
			BaseURL:     getEnv("IEX_BASE_URL", "https://cloud.iexapis.com/stable"),
			Token:       getEnv("IEX_API_TOKEN", ""),
			BatchSize:   getEnvAsInt("IEX_BATCH_SIZE", MaxBatchSize),
			RateLimit:   getEnvAsFloat("IEX_RATE_LIMIT", 10),
			Timeout:     getEnvAsDuration("IEX_TIMEOUT", "30s"),
			Concurrency: getEnvAsInt("FETCH_CONCURRENCY", 4),
		},

		StrategyFile: getEnv("STRATEGY_FILE", "config/strategy/value_v1.yaml"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.IEX.BatchSize < 1 || c.IEX.BatchSize > MaxBatchSize {
		return fmt.Errorf("IEX_BATCH_SIZE must be in [1, %d], got %d", MaxBatchSize, c.IEX.BatchSize)
	}

	if c.IEX.Concurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1, got %d", c.IEX.Concurrency)
	}

	if c.IEX.RateLimit <= 0 {
		return fmt.Errorf("IEX_RATE_LIMIT must be > 0")
	}

	return nil
}

// RequireToken returns an error when the provider token is not configured.
// Only commands that hit the provider call this.
func (c *Config) RequireToken() error {
	if c.IEX.Token == "" {
		return fmt.Errorf("IEX_API_TOKEN is required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
