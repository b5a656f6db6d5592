// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Gmail listing
	GmailSearchQuery   string
	GmailRatePerSecond int

	// Inference
	InferenceBackend   string
	ClassifierURL      string
	ExtractorURL       string
	InferenceAPIToken  string
	MinEntityScore     float64
	OpenAIAPIKey       string
	OpenAIModel        string

	// Pipeline
	FetchWindowHours   int
	FetchPageSize      int
	ClassifyBatchSize  int
	BodyTruncateLength int
	MaxConcurrent      int
	RetryMaxAttempts   int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration

	// Caching
	NormalizeCacheSize int
	ProcessedTTL       time.Duration

	// Scheduler
	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "jobminer"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Gmail listing
		GmailSearchQuery:   getEnv("GMAIL_SEARCH_QUERY", ""),
		GmailRatePerSecond: getEnvInt("GMAIL_RATE_PER_SECOND", 25),

		// Inference
		InferenceBackend:  getEnv("INFERENCE_BACKEND", "http"),
		ClassifierURL:     getEnv("CLASSIFIER_URL", ""),
		ExtractorURL:      getEnv("EXTRACTOR_URL", ""),
		InferenceAPIToken: getEnv("INFERENCE_API_TOKEN", ""),
		MinEntityScore:    getEnvFloat("MIN_ENTITY_SCORE", 0.5),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		// Pipeline
		FetchWindowHours:   getEnvInt("FETCH_WINDOW_HOURS", 24),
		FetchPageSize:      getEnvInt("FETCH_PAGE_SIZE", 50),
		ClassifyBatchSize:  getEnvInt("CLASSIFY_BATCH_SIZE", 16),
		BodyTruncateLength: getEnvInt("BODY_TRUNCATE_LENGTH", 1000),
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT_PIPELINES", 5),
		RetryMaxAttempts:   getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:     time.Duration(getEnvInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		RetryMaxDelay:      time.Duration(getEnvInt("RETRY_MAX_DELAY_SEC", 30)) * time.Second,

		// Caching
		NormalizeCacheSize: getEnvInt("NORMALIZE_CACHE_SIZE", 1000),
		ProcessedTTL:       time.Duration(getEnvInt("PROCESSED_TTL_HOURS", 168)) * time.Hour,

		// Scheduler
		SchedulerEnabled:  getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerInterval: time.Duration(getEnvInt("SCHEDULER_INTERVAL_MIN", 60)) * time.Minute,

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
