// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetIntakeRateLimit() float64
	GetIntakeRateBurst() int
}

// SchedulerConfig provides settings for the asynq queue and shared redis.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EnrichmentConfig provides settings for the AI enrichment agent.
type EnrichmentConfig interface {
	GetMoonshotAPIKey() string
	GetEnrichmentModel() string
	GetEnrichmentTTL() time.Duration
	GetEnrichmentRetention() time.Duration
	GetEnrichmentCleanupInterval() time.Duration
	IsEnrichmentEnabled() bool
}

// ArchiveConfig provides settings for the MinIO model archive.
type ArchiveConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketScoringModels() string
	IsMinIOEnabled() bool
}

// LearningConfig provides settings for model training and the retrain gate.
type LearningConfig interface {
	GetRetrainOutcomeThreshold() int
	GetTrainingLockTTL() time.Duration
	GetScoringExtendedFeatures() bool
}

// PhoneConfig provides settings for phone normalization.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	DatabaseMaxConns int
	JWTAccessSecret  string
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	IntakeRateLimit  float64
	IntakeRateBurst  int

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	MoonshotAPIKey            string
	EnrichmentModel           string
	EnrichmentTTL             time.Duration
	EnrichmentRetention       time.Duration
	EnrichmentCleanupInterval time.Duration

	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinioBucketScoringModels string

	RetrainOutcomeThreshold int
	TrainingLockTTL         time.Duration
	ScoringExtendedFeatures bool

	PhoneDefaultRegion string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int { return c.DatabaseMaxConns }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool     { return c.CORSAllowCreds }
func (c *Config) GetIntakeRateLimit() float64 { return c.IntakeRateLimit }
func (c *Config) GetIntakeRateBurst() int     { return c.IntakeRateBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// EnrichmentConfig implementation
func (c *Config) GetMoonshotAPIKey() string                   { return c.MoonshotAPIKey }
func (c *Config) GetEnrichmentModel() string                  { return c.EnrichmentModel }
func (c *Config) GetEnrichmentTTL() time.Duration             { return c.EnrichmentTTL }
func (c *Config) GetEnrichmentRetention() time.Duration       { return c.EnrichmentRetention }
func (c *Config) GetEnrichmentCleanupInterval() time.Duration { return c.EnrichmentCleanupInterval }
func (c *Config) IsEnrichmentEnabled() bool                   { return c.MoonshotAPIKey != "" }

// ArchiveConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketScoringModels() string {
	return c.MinioBucketScoringModels
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// LearningConfig implementation
func (c *Config) GetRetrainOutcomeThreshold() int   { return c.RetrainOutcomeThreshold }
func (c *Config) GetTrainingLockTTL() time.Duration { return c.TrainingLockTTL }
func (c *Config) GetScoringExtendedFeatures() bool  { return c.ScoringExtendedFeatures }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
// Only DATABASE_URL is required here; binaries check what else they need.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMaxConns: mustInt(getEnv("DB_MAX_CONNS", "20")),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		IntakeRateLimit:  mustFloat(getEnv("INTAKE_RATE_LIMIT", "2")),
		IntakeRateBurst:  mustInt(getEnv("INTAKE_RATE_BURST", "10")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		MoonshotAPIKey:            getEnv("MOONSHOT_API_KEY", ""),
		EnrichmentModel:           getEnv("ENRICHMENT_MODEL", "kimi-k2-turbo-preview"),
		EnrichmentTTL:             mustDuration(getEnv("ENRICHMENT_TTL", "168h")),
		EnrichmentRetention:       time.Duration(mustInt(getEnv("ENRICHMENT_RETENTION_DAYS", "90"))) * 24 * time.Hour,
		EnrichmentCleanupInterval: mustDuration(getEnv("ENRICHMENT_CLEANUP_INTERVAL", "1h")),

		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketScoringModels: getEnv("MINIO_BUCKET_SCORING_MODELS", "scoring-models"),

		RetrainOutcomeThreshold: mustInt(getEnv("RETRAIN_OUTCOME_THRESHOLD", "25")),
		TrainingLockTTL:         mustDuration(getEnv("TRAINING_LOCK_TTL", "2m")),
		ScoringExtendedFeatures: strings.EqualFold(getEnv("SCORING_EXTENDED_FEATURES", "true"), "true"),

		PhoneDefaultRegion: strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.RetrainOutcomeThreshold < 1 {
		return nil, fmt.Errorf("RETRAIN_OUTCOME_THRESHOLD must be at least 1")
	}
	if cfg.EnrichmentRetention <= 0 {
		return nil, fmt.Errorf("ENRICHMENT_RETENTION_DAYS must be at least 1")
	}
	if cfg.EnrichmentCleanupInterval <= 0 {
		return nil, fmt.Errorf("ENRICHMENT_CLEANUP_INTERVAL must be a positive duration")
	}
	if cfg.TrainingLockTTL <= 0 {
		return nil, fmt.Errorf("TRAINING_LOCK_TTL must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
