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
}

// GazeConfig provides settings for the Gaze owner registry API.
type GazeConfig interface {
	GetGazeAPIBase() string
	GetGazeLoginURL() string
	GetGazeUsername() string
	GetGazePassword() string
	GetGazeRequestsPerSecond() float64
	GetGazeTokenTTL() time.Duration
	GetGazeTimeout() time.Duration
}

// CogWriteConfig provides the audit columns stamped on rows written to Cog.
type CogWriteConfig interface {
	GetCogUserID() int
	GetCogSourceID() int
}

// SchedulerConfig provides Redis and asynq settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
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
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketGazeSnapshots() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for operator notification email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetOperatorEmail() string
	IsSMTPEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	MigrationsEnabled        bool
	GazeAPIBase              string
	GazeLoginURL             string
	GazeUsername             string
	GazePassword             string
	GazeRequestsPerSecond    float64
	GazeTokenTTL             time.Duration
	GazeTimeout              time.Duration
	CogUserID                int
	CogSourceID              int
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinioBucketGazeSnapshots string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	EmailFromName            string
	EmailFromAddress         string
	OperatorEmail            string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// GazeConfig implementation
func (c *Config) GetGazeAPIBase() string            { return c.GazeAPIBase }
func (c *Config) GetGazeLoginURL() string           { return c.GazeLoginURL }
func (c *Config) GetGazeUsername() string           { return c.GazeUsername }
func (c *Config) GetGazePassword() string           { return c.GazePassword }
func (c *Config) GetGazeRequestsPerSecond() float64 { return c.GazeRequestsPerSecond }
func (c *Config) GetGazeTokenTTL() time.Duration    { return c.GazeTokenTTL }
func (c *Config) GetGazeTimeout() time.Duration     { return c.GazeTimeout }

// CogWriteConfig implementation
func (c *Config) GetCogUserID() int   { return c.CogUserID }
func (c *Config) GetCogSourceID() int { return c.CogSourceID }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketGazeSnapshots() string {
	return c.MinioBucketGazeSnapshots
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetOperatorEmail() string    { return c.OperatorEmail }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.OperatorEmail != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		MigrationsEnabled:        strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		GazeAPIBase:              strings.TrimRight(getEnv("GAZE_API_BASE", "https://corpsearch-api.pittsburghhousing.org"), "/"),
		GazeLoginURL:             getEnv("GAZE_LOGIN_URL", ""),
		GazeUsername:             getEnv("GAZE_USERNAME", ""),
		GazePassword:             getEnv("GAZE_PASSWORD", ""),
		GazeRequestsPerSecond:    mustFloat(getEnv("GAZE_REQUESTS_PER_SECOND", "2")),
		GazeTokenTTL:             mustDuration(getEnv("GAZE_TOKEN_TTL", "50m")),
		GazeTimeout:              mustDuration(getEnv("GAZE_TIMEOUT", "15s")),
		CogUserID:                mustInt(getEnv("COG_USER_ID", "99")),
		CogSourceID:              mustInt(getEnv("COG_SOURCE_ID", "0")),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "parcel-sync"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "1")),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketGazeSnapshots: getEnv("MINIO_BUCKET_GAZE_SNAPSHOTS", "gaze-snapshots"),
		SMTPHost:                 getEnv("SMTP_HOST", ""),
		SMTPPort:                 mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:             getEnv("SMTP_USERNAME", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		EmailFromName:            getEnv("EMAIL_FROM_NAME", "Cog Mailing Sync"),
		EmailFromAddress:         getEnv("EMAIL_FROM_ADDRESS", ""),
		OperatorEmail:            getEnv("OPERATOR_EMAIL", ""),
	}

	if cfg.GazeLoginURL == "" {
		cfg.GazeLoginURL = cfg.GazeAPIBase + "/auth/login"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.GazeRequestsPerSecond <= 0 {
		return fmt.Errorf("GAZE_REQUESTS_PER_SECOND must be positive")
	}
	if c.GazeTokenTTL <= 0 {
		return fmt.Errorf("GAZE_TOKEN_TTL must be a positive duration")
	}
	if c.CogUserID <= 0 {
		return fmt.Errorf("COG_USER_ID must be a positive integer")
	}
	if c.IsSMTPEnabled() && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP is enabled")
	}
	return nil
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
