// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq worker and outbox relay.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// StreamConfig provides settings for the outbound event stream.
type StreamConfig interface {
	GetRedisURL() string
	GetEventStreamName() string
}

// OutboxConfig provides settings for the outbox dispatcher.
type OutboxConfig interface {
	GetOutboxBatchSize() int
	GetOutboxPublishRate() float64
}

// =============================================================================
// Config Implementation
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	EventStreamName   string
	OutboxBatchSize   int
	OutboxPublishRate float64
	IngestAPIKey      string
}

func (c *Config) GetDatabaseURL() string        { return c.DatabaseURL }
func (c *Config) GetHTTPAddr() string           { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool         { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string      { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool       { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string           { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool     { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string     { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int      { return c.AsynqConcurrency }
func (c *Config) GetEventStreamName() string    { return c.EventStreamName }
func (c *Config) GetOutboxBatchSize() int       { return c.OutboxBatchSize }
func (c *Config) GetOutboxPublishRate() float64 { return c.OutboxPublishRate }
func (c *Config) GetIngestAPIKey() string       { return c.IngestAPIKey }

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:  mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		EventStreamName:   getEnv("EVENT_STREAM_NAME", "reassessment-events"),
		OutboxBatchSize:   mustInt(getEnv("OUTBOX_BATCH_SIZE", "50")),
		OutboxPublishRate: mustFloat(getEnv("OUTBOX_PUBLISH_RATE", "100")),
		IngestAPIKey:      getEnv("INGEST_API_KEY", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
