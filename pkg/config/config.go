// Package config loads tempo settings from the environment, an optional
// .env file, and an optional YAML/TOML/JSON file given with --config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultUserID is the single local user when TEMPO_USER_ID is unset.
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string
	UserID    string
	Timezone  string

	// Database
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	// Redis
	RedisURL      string
	StatsCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr      string
	WorkerCleanupSchedule string
	WorkerStatsSchedule   string

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// CalDAV
	CalDAVURL           string
	CalDAVUsername      string
	CalDAVPassword      string
	CalDAVCalendarPath  string
	CalDAVDeleteMissing bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()
	return build(os.LookupEnv)
}

// LoadFile loads configuration from path, with environment variables taking
// precedence over the file. Keys in the file use the environment names in any
// case (database_url, DATABASE_URL). An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	fromFile := func(key string) (string, bool) {
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}
	return build(firstOf(os.LookupEnv, fromFile))
}

type lookupFunc func(key string) (string, bool)

func firstOf(lookups ...lookupFunc) lookupFunc {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if v, ok := lookup(key); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

func build(lookup lookupFunc) (*Config, error) {
	s := source{lookup: lookup}
	cfg := &Config{
		AppEnv:    s.getEnv("APP_ENV", "development"),
		LogLevel:  s.getEnv("LOG_LEVEL", "info"),
		LogFormat: s.getEnv("LOG_FORMAT", "text"),
		UserID:    s.getEnv("TEMPO_USER_ID", DefaultUserID),
		Timezone:  s.getEnv("TEMPO_TIMEZONE", "UTC"),

		DatabaseDriver: s.getEnv("DATABASE_DRIVER", ""),
		DatabaseURL:    s.getEnv("DATABASE_URL", ""),
		SQLitePath:     s.getEnv("SQLITE_PATH", ""),

		RedisURL:      s.getEnv("REDIS_URL", ""),
		StatsCacheTTL: s.getDurationEnv("STATS_CACHE_TTL", 5*time.Minute),

		RabbitMQURL: s.getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     s.getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        s.getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       s.getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    s.getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxProcessorEnabled: s.getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr:      s.getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		WorkerCleanupSchedule: s.getEnv("WORKER_CLEANUP_SCHEDULE", "0 3 * * *"),
		WorkerStatsSchedule:   s.getEnv("WORKER_STATS_SCHEDULE", "@hourly"),

		MCPAddr:      s.getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: s.getEnv("MCP_AUTH_TOKEN", ""),

		CalDAVURL:           s.getEnv("CALDAV_URL", ""),
		CalDAVUsername:      s.getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:      s.getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath:  s.getEnv("CALDAV_CALENDAR_PATH", ""),
		CalDAVDeleteMissing: s.getBoolEnv("CALDAV_DELETE_MISSING", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := c.UserUUID(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// UserUUID parses TEMPO_USER_ID.
func (c *Config) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("TEMPO_USER_ID %q is not a uuid: %w", c.UserID, err)
	}
	return id, nil
}

// Location resolves TEMPO_TIMEZONE, the zone "HH:mm" times are read in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TEMPO_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasCalDAV reports whether a CalDAV server is configured.
func (c *Config) HasCalDAV() bool {
	return c.CalDAVURL != ""
}

type source struct {
	lookup lookupFunc
}

func (s source) getEnv(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) getIntEnv(key string, defaultValue int) int {
	if value, ok := s.lookup(key); ok && value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s source) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (s source) getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := s.lookup(key); ok && value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
