package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/CindyCUI423/Recam-sub000/pkg/config"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
)

// Config holds all configuration for the Recam API and the history worker.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int `env:"RECAM_HTTP_PORT" envDefault:"8080"`
	WorkerHTTPPort int `env:"HISTORY_WORKER_HTTP_PORT" envDefault:"8081"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"recam"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"recam_secret"`
	PostgresDB   string `env:"RECAM_DB_NAME" envDefault:"recam"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	HistoryTopic     string   `env:"HISTORY_TOPIC" envDefault:"recam.history.recorded"`
	HistoryGroupID   string   `env:"HISTORY_CONSUMER_GROUP" envDefault:"recam-history-worker"`
	HistoryAppendMs  int      `env:"HISTORY_APPEND_TIMEOUT_MS" envDefault:"2000"`
	HistoryDedupeHrs int      `env:"HISTORY_DEDUPE_TTL_HOURS" envDefault:"24"`
	BreakerFailures  uint32   `env:"HISTORY_BREAKER_FAILURES" envDefault:"5"`
	BreakerOpenSecs  int      `env:"HISTORY_BREAKER_OPEN_SECONDS" envDefault:"30"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Auth
	JWTSecret       string `env:"JWT_SECRET" envDefault:""`
	JWTAccessExpiry int    `env:"JWT_ACCESS_EXPIRY_MINUTES" envDefault:"60"`

	// Per-principal rate limit on /api/v1; 0 disables
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load recam config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.WorkerHTTPPort < 1 || c.WorkerHTTPPort > 65535 {
		return fmt.Errorf("invalid history worker HTTP port: %d", c.WorkerHTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.HistoryTopic == "" {
		return fmt.Errorf("HISTORY_TOPIC is required")
	}
	if c.HistoryAppendMs <= 0 {
		return fmt.Errorf("HISTORY_APPEND_TIMEOUT_MS must be > 0, got %d", c.HistoryAppendMs)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0, got %f", c.RateLimitRPS)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Postgres returns the connection and pool settings for database.NewPostgresPool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for database.NewRedisClient.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// HistoryAppendTimeout is the per-record budget of the history recorder.
func (c *Config) HistoryAppendTimeout() time.Duration {
	return time.Duration(c.HistoryAppendMs) * time.Millisecond
}

// HistoryDedupeTTL is how long the worker remembers processed event ids.
func (c *Config) HistoryDedupeTTL() time.Duration {
	return time.Duration(c.HistoryDedupeHrs) * time.Hour
}

// BreakerOpenTimeout is how long the history breaker stays open.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenSecs) * time.Second
}

// JWTAccessTTL is the lifetime of issued access tokens.
func (c *Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessExpiry) * time.Minute
}
