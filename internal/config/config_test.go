package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/CindyCUI423/Recam-sub000/pkg/config"
)

func init() {
	// Keep a developer's .env out of these tests.
	pkgconfig.DotEnvFile = ""
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "recam", cfg.PostgresDB)
	assert.Equal(t, "recam.history.recorded", cfg.HistoryTopic)
	assert.Equal(t, 2*time.Second, cfg.HistoryAppendTimeout())
	assert.Equal(t, 24*time.Hour, cfg.HistoryDedupeTTL())
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout())
	assert.Equal(t, time.Hour, cfg.JWTAccessTTL())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_RPS")
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("RECAM_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_InvalidAppendTimeout(t *testing.T) {
	t.Setenv("HISTORY_APPEND_TIMEOUT_MS", "-5")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTORY_APPEND_TIMEOUT_MS")
}

func TestLoad_JWTSecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.recam.test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://app.recam.test"}, cfg.CORSAllowedOrigins)
}

func TestPostgresAndRedisSettings(t *testing.T) {
	cfg := &Config{
		PostgresUser:          "u",
		PostgresPass:          "p",
		PostgresHost:          "db",
		PostgresPort:          5433,
		PostgresDB:            "recam",
		PostgresSSL:           "require",
		DBMaxConns:            10,
		DBMaxConnLifetimeMins: 15,
		RedisHost:             "cache",
		RedisPort:             6380,
		RedisDB:               2,
	}

	pg := cfg.Postgres()
	assert.Equal(t, "postgres://u:p@db:5433/recam?sslmode=require", pg.DSN())
	assert.Equal(t, int32(10), pg.MaxConns)
	assert.Equal(t, 15*time.Minute, pg.MaxConnLifetime)

	rd := cfg.Redis()
	assert.Equal(t, "cache:6380", rd.Addr())
	assert.Equal(t, 2, rd.DB)
}
