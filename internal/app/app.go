package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker/v2"

	"github.com/CindyCUI423/Recam-sub000/internal/auth"
	"github.com/CindyCUI423/Recam-sub000/internal/config"
	handler "github.com/CindyCUI423/Recam-sub000/internal/handler/http"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/repository/postgres"
	"github.com/CindyCUI423/Recam-sub000/internal/service"
	"github.com/CindyCUI423/Recam-sub000/migrations"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
	"github.com/CindyCUI423/Recam-sub000/pkg/health"
	pkgkafka "github.com/CindyCUI423/Recam-sub000/pkg/kafka"
	"github.com/CindyCUI423/Recam-sub000/pkg/middleware"
	"github.com/CindyCUI423/Recam-sub000/pkg/tracing"
)

const (
	serviceName    = "recam"
	serviceVersion = "0.1.0"

	// devJWTSecret signs tokens in development when JWT_SECRET is unset.
	devJWTSecret = "recam-development-secret"
)

// App wires together all dependencies and runs the Recam API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := startTracer(ctx, cfg, serviceName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = shutdownTracer(tracerShutdown)
		}
	}()

	pool, err := openPostgres(ctx, cfg, logger, serviceName)
	if err != nil {
		return nil, err
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer with connection validation and retry.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
		logger.Warn("kafka producer ping failed after retries, history will be dropped until it recovers",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// History pipeline: recorder -> breaker -> kafka.
	breakerCfg := history.DefaultBreakerConfig("history-sink")
	breakerCfg.MinRequests = cfg.BreakerFailures
	breakerCfg.Timeout = cfg.BreakerOpenTimeout()
	sink := history.NewBreakerSink(history.NewKafkaSink(producer, cfg.HistoryTopic, serviceName), breakerCfg, logger)
	recorder := history.NewRecorder(sink, logger).WithTimeout(cfg.HistoryAppendTimeout())

	// Build the dependency graph.
	cases := postgres.NewListingCaseRepository(pool)
	assignments := postgres.NewAssignmentRepository(pool)
	contacts := postgres.NewContactRepository(pool)
	media := postgres.NewMediaAssetRepository(pool)
	tx := database.NewTransactor(pool)

	listingCaseService := service.NewListingCaseService(cases, assignments, contacts, recorder, logger)
	mediaAssetService := service.NewMediaAssetService(cases, media, tx, recorder, logger)

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development signing key")
		secret = devJWTSecret
	}
	jwtManager := auth.NewJWTManager(secret, cfg.JWTAccessTTL())

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("history_sink", func(context.Context) error {
		if state := sink.State(); state != gobreaker.StateClosed {
			return fmt.Errorf("circuit breaker %s", state)
		}
		return nil
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(
		handler.RouterConfig{
			CORS:              corsCfg,
			RateLimit:         middleware.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		},
		listingCaseService,
		mediaAssetService,
		recorder,
		jwtManager.Validator(),
		healthHandler,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer (flush history records)
// 4. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := shutdownTracer(a.tracerShutdown); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// initTracer starts OpenTelemetry tracing for the named process.
// startTracer is replaced in tests.
var startTracer = initTracer

func initTracer(ctx context.Context, cfg *config.Config, name string) (func(context.Context) error, error) {
	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    name,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	return shutdown, nil
}

func shutdownTracer(shutdown func(context.Context) error) error {
	if shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return shutdown(ctx)
}

// openPostgres connects the pool, registers its metrics, and configures slow
// query logging.
func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) (*pgxpool.Pool, error) {
	pgCfg := cfg.Postgres()

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, name)

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}
	return pool, nil
}

// pingKafkaWithRetry pings the producer's brokers with the same backoff used
// for postgres startup.
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	return database.Retry(ctx, logger, "kafka producer ping", nil, producer.Ping)
}
