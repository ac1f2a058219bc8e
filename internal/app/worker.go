package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/CindyCUI423/Recam-sub000/internal/config"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/repository/postgres"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
	"github.com/CindyCUI423/Recam-sub000/pkg/health"
	pkgkafka "github.com/CindyCUI423/Recam-sub000/pkg/kafka"
)

const (
	workerName      = "recam-history-worker"
	dedupeKeyPrefix = "recam:history:seen"
)

// Worker consumes history events and writes them to the history tables.
type Worker struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	consumer       *pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewWorker creates the history worker, initializing all dependencies.
func NewWorker(cfg *config.Config, logger *slog.Logger) (_ *Worker, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := startTracer(ctx, cfg, workerName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = shutdownTracer(tracerShutdown)
		}
	}()

	pool, err := openPostgres(ctx, cfg, logger, workerName)
	if err != nil {
		return nil, err
	}

	// The API owns the schema; the worker only verifies the history tables
	// are reachable before consuming.
	if _, err := pool.Exec(ctx, "SELECT 1 FROM case_histories LIMIT 1"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history schema not ready: %w", err)
	}

	// Redis backs event deduplication. Without it the worker falls back to an
	// in-process store, which only dedupes within one process lifetime.
	var (
		redisClient *redis.Client
		dedupe      pkgkafka.IdempotencyStore
	)
	redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, using in-memory deduplication",
			slog.String("error", err.Error()),
		)
		redisClient = nil
		dedupe = pkgkafka.NewMemoryIdempotencyStore(cfg.HistoryDedupeTTL())
	} else {
		logger.Info("connected to Redis", slog.String("host", cfg.RedisHost), slog.Int("port", cfg.RedisPort))
		dedupe = pkgkafka.NewRedisIdempotencyStore(redisClient, dedupeKeyPrefix, cfg.HistoryDedupeTTL())
	}

	store := postgres.NewHistoryRepository(pool)
	handler := pkgkafka.IdempotentHandler(dedupe, history.NewHandler(store, logger), logger)

	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.HistoryGroupID,
		Topic:    cfg.HistoryTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, handler, dlq, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := chi.NewRouter()
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHTTPPort),
		Handler:           r,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Worker{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		consumer:       consumer,
		dlq:            dlq,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the consumer and the probe server and blocks until the context
// is canceled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		w.logger.Info("starting probe server", slog.String("addr", w.httpServer.Addr))
		if err := w.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("probe server: %w", err)
		}
	}()

	go func() {
		w.logger.Info("starting history consumer",
			slog.String("topic", w.cfg.HistoryTopic),
			slog.String("group", w.cfg.HistoryGroupID),
		)
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("history consumer: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = w.Shutdown()
		return err
	}

	return w.Shutdown()
}

// Shutdown stops the consumer before closing the stores it writes to.
func (w *Worker) Shutdown() error {
	w.logger.Info("shutting down history worker...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := w.httpServer.Shutdown(httpCtx); err != nil {
		errs = append(errs, fmt.Errorf("probe server: %w", err))
	}

	if err := w.consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("consumer: %w", err))
	}

	if err := w.dlq.Close(); err != nil {
		errs = append(errs, fmt.Errorf("dlq producer: %w", err))
	}

	if err := shutdownTracer(w.tracerShutdown); err != nil {
		errs = append(errs, fmt.Errorf("tracer: %w", err))
	}

	if w.redis != nil {
		if err := w.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	w.pool.Close()

	for _, err := range errs {
		w.logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	w.logger.Info("history worker shutdown complete")
	return errors.Join(errs...)
}
