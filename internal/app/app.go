package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentRanker/internal/config"
	"ContentRanker/internal/domain"
	"ContentRanker/internal/infrastructure/cache"
	"ContentRanker/internal/infrastructure/queue"
	"ContentRanker/internal/infrastructure/scheduler"
	"ContentRanker/internal/infrastructure/source"
	"ContentRanker/internal/infrastructure/storage"
	"ContentRanker/internal/logging"
	"ContentRanker/internal/metrics"
	"ContentRanker/internal/ports"
	"ContentRanker/internal/ranking"
	"ContentRanker/internal/scanner"
	"ContentRanker/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	metrics  *metrics.Recorder
	registry *scanner.Registry
	closers  []io.Closer
}

// New builds the adapters selected by cfg. Call Close when done.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		metrics: metrics.New(),
		registry: scanner.NewRegistry(
			source.JSONScanner{},
			source.NewFeedScanner(nil),
			source.NewArxivScanner(nil),
		),
	}

	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(ctx context.Context) error {
	var (
		redisClient *redis.Client
		sqlStore    *storage.SQLStore
	)

	if a.cfg.Dedup.Backend == config.DedupRedis || a.cfg.Queue.Enabled {
		opts, err := redis.ParseURL(a.cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient)
	}

	if a.cfg.Database.DSN != "" {
		store, err := storage.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		sqlStore = store
		a.closers = append(a.closers, store)
	}

	fingerprints, err := a.fingerprintStore(redisClient, sqlStore)
	if err != nil {
		return err
	}

	var runs ports.RunRepository
	if sqlStore != nil {
		runs = sqlStore
	}

	var queueClient ports.QueueClient
	if a.cfg.Queue.Enabled {
		queueClient = queue.NewStreamClient(redisClient, a.cfg.Queue.Stream, a.cfg.Queue.MaxLen)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:       source.NewStrategySource(a.registry, a.cfg.Sites, a.logger.With("component", "source")),
		Fingerprints: fingerprints,
		Queue:        queueClient,
		Runs:         runs,
		Metrics:      a.metrics,
		Config:       a.cfg.ProcessingConfig(),
		Logger:       a.logger.With("component", "pipeline"),
	})

	a.logger.Debug("application wired",
		"dedup", a.cfg.Dedup.Backend,
		"queue", a.cfg.Queue.Enabled,
		"archive", runs != nil,
		"scanners", a.registry.Names(),
	)
	return nil
}

func (a *Application) fingerprintStore(client *redis.Client, store *storage.SQLStore) (ports.FingerprintStore, error) {
	switch a.cfg.Dedup.Backend {
	case config.DedupNone:
		return nil, nil
	case config.DedupRedis:
		return cache.NewRedisStore(client, a.cfg.Dedup.KeyPrefix, a.cfg.Dedup.TTL), nil
	case config.DedupSQL:
		if store == nil {
			return nil, fmt.Errorf("dedup backend %q requires database.dsn", config.DedupSQL)
		}
		return store, nil
	case config.DedupMemory, "":
		return cache.NewLRUStore(a.cfg.Dedup.LRUSize, a.cfg.Dedup.TTL), nil
	default:
		return nil, fmt.Errorf("unknown dedup backend %q", a.cfg.Dedup.Backend)
	}
}

// Pipeline exposes the wired ranking pipeline.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// RankTopics scores items with the configured topic weights.
func (a *Application) RankTopics(items []domain.ContentItem, now time.Time) []domain.RankedTopic {
	return ranking.RankTopics(items, a.cfg.RankingConfig(), now)
}

// Run performs a single scheduled-style execution against configured sources.
func (a *Application) Run(ctx context.Context) (domain.ProcessResult, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.ProcessSource(ctx, now)
}

// Serve runs the cron scheduler and the metrics endpoint until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Timezone)
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"next", driver.Next(time.Now()),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = sched.Stop(context.Background())
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(
		sched.Stop(shutdownCtx),
		srv.Shutdown(shutdownCtx),
	)
}

// Close releases adapter connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
