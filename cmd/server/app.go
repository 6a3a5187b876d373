package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/nutrition-api/internal/config"
	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/events"
	"github.com/phrazzld/nutrition-api/internal/platform/postgres"
	"github.com/phrazzld/nutrition-api/internal/ratelimit"
	"github.com/phrazzld/nutrition-api/internal/service"
	"github.com/phrazzld/nutrition-api/internal/source"
	"github.com/phrazzld/nutrition-api/internal/store"
	"github.com/phrazzld/nutrition-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore    store.TaskStore
	dataRowStore store.DataRowStore

	taskService service.TaskService
	limiter     ratelimit.Limiter
	redis       *redis.Client // nil unless rate_limit.backend is redis

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized and the task runner started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.dataRowStore = postgres.NewPostgresDataRowStore(db, logger)

	sources := []source.Reader{
		source.NewJSONFile(cfg.Sources.PersonXPath, domain.PersonX),
		source.NewCSVFile(cfg.Sources.PersonYPath, domain.PersonY),
	}
	rowWriter := service.NewDataRowWriter(db, app.dataRowStore, logger)
	factory := task.NewIngestionTaskFactory(sources, rowWriter, task.Delays{
		Ingest:   cfg.Task.IngestDelay,
		Finalize: cfg.Task.FinalizeDelay,
	}, logger)

	runnerConfig := task.DefaultTaskRunnerConfig()
	runnerConfig.RecoverOnStart = cfg.Task.RecoverOnStart
	app.taskRunner = task.NewTaskRunner(app.taskStore, factory, runnerConfig, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))

	var err error
	app.taskService, err = service.NewTaskService(app.taskStore, app.dataRowStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.limiter, app.redis, err = newLimiter(ctx, cfg.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	if err := app.taskRunner.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// newLimiter builds the limiter selected by cfg.Backend. An unreachable
// Redis is only logged: the middleware lets requests through while the
// limiter errors.
func newLimiter(
	ctx context.Context,
	cfg config.RateLimitConfig,
	logger *slog.Logger,
) (ratelimit.Limiter, *redis.Client, error) {
	if cfg.Backend != "redis" {
		l, err := ratelimit.NewMemoryLimiter(cfg.RequestsPerMinute)
		return l, nil, err
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	l, err := ratelimit.NewRedisLimiter(client, cfg.RequestsPerMinute)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, rate limiting disabled until it recovers",
			"addr", cfg.RedisAddr,
			"error", err)
	}

	return l, client, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and releases resources. In-flight tasks get
// until ctx ends to finish; the rest are cancelled and end as interrupted.
func (app *application) cleanup(ctx context.Context) {
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(ctx); err != nil {
			app.logger.Warn("Task runner stopped before all tasks finished", "error", err)
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis client", "error", err)
		}
	}
}
