package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/platform/metrics"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	redisplatform "github.com/taskhub/taskhub-api/internal/platform/redis"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
	"github.com/taskhub/taskhub-api/internal/resilience/breaker"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
	"github.com/taskhub/taskhub-api/internal/resilience/retry"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/worker"
)

// application bundles the assembled dependency graph.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	redis   *redis.Client
	metrics *metrics.Metrics

	jwtService          auth.JWTService
	userService         service.UserService
	taskService         *service.TaskService
	categoryService     *service.CategoryService
	teamService         *service.TeamService
	notificationService *service.NotificationService

	breakers   *breaker.Registry
	retrier    *retry.Executor
	escalator  *ratelimit.Escalator
	limiters   map[ratelimit.Category]ratelimit.Limiter
	dispatcher *worker.Dispatcher

	janitorCancel context.CancelFunc
}

// initializeApp loads configuration and assembles every component: storage,
// resilience primitives, services, and the notification dispatcher.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.Options{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogPretty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	app := &application{
		config:  cfg,
		logger:  log,
		db:      db,
		metrics: m,
	}

	if err := app.setupResilience(); err != nil {
		app.cleanup()
		return nil, err
	}
	if err := app.setupServices(); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

// setupResilience builds the breaker registry, retry executor, escalator,
// and per-category request limiters.
func (app *application) setupResilience() error {
	cfg := app.config

	breakerCfg := breaker.DefaultConfig()
	if cfg.Resilience.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.Resilience.BreakerFailureThreshold
	}
	if cfg.Resilience.BreakerResetSeconds > 0 {
		breakerCfg.ResetTimeout = time.Duration(cfg.Resilience.BreakerResetSeconds) * time.Second
	}
	if cfg.Resilience.BreakerSuccessThreshold > 0 {
		breakerCfg.SuccessThreshold = cfg.Resilience.BreakerSuccessThreshold
	}
	app.breakers = breaker.NewRegistry(breakerCfg, app.logger,
		breaker.WithStateChangeHook(app.metrics.BreakerHook()))

	app.retrier = retry.NewExecutor(app.logger)

	// Rate-limit state lives in Redis when configured so blocks survive
	// restarts and apply across instances; otherwise in memory.
	var escalatorStore ratelimit.Store
	if cfg.Redis.Addr != "" {
		client, err := redisplatform.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			return err
		}
		app.redis = client
		escalatorStore = ratelimit.NewRedisStore(client)
		app.logger.Info("rate-limit state backed by redis", "addr", cfg.Redis.Addr)
	} else {
		memStore := ratelimit.NewMemoryStore()
		janitorCtx, cancel := context.WithCancel(context.Background())
		app.janitorCancel = cancel
		memStore.StartJanitor(janitorCtx, 10*time.Minute)
		escalatorStore = memStore
	}
	app.escalator = ratelimit.NewEscalator(escalatorStore, app.logger)

	app.limiters = make(map[ratelimit.Category]ratelimit.Limiter)
	for category, window := range ratelimit.DefaultWindows {
		app.limiters[category] = ratelimit.NewFixedWindow(window)
	}
	app.limiters[ratelimit.CategoryGeneral] = ratelimit.NewBucketLimiter(
		cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)

	return nil
}

// setupServices wires stores, services, and the notification dispatcher.
func (app *application) setupServices() error {
	cfg := app.config
	log := app.logger

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService

	userStore := postgres.NewUserStore(app.db, log, cfg.Auth.BcryptCost)
	taskStore := postgres.NewTaskStore(app.db, log)
	categoryStore := postgres.NewCategoryStore(app.db, log)
	teamStore := postgres.NewTeamStore(app.db, log)
	notificationStore := postgres.NewNotificationStore(app.db, log)

	app.dispatcher = worker.NewDispatcher(
		notificationStore,
		&worker.LogSender{Logger: log},
		app.breakers,
		app.retrier,
		worker.DefaultConfig(),
		log,
		worker.WithResultHook(func(result string) {
			app.metrics.RecordNotification(result == "sent")
		}),
	)

	retryOpts := retry.Options{
		MaxAttempts: cfg.Resilience.RetryMaxAttempts,
		Delay:       time.Duration(cfg.Resilience.RetryDelayMillis) * time.Millisecond,
		Backoff:     true,
		Condition:   apperror.IsTransient,
	}

	app.userService = service.NewUserService(userStore, auth.NewBcryptVerifier(), app.db, log)
	app.taskService = service.NewTaskService(taskStore, teamStore, app.retrier, log,
		service.WithNotifier(app.dispatcher),
		service.WithRetryOptions(retryOpts),
		service.WithFallbackTimeout(
			time.Duration(cfg.Resilience.FallbackTimeoutMillis)*time.Millisecond),
	)
	app.categoryService = service.NewCategoryService(categoryStore, log)
	app.teamService = service.NewTeamService(teamStore, app.dispatcher, app.db, log)
	app.notificationService = service.NewNotificationService(notificationStore, log)

	return nil
}

// cleanup releases resources in reverse construction order.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}
	if app.janitorCancel != nil {
		app.janitorCancel()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
