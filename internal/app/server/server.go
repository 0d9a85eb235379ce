package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"hrpayroll/internal/domain/audit"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/domain/severance"
	"hrpayroll/internal/platform/config"
	"hrpayroll/internal/platform/db"
	"hrpayroll/internal/platform/jobs"
	"hrpayroll/internal/platform/lock"
	"hrpayroll/internal/platform/metrics"
	"hrpayroll/internal/platform/redis"
	"hrpayroll/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Jobs     *jobs.Service
	Registry *prometheus.Registry
	Router   http.Handler
}

// New connects every collaborator and builds the router. The caller owns
// Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app.Redis, err = redis.New(ctx, redis.Config{URL: cfg.RedisURL})
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New(app.Registry)
	}

	app.Jobs = jobs.New(pool, cfg, collector)

	coreStore := core.NewStore(pool)
	legalStore := legal.NewStore(pool)
	severanceStore := severance.NewStore(pool)
	deps := Deps{
		Employees:   coreStore,
		Contracts:   coreStore.Contracts(),
		TimeRecords: coreStore,
		Legal:       legalStore,
		Registry:    legalStore,
		Runs:        payroll.NewStore(pool),
		Benefits:    severanceStore,
		Statements:  severanceStore,
		Audit:       audit.New(pool),
		Jobs:        app.Jobs,
		Idempotency: middleware.NewIdempotencyStore(pool),
		Metrics:     collector,
		Gatherer:    app.Registry,
		Ready:       app.ready,
	}
	if cfg.LegalFile != "" {
		deps.Legal = legal.NewFileProvider(cfg.LegalFile)
	}
	if app.Redis != nil {
		deps.Locker = lock.NewRedis(app.Redis.Client, cfg.LockTTL)
		deps.Limiter = middleware.NewRedisLimiter(app.Redis.Client, cfg.RateLimitWindow)
	}

	app.Router = NewRouter(cfg, deps)
	return app, nil
}

func (a *App) ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.DB.Ping(ctx); err != nil {
		return fmt.Errorf("db not ready: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Health(ctx); err != nil {
			return fmt.Errorf("redis not ready: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "err", err)
		}
	}()

	slog.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
