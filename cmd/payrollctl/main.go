// Command payrollctl runs payroll batches, settlements and legal table loads
// against the configured database without going through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"hrpayroll/internal/domain/audit"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/domain/severance"
	"hrpayroll/internal/platform/config"
	"hrpayroll/internal/platform/db"
	"hrpayroll/internal/platform/lock"
	"hrpayroll/internal/platform/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Operate the payroll engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)})))
		},
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(migrateCmd(), batchCmd(), settleCmd(), legalCmd())
	return cmd
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// env is the database-backed wiring every command shares.
type env struct {
	cfg   config.Config
	pool  *pgxpool.Pool
	redis *redis.Client
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	client, err := redis.New(ctx, redis.Config{URL: cfg.RedisURL})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &env{cfg: cfg, pool: pool, redis: client}, nil
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	e.pool.Close()
}

func (e *env) legalProvider() legal.Provider {
	if e.cfg.LegalFile != "" {
		return legal.NewFileProvider(e.cfg.LegalFile)
	}
	return legal.NewStore(e.pool)
}

func (e *env) manager() *payroll.Manager {
	coreStore := core.NewStore(e.pool)
	deps := payroll.Deps{
		Employees:   coreStore,
		Contracts:   coreStore.Contracts(),
		TimeRecords: coreStore,
		Legal:       e.legalProvider(),
		Store:       payroll.NewStore(e.pool),
		Audit:       audit.New(e.pool),
	}
	if e.redis != nil {
		deps.Locker = lock.NewRedis(e.redis.Client, e.cfg.LockTTL)
	}
	return payroll.NewManager(payroll.NewCalculator(deps), e.cfg.BatchConcurrency)
}

func (e *env) settlements() *severance.Calculator {
	coreStore := core.NewStore(e.pool)
	store := severance.NewStore(e.pool)
	return severance.NewCalculator(severance.Deps{
		Employees:  coreStore,
		Contracts:  coreStore.Contracts(),
		Legal:      e.legalProvider(),
		Benefits:   store,
		Statements: store,
	})
}
