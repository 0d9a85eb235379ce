package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/platform/config"
)

type legalSeeder interface {
	GetEffective(ctx context.Context) (legal.Configuration, error)
	GetByYear(ctx context.Context, year int) (legal.Configuration, error)
	Publish(ctx context.Context, cfg legal.Configuration) error
	Activate(ctx context.Context, year int) error
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return seedLegal(ctx, legal.NewStore(pool), cfg)
}

// seedLegal makes sure a legal year is in force. A configured LEGAL_FILE is
// published year by year; otherwise the seed year is created from defaults.
// An existing effective year is left alone.
func seedLegal(ctx context.Context, store legalSeeder, cfg config.Config) error {
	if cfg.LegalFile != "" {
		configs, err := legal.LoadFile(cfg.LegalFile)
		if err != nil {
			return err
		}
		return publishAll(ctx, store, configs)
	}

	if _, err := store.GetEffective(ctx); err == nil {
		return nil
	} else if !errors.Is(err, legal.ErrNoEffective) {
		return err
	}

	if _, err := store.GetByYear(ctx, cfg.SeedLegalYear); err == nil {
		slog.Info("activating seeded legal year", "year", cfg.SeedLegalYear)
		return store.Activate(ctx, cfg.SeedLegalYear)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	wage, err := decimal.NewFromString(cfg.SeedMinimumWage)
	if err != nil {
		return fmt.Errorf("SEED_MINIMUM_WAGE: %w", err)
	}
	allowance, err := decimal.NewFromString(cfg.SeedAllowance)
	if err != nil {
		return fmt.Errorf("SEED_TRANSPORT_ALLOWANCE: %w", err)
	}
	defaults := legal.Defaults(cfg.SeedLegalYear, wage, allowance)
	defaults.Effective = true
	defaults.Notes = "seeded default"
	if err := store.Publish(ctx, defaults); err != nil {
		return err
	}
	slog.Info("seeded legal year", "year", defaults.Year, "minimumWage", wage.String())
	return nil
}

func publishAll(ctx context.Context, store legalSeeder, configs []legal.Configuration) error {
	for _, c := range configs {
		err := store.Publish(ctx, c)
		if apperr.Is(err, apperr.KindInvalidState) {
			if c.Effective {
				if err := store.Activate(ctx, c.Year); err != nil {
					return err
				}
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("publish legal year %d: %w", c.Year, err)
		}
		slog.Info("published legal year", "year", c.Year, "effective", c.Effective)
	}
	return nil
}
