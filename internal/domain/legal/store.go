package legal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrpayroll/internal/domain/apperr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const configColumns = `
    year, minimum_wage, transport_allowance,
    employee_health_pct, employee_pension_pct, employer_health_pct, employer_pension_pct,
    family_compensation_pct, icbf_pct, sena_pct, risk_class1_pct, risk_class5_pct,
    severance_interest_pct, vacation_days_per_year, max_weekly_hours, ordinary_daily_hours,
    daytime_overtime_pct, nighttime_overtime_pct, night_ordinary_pct, holiday_pct,
    minimum_working_age, effective, COALESCE(notes, '')`

func scanConfiguration(row pgx.Row) (Configuration, error) {
	var c Configuration
	err := row.Scan(&c.Year, &c.MinimumWage, &c.TransportAllowance,
		&c.EmployeeHealthPct, &c.EmployeePensionPct, &c.EmployerHealthPct, &c.EmployerPensionPct,
		&c.FamilyCompensationPct, &c.ICBFPct, &c.SENAPct, &c.RiskClass1Pct, &c.RiskClass5Pct,
		&c.SeveranceInterestPct, &c.VacationDaysPerYear, &c.MaxWeeklyHours, &c.OrdinaryDailyHours,
		&c.DaytimeOvertimePct, &c.NighttimeOvertimePct, &c.NightOrdinaryPct, &c.HolidayPct,
		&c.MinimumWorkingAge, &c.Effective, &c.Notes)
	return c, err
}

func (s *Store) GetEffective(ctx context.Context) (Configuration, error) {
	cfg, err := scanConfiguration(s.DB.QueryRow(ctx, `SELECT`+configColumns+`
    FROM legal_configurations
    WHERE effective = true
    ORDER BY year DESC
    LIMIT 1
  `))
	if errors.Is(err, pgx.ErrNoRows) {
		return Configuration{}, ErrNoEffective
	}
	return cfg, err
}

func (s *Store) GetByYear(ctx context.Context, year int) (Configuration, error) {
	cfg, err := scanConfiguration(s.DB.QueryRow(ctx, `SELECT`+configColumns+`
    FROM legal_configurations
    WHERE year = $1
  `, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return Configuration{}, apperr.ErrNotFound
	}
	return cfg, err
}

func (s *Store) List(ctx context.Context) ([]Configuration, error) {
	rows, err := s.DB.Query(ctx, `SELECT`+configColumns+`
    FROM legal_configurations
    ORDER BY year DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Configuration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// Publish stores a new year's parameters. A year that already exists is
// rejected. When cfg.Effective is set, every other year is deactivated in the
// same transaction.
func (s *Store) Publish(ctx context.Context, cfg Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if cfg.Effective {
		if _, err := tx.Exec(ctx, `UPDATE legal_configurations SET effective = false WHERE effective = true`); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
    INSERT INTO legal_configurations (
      year, minimum_wage, transport_allowance,
      employee_health_pct, employee_pension_pct, employer_health_pct, employer_pension_pct,
      family_compensation_pct, icbf_pct, sena_pct, risk_class1_pct, risk_class5_pct,
      severance_interest_pct, vacation_days_per_year, max_weekly_hours, ordinary_daily_hours,
      daytime_overtime_pct, nighttime_overtime_pct, night_ordinary_pct, holiday_pct,
      minimum_working_age, effective, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
    ON CONFLICT (year) DO NOTHING
  `, cfg.Year, cfg.MinimumWage, cfg.TransportAllowance,
		cfg.EmployeeHealthPct, cfg.EmployeePensionPct, cfg.EmployerHealthPct, cfg.EmployerPensionPct,
		cfg.FamilyCompensationPct, cfg.ICBFPct, cfg.SENAPct, cfg.RiskClass1Pct, cfg.RiskClass5Pct,
		cfg.SeveranceInterestPct, cfg.VacationDaysPerYear, cfg.MaxWeeklyHours, cfg.OrdinaryDailyHours,
		cfg.DaytimeOvertimePct, cfg.NighttimeOvertimePct, cfg.NightOrdinaryPct, cfg.HolidayPct,
		cfg.MinimumWorkingAge, cfg.Effective, nullIfEmpty(cfg.Notes))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.KindInvalidState, "legal configuration for %d is already published", cfg.Year)
	}
	return tx.Commit(ctx)
}

// Activate makes an already published year the effective one.
func (s *Store) Activate(ctx context.Context, year int) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `UPDATE legal_configurations SET effective = false WHERE effective = true`); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE legal_configurations SET effective = true WHERE year = $1`, year)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activate legal year %d: %w", year, apperr.ErrNotFound)
	}
	return tx.Commit(ctx)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
