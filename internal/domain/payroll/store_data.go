package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrpayroll/internal/domain/apperr"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

const runColumns = `
    id, employee_id, period,
    base_salary, transport_allowance, daytime_overtime, nighttime_overtime, night_ordinary_premium, holiday_premium,
    health_deduction, pension_deduction, withholding,
    employer_health, employer_pension, risk_insurance, family_compensation, icbf, sena,
    status, created_at, modified_at, COALESCE(approved_by, ''), approved_at, paid_at, posted_at`

func scanRun(row pgx.Row) (Run, error) {
	var r Run
	var status string
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Period,
		&r.Earnings.BaseSalary, &r.Earnings.TransportAllowance, &r.Earnings.DaytimeOvertime,
		&r.Earnings.NighttimeOvertime, &r.Earnings.NightOrdinaryPremium, &r.Earnings.HolidayPremium,
		&r.Deductions.Health, &r.Deductions.Pension, &r.Deductions.Withholding,
		&r.Employer.Health, &r.Employer.Pension, &r.Employer.RiskInsurance,
		&r.Employer.FamilyCompensation, &r.Employer.ICBF, &r.Employer.SENA,
		&status, &r.CreatedAt, &r.ModifiedAt, &r.ApprovedBy, &r.ApprovedAt, &r.PaidAt, &r.PostedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, apperr.ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	r.Status = Status(status)
	r.Period = Period(r.Period)
	return r, nil
}

func (s *PGStore) GetByEmployeeAndPeriod(ctx context.Context, employeeID string, period time.Time) (Run, error) {
	return scanRun(s.DB.QueryRow(ctx, `SELECT`+runColumns+`
    FROM payroll_runs
    WHERE employee_id = $1 AND period = $2
  `, employeeID, Period(period)))
}

func (s *PGStore) GetByID(ctx context.Context, runID string) (Run, error) {
	return scanRun(s.DB.QueryRow(ctx, `SELECT`+runColumns+`
    FROM payroll_runs
    WHERE id = $1
  `, runID))
}

// Save upserts by (employee_id, period). The conflict branch refuses to touch
// a paid or posted row so the guard holds even across instances.
func (s *PGStore) Save(ctx context.Context, r Run) (Run, error) {
	saved, err := scanRun(s.DB.QueryRow(ctx, `
    INSERT INTO payroll_runs (
      id, employee_id, period,
      base_salary, transport_allowance, daytime_overtime, nighttime_overtime, night_ordinary_premium, holiday_premium,
      health_deduction, pension_deduction, withholding,
      employer_health, employer_pension, risk_insurance, family_compensation, icbf, sena,
      status, created_at, modified_at, approved_by, approved_at, paid_at, posted_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
    ON CONFLICT (employee_id, period)
    DO UPDATE SET base_salary = EXCLUDED.base_salary, transport_allowance = EXCLUDED.transport_allowance,
                  daytime_overtime = EXCLUDED.daytime_overtime, nighttime_overtime = EXCLUDED.nighttime_overtime,
                  night_ordinary_premium = EXCLUDED.night_ordinary_premium, holiday_premium = EXCLUDED.holiday_premium,
                  health_deduction = EXCLUDED.health_deduction, pension_deduction = EXCLUDED.pension_deduction,
                  withholding = EXCLUDED.withholding, employer_health = EXCLUDED.employer_health,
                  employer_pension = EXCLUDED.employer_pension, risk_insurance = EXCLUDED.risk_insurance,
                  family_compensation = EXCLUDED.family_compensation, icbf = EXCLUDED.icbf, sena = EXCLUDED.sena,
                  status = EXCLUDED.status, modified_at = EXCLUDED.modified_at,
                  approved_by = EXCLUDED.approved_by, approved_at = EXCLUDED.approved_at
    WHERE payroll_runs.status NOT IN ('paid', 'posted')
    RETURNING`+runColumns,
		r.ID, r.EmployeeID, Period(r.Period),
		r.Earnings.BaseSalary, r.Earnings.TransportAllowance, r.Earnings.DaytimeOvertime,
		r.Earnings.NighttimeOvertime, r.Earnings.NightOrdinaryPremium, r.Earnings.HolidayPremium,
		r.Deductions.Health, r.Deductions.Pension, r.Deductions.Withholding,
		r.Employer.Health, r.Employer.Pension, r.Employer.RiskInsurance,
		r.Employer.FamilyCompensation, r.Employer.ICBF, r.Employer.SENA,
		string(r.Status), r.CreatedAt, r.ModifiedAt, nullIfEmpty(r.ApprovedBy), r.ApprovedAt, r.PaidAt, r.PostedAt))
	if errors.Is(err, apperr.ErrNotFound) {
		return Run{}, ErrRunLocked
	}
	return saved, err
}

// Update writes the lifecycle columns of an existing run.
func (s *PGStore) Update(ctx context.Context, r Run) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs
    SET status = $1, modified_at = $2, approved_by = $3, approved_at = $4, paid_at = $5, posted_at = $6
    WHERE id = $7
  `, string(r.Status), r.ModifiedAt, nullIfEmpty(r.ApprovedBy), r.ApprovedAt, r.PaidAt, r.PostedAt, r.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *PGStore) ListByPeriod(ctx context.Context, period time.Time) ([]Run, error) {
	return s.list(ctx, `SELECT`+runColumns+`
    FROM payroll_runs
    WHERE period = $1
    ORDER BY employee_id
  `, Period(period))
}

func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]Run, error) {
	return s.list(ctx, `SELECT`+runColumns+`
    FROM payroll_runs
    WHERE status = $1
    ORDER BY period, employee_id
  `, string(status))
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
