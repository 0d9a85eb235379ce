package severance

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/core"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const benefitColumns = `
    id, employee_id, year, kind, period_start, period_end, salary_basis, value, days, created_at`

func scanBenefit(row pgx.Row) (BenefitRecord, error) {
	var rec BenefitRecord
	var kind string
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Year, &kind, &rec.PeriodStart, &rec.PeriodEnd,
		&rec.SalaryBasis, &rec.Value, &rec.Days, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return BenefitRecord{}, apperr.ErrNotFound
	}
	rec.Kind = BenefitKind(kind)
	return rec, err
}

func (s *Store) FindBenefit(ctx context.Context, employeeID string, year int, kind BenefitKind) (BenefitRecord, error) {
	return scanBenefit(s.DB.QueryRow(ctx, `SELECT`+benefitColumns+`
    FROM benefit_records
    WHERE employee_id = $1 AND year = $2 AND kind = $3
  `, employeeID, year, string(kind)))
}

func (s *Store) SaveBenefit(ctx context.Context, rec BenefitRecord) (BenefitRecord, error) {
	return scanBenefit(s.DB.QueryRow(ctx, `
    INSERT INTO benefit_records (id, employee_id, year, kind, period_start, period_end, salary_basis, value, days, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (employee_id, year, kind)
    DO UPDATE SET period_start = EXCLUDED.period_start, period_end = EXCLUDED.period_end,
                  salary_basis = EXCLUDED.salary_basis, value = EXCLUDED.value, days = EXCLUDED.days
    RETURNING`+benefitColumns,
		rec.ID, rec.EmployeeID, rec.Year, string(rec.Kind), rec.PeriodStart, rec.PeriodEnd,
		rec.SalaryBasis, rec.Value, rec.Days, rec.CreatedAt))
}

func (s *Store) SaveStatement(ctx context.Context, st Statement) error {
	failures, err := json.Marshal(st.Failures)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO severance_statements (
      id, employee_id, contract_id, contract_type, hire_date, termination_date, reason,
      base_salary, benefits_salary, days_worked,
      accrual, accrual_interest, service_bonus, vacation, indemnity, total,
      failures_json, computed_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
  `, st.ID, st.EmployeeID, st.ContractID, string(st.ContractType), st.HireDate, st.TerminationDate, string(st.Reason),
		st.BaseSalary, st.BenefitsSalary, st.DaysWorked,
		st.Accrual, st.AccrualInterest, st.ServiceBonus, st.Vacation, st.Indemnity, st.Total(),
		failures, st.ComputedAt)
	return err
}

func (s *Store) GetStatement(ctx context.Context, statementID string) (Statement, error) {
	var st Statement
	var contractType, reason string
	var failures []byte
	err := s.DB.QueryRow(ctx, `
    SELECT s.id, s.employee_id, e.first_name || ' ' || e.last_name, s.contract_id, s.contract_type,
           s.hire_date, s.termination_date, s.reason, s.base_salary, s.benefits_salary, s.days_worked,
           s.accrual, s.accrual_interest, s.service_bonus, s.vacation, s.indemnity,
           s.failures_json, s.computed_at
    FROM severance_statements s
    JOIN employees e ON e.id = s.employee_id
    WHERE s.id = $1
  `, statementID).Scan(&st.ID, &st.EmployeeID, &st.EmployeeName, &st.ContractID, &contractType,
		&st.HireDate, &st.TerminationDate, &reason, &st.BaseSalary, &st.BenefitsSalary, &st.DaysWorked,
		&st.Accrual, &st.AccrualInterest, &st.ServiceBonus, &st.Vacation, &st.Indemnity,
		&failures, &st.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Statement{}, apperr.ErrNotFound
	}
	if err != nil {
		return Statement{}, err
	}
	st.ContractType = core.ContractType(contractType)
	st.Reason = Reason(reason)
	st.Failures = []ComponentFailure{}
	if len(failures) > 0 {
		if err := json.Unmarshal(failures, &st.Failures); err != nil {
			return Statement{}, err
		}
	}
	return st, nil
}
