package core

import (
	"context"
	"errors"
	"time"

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

const employeeColumns = `
    id, COALESCE(national_id, ''), first_name, last_name, birth_date, status,
    base_salary, risk_class, hire_date, termination_date`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.NationalID, &emp.FirstName, &emp.LastName, &emp.BirthDate, &emp.Status,
		&emp.BaseSalary, &emp.RiskClass, &emp.HireDate, &emp.TerminationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, apperr.ErrNotFound
	}
	return emp, err
}

func (s *Store) GetByID(ctx context.Context, employeeID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `SELECT`+employeeColumns+`
    FROM employees
    WHERE id = $1
  `, employeeID))
}

func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `SELECT`+employeeColumns+`
    FROM employees
    WHERE status = $1
    ORDER BY last_name, first_name
  `, EmployeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (national_id, first_name, last_name, birth_date, status, base_salary, risk_class, hire_date, termination_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, nullIfEmpty(emp.NationalID), emp.FirstName, emp.LastName, emp.BirthDate, emp.Status, emp.BaseSalary,
		emp.RiskClass, emp.HireDate, emp.TerminationDate).Scan(&id)
	return id, err
}

const contractColumns = `
    id, employee_id, contract_type, salary, start_date, end_date, terminated_on, active`

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	var contractType string
	err := row.Scan(&c.ID, &c.EmployeeID, &contractType, &c.Salary, &c.StartDate, &c.EndDate, &c.TerminatedOn, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, apperr.ErrNotFound
	}
	if err != nil {
		return Contract{}, err
	}
	c.Type, err = ParseContractType(contractType)
	return c, err
}

func (s *Store) GetActive(ctx context.Context, employeeID string) (Contract, error) {
	return scanContract(s.DB.QueryRow(ctx, `SELECT`+contractColumns+`
    FROM contracts
    WHERE employee_id = $1 AND active = true
    ORDER BY start_date DESC
    LIMIT 1
  `, employeeID))
}

func (s *Store) GetContract(ctx context.Context, contractID string) (Contract, error) {
	return scanContract(s.DB.QueryRow(ctx, `SELECT`+contractColumns+`
    FROM contracts
    WHERE id = $1
  `, contractID))
}

func (s *Store) CreateContract(ctx context.Context, c Contract) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO contracts (employee_id, contract_type, salary, start_date, end_date, terminated_on, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, c.EmployeeID, string(c.Type), c.Salary, c.StartDate, c.EndDate, c.TerminatedOn, c.Active).Scan(&id)
	return id, err
}

func (s *Store) GetRange(ctx context.Context, employeeID string, start, end time.Time) ([]DailyTimeRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, work_date, ordinary_hours, daytime_overtime, nighttime_overtime, night_ordinary, holiday_hours
    FROM daily_time_records
    WHERE employee_id = $1 AND work_date >= $2 AND work_date <= $3
    ORDER BY work_date
  `, employeeID, Date(start), Date(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyTimeRecord
	for rows.Next() {
		var r DailyTimeRecord
		if err := rows.Scan(&r.EmployeeID, &r.Date, &r.OrdinaryHours, &r.DaytimeOvertime, &r.NighttimeOvertime, &r.NightOrdinary, &r.HolidayHours); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertTimeRecord(ctx context.Context, r DailyTimeRecord) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO daily_time_records (employee_id, work_date, ordinary_hours, daytime_overtime, nighttime_overtime, night_ordinary, holiday_hours)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id, work_date)
    DO UPDATE SET ordinary_hours = EXCLUDED.ordinary_hours, daytime_overtime = EXCLUDED.daytime_overtime,
                  nighttime_overtime = EXCLUDED.nighttime_overtime, night_ordinary = EXCLUDED.night_ordinary,
                  holiday_hours = EXCLUDED.holiday_hours
  `, r.EmployeeID, Date(r.Date), r.OrdinaryHours, r.DaytimeOvertime, r.NighttimeOvertime, r.NightOrdinary, r.HolidayHours)
	return err
}

// Contracts adapts the store to ContractProvider.
func (s *Store) Contracts() ContractProvider {
	return contractStore{s}
}

type contractStore struct {
	s *Store
}

func (c contractStore) GetActive(ctx context.Context, employeeID string) (Contract, error) {
	return c.s.GetActive(ctx, employeeID)
}

func (c contractStore) GetByID(ctx context.Context, contractID string) (Contract, error) {
	return c.s.GetContract(ctx, contractID)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
