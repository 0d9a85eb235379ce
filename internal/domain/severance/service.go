package severance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/platform/metrics"
)

// defaultInterestDays applies to a stored accrual that has no day count.
const defaultInterestDays = 360

type Deps struct {
	Employees  core.EmployeeProvider
	Contracts  core.ContractProvider
	Legal      legal.Provider
	Benefits   BenefitStore
	Statements StatementStore
	Metrics    *metrics.Collector
	Now        func() time.Time
}

type Calculator struct {
	employees  core.EmployeeProvider
	contracts  core.ContractProvider
	legal      legal.Provider
	benefits   BenefitStore
	statements StatementStore
	metrics    *metrics.Collector
	now        func() time.Time
	tracer     trace.Tracer
}

func NewCalculator(d Deps) *Calculator {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Calculator{
		employees:  d.Employees,
		contracts:  d.Contracts,
		legal:      d.Legal,
		benefits:   d.Benefits,
		statements: d.Statements,
		metrics:    d.Metrics,
		now:        now,
		tracer:     otel.Tracer("hrpayroll/severance"),
	}
}

func (c *Calculator) employee(ctx context.Context, employeeID string) (core.Employee, error) {
	emp, err := c.employees.GetByID(ctx, employeeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return core.Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return core.Employee{}, fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	return emp, nil
}

func (c *Calculator) config(ctx context.Context) (legal.Configuration, error) {
	cfg, err := c.legal.GetEffective(ctx)
	if err != nil {
		return legal.Configuration{}, legal.Failure(err)
	}
	return cfg, nil
}

// BenefitsSalary returns the employee's salary basis for accrual and service
// bonus, allowance included when it applies.
func (c *Calculator) BenefitsSalary(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	emp, err := c.employee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return benefitsSalary(emp, cfg)
}

func benefitsSalary(emp core.Employee, cfg legal.Configuration) (decimal.Decimal, error) {
	if !emp.BaseSalary.IsPositive() {
		return decimal.Zero, ErrNoBaseSalary
	}
	return BenefitsSalary(emp.BaseSalary, cfg), nil
}

// ComputeAccrual is the severance-fund accrual between start and end.
func (c *Calculator) ComputeAccrual(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error) {
	emp, err := c.employee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return accrual(emp, cfg, start, end)
}

func accrual(emp core.Employee, cfg legal.Configuration, start, end time.Time) (decimal.Decimal, error) {
	days, err := Days(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	salary, err := benefitsSalary(emp, cfg)
	if err != nil {
		return decimal.Zero, err
	}
	value := Accrual(salary, days)
	slog.Info("severance accrual computed", "employeeId", emp.ID, "days", days, "salary", salary.StringFixed(2), "value", value.StringFixed(2))
	return value, nil
}

// ComputeServiceBonus uses the accrual formula over a bonus window.
func (c *Calculator) ComputeServiceBonus(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error) {
	return c.ComputeAccrual(ctx, employeeID, start, end)
}

// ComputeAccrualInterest is the interest owed on the year's accrual. A stored
// accrual record is used when present; otherwise the accrual is recomputed
// over the year clipped to the employee's tenure.
func (c *Calculator) ComputeAccrualInterest(ctx context.Context, employeeID string, year int) (decimal.Decimal, error) {
	emp, err := c.employee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return c.interest(ctx, emp, cfg, year, emp.TerminationDate)
}

func (c *Calculator) interest(ctx context.Context, emp core.Employee, cfg legal.Configuration, year int, termination *time.Time) (decimal.Decimal, error) {
	stored, err := c.storedAccrual(ctx, emp.ID, year)
	if err != nil {
		return decimal.Zero, err
	}

	var base decimal.Decimal
	var days int
	if stored != nil {
		base = stored.Value
		days = defaultInterestDays
		if stored.Days != nil {
			days = *stored.Days
		}
	} else {
		start, end := YearWindow(year, emp.HireDate, termination)
		base, err = accrual(emp, cfg, start, end)
		if err != nil {
			return decimal.Zero, err
		}
		days = core.DaysBetween(start, end)
	}

	value := Interest(base, days, cfg.SeveranceInterestPct)
	slog.Info("severance interest computed", "employeeId", emp.ID, "year", year, "accrual", base.StringFixed(2),
		"days", days, "stored", stored != nil, "value", value.StringFixed(2))
	return value, nil
}

func (c *Calculator) storedAccrual(ctx context.Context, employeeID string, year int) (*BenefitRecord, error) {
	if c.benefits == nil {
		return nil, nil
	}
	rec, err := c.benefits.FindBenefit(ctx, employeeID, year, BenefitSeveranceFund)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load stored accrual for %s/%d: %w", employeeID, year, err)
	}
	return &rec, nil
}

// ComputeProportionalVacation is (base salary x days) / 720.
func (c *Calculator) ComputeProportionalVacation(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error) {
	emp, err := c.employee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	return vacation(emp, start, end)
}

func vacation(emp core.Employee, start, end time.Time) (decimal.Decimal, error) {
	days, err := Days(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	if !emp.BaseSalary.IsPositive() {
		return decimal.Zero, ErrNoBaseSalary
	}
	return Vacation(emp.BaseSalary, days), nil
}

// ComputeIndemnity uses the contract's recorded termination date, or today
// when the contract has none.
func (c *Calculator) ComputeIndemnity(ctx context.Context, employeeID, contractID string, reason Reason) (decimal.Decimal, error) {
	if !reason.OwesIndemnity() {
		slog.Info("indemnity not owed", "employeeId", employeeID, "reason", reason)
		return decimal.Zero, nil
	}
	contract, err := c.contracts.GetByID(ctx, contractID)
	if errors.Is(err, apperr.ErrNotFound) {
		return decimal.Zero, ErrContractNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load contract %s: %w", contractID, err)
	}
	if contract.EmployeeID != employeeID {
		return decimal.Zero, ErrContractNotFound
	}
	if _, err := c.employee(ctx, employeeID); err != nil {
		return decimal.Zero, err
	}

	terminatedOn := c.now()
	if contract.TerminatedOn != nil {
		terminatedOn = *contract.TerminatedOn
	}
	value := Indemnity(contract, reason, terminatedOn)
	slog.Info("indemnity computed", "employeeId", employeeID, "contractId", contractID, "contractType", contract.Type,
		"terminatedOn", terminatedOn.Format("2006-01-02"), "value", value.StringFixed(2))
	return value, nil
}

// ComputeFullSettlement builds the termination statement. A component that
// fails for a business reason is set to zero and listed in Failures; any
// other error aborts the statement. Interest is the termination year's
// ComputeAccrualInterest, windowed by the employee's recorded termination.
func (c *Calculator) ComputeFullSettlement(ctx context.Context, employeeID string, terminationDate time.Time, reason Reason) (Statement, error) {
	ctx, span := c.tracer.Start(ctx, "severance.ComputeFullSettlement", trace.WithAttributes(
		attribute.String("severance.employee_id", employeeID),
		attribute.String("severance.reason", string(reason)),
	))
	defer span.End()

	if _, err := ParseReason(string(reason)); err != nil {
		return Statement{}, ErrUnknownReason
	}

	emp, err := c.employee(ctx, employeeID)
	if err != nil {
		return Statement{}, err
	}
	contract, err := c.contracts.GetActive(ctx, employeeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Statement{}, ErrNoActiveContract
	}
	if err != nil {
		return Statement{}, fmt.Errorf("load active contract for %s: %w", employeeID, err)
	}

	hire := core.Date(emp.HireDate)
	termination := core.Date(terminationDate)
	st := Statement{
		ID:              uuid.NewString(),
		EmployeeID:      emp.ID,
		EmployeeName:    emp.FullName(),
		ContractID:      contract.ID,
		ContractType:    contract.Type,
		HireDate:        hire,
		TerminationDate: termination,
		Reason:          reason,
		BaseSalary:      emp.BaseSalary,
		DaysWorked:      max(core.DaysBetween(hire, termination), 0),
		Failures:        []ComponentFailure{},
		ComputedAt:      c.now().UTC(),
	}

	cfg, cfgErr := c.config(ctx)
	if cfgErr != nil && !apperr.IsFailure(cfgErr) {
		return Statement{}, cfgErr
	}
	if cfgErr == nil {
		if salary, err := benefitsSalary(emp, cfg); err == nil {
			st.BenefitsSalary = salary
		}
	}

	steps := []struct {
		name        string
		target      *decimal.Decimal
		needsConfig bool
		compute     func() (decimal.Decimal, error)
	}{
		{ComponentAccrual, &st.Accrual, true, func() (decimal.Decimal, error) {
			return accrual(emp, cfg, hire, termination)
		}},
		{ComponentAccrualInterest, &st.AccrualInterest, true, func() (decimal.Decimal, error) {
			return c.interest(ctx, emp, cfg, termination.Year(), emp.TerminationDate)
		}},
		{ComponentServiceBonus, &st.ServiceBonus, true, func() (decimal.Decimal, error) {
			return accrual(emp, cfg, SemesterStart(termination, hire), termination)
		}},
		{ComponentVacation, &st.Vacation, false, func() (decimal.Decimal, error) {
			return vacation(emp, hire, termination)
		}},
		{ComponentIndemnity, &st.Indemnity, false, func() (decimal.Decimal, error) {
			return Indemnity(contract, reason, termination), nil
		}},
	}
	for _, step := range steps {
		value, err := decimal.Zero, cfgErr
		if !step.needsConfig || cfgErr == nil {
			value, err = step.compute()
		}
		if err != nil {
			if !apperr.IsFailure(err) {
				return Statement{}, err
			}
			st.Failures = append(st.Failures, ComponentFailure{Component: step.name, Kind: string(apperr.KindOf(err)), Reason: err.Error()})
			value = decimal.Zero
		}
		*step.target = value
	}

	if c.statements != nil {
		if err := c.statements.SaveStatement(ctx, st); err != nil {
			return Statement{}, fmt.Errorf("save settlement for %s: %w", employeeID, err)
		}
	}

	outcome := "complete"
	if !st.Complete() {
		outcome = "partial"
		slog.Warn("settlement computed with failed components", "employeeId", emp.ID, "failures", len(st.Failures))
	}
	c.metrics.Settlement(outcome)
	span.SetAttributes(attribute.String("severance.total", st.Total().StringFixed(2)), attribute.Int("severance.failures", len(st.Failures)))
	slog.Info("settlement computed", "statementId", st.ID, "employeeId", emp.ID, "reason", reason,
		"daysWorked", st.DaysWorked, "total", st.Total().StringFixed(2))
	return st, nil
}

// CloseYearAccrual computes the year's severance-fund accrual over the
// employee's tenure in that year and stores it, so later interest uses the
// stored value and day count.
func (c *Calculator) CloseYearAccrual(ctx context.Context, employeeID string, year int) (BenefitRecord, error) {
	if c.benefits == nil {
		return BenefitRecord{}, errors.New("benefit store not configured")
	}
	emp, err := c.employee(ctx, employeeID)
	if err != nil {
		return BenefitRecord{}, err
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return BenefitRecord{}, err
	}

	start, end := YearWindow(year, emp.HireDate, emp.TerminationDate)
	days, err := Days(start, end)
	if err != nil {
		return BenefitRecord{}, err
	}
	salary, err := benefitsSalary(emp, cfg)
	if err != nil {
		return BenefitRecord{}, err
	}

	rec, err := c.benefits.SaveBenefit(ctx, BenefitRecord{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		Year:        year,
		Kind:        BenefitSeveranceFund,
		PeriodStart: start,
		PeriodEnd:   end,
		SalaryBasis: salary,
		Value:       Accrual(salary, days),
		Days:        &days,
		CreatedAt:   c.now().UTC(),
	})
	if err != nil {
		return BenefitRecord{}, fmt.Errorf("save accrual for %s/%d: %w", emp.ID, year, err)
	}
	slog.Info("year accrual closed", "employeeId", emp.ID, "year", year, "days", days, "value", rec.Value.StringFixed(2))
	return rec, nil
}

// GetStatement returns a stored settlement as it was computed.
func (c *Calculator) GetStatement(ctx context.Context, statementID string) (Statement, error) {
	if c.statements == nil {
		return Statement{}, errors.New("statement store not configured")
	}
	st, err := c.statements.GetStatement(ctx, statementID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Statement{}, ErrStatementMissing
	}
	if err != nil {
		return Statement{}, fmt.Errorf("load settlement %s: %w", statementID, err)
	}
	return st, nil
}
