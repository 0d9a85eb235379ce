package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/platform/lock"
	"hrpayroll/internal/platform/metrics"
)

type Deps struct {
	Employees   core.EmployeeProvider
	Contracts   core.ContractProvider
	TimeRecords core.TimeRecordProvider
	Legal       legal.Provider
	Store       Store
	Locker      Locker
	Audit       AuditRecorder
	Metrics     *metrics.Collector
	Now         func() time.Time
}

// Calculator computes and stores one employee's monthly run.
type Calculator struct {
	employees   core.EmployeeProvider
	contracts   core.ContractProvider
	timeRecords core.TimeRecordProvider
	legal       legal.Provider
	store       Store
	locker      Locker
	audit       AuditRecorder
	metrics     *metrics.Collector
	now         func() time.Time
}

func NewCalculator(d Deps) *Calculator {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	locker := d.Locker
	if locker == nil {
		locker = lock.NewMemory()
	}
	return &Calculator{
		employees:   d.Employees,
		contracts:   d.Contracts,
		timeRecords: d.TimeRecords,
		legal:       d.Legal,
		store:       d.Store,
		locker:      locker,
		audit:       d.Audit,
		metrics:     d.Metrics,
		now:         now,
	}
}

// ComputeMonthlyPayroll calculates the run for the month containing period and
// upserts it by (employee, month). Paid and posted runs are never touched.
func (c *Calculator) ComputeMonthlyPayroll(ctx context.Context, employeeID string, period time.Time) (Run, error) {
	period = Period(period)
	run, err := c.compute(ctx, employeeID, period)
	if err != nil {
		outcome := string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		c.metrics.PayrollRun(outcome)
		return Run{}, err
	}
	c.metrics.PayrollRun("calculated")
	return run, nil
}

func (c *Calculator) compute(ctx context.Context, employeeID string, period time.Time) (Run, error) {
	emp, cfg, base, err := c.inputs(ctx, employeeID)
	if err != nil {
		return Run{}, err
	}

	records, err := c.timeRecords.GetRange(ctx, emp.ID, period, core.MonthEnd(period))
	if err != nil {
		return Run{}, fmt.Errorf("load time records for %s: %w", emp.ID, err)
	}
	breakdown := Compute(base, emp.RiskClass, records, cfg)

	unlock, err := c.locker.Lock(ctx, runKey(emp.ID, period))
	if err != nil {
		return Run{}, err
	}
	defer unlock()

	now := c.now().UTC()
	existing, err := c.store.GetByEmployeeAndPeriod(ctx, emp.ID, period)
	var run Run
	var before any
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		run = Run{
			ID:         uuid.NewString(),
			EmployeeID: emp.ID,
			Period:     period,
			Status:     StatusDraft,
			CreatedAt:  now,
		}
	case err != nil:
		return Run{}, fmt.Errorf("load payroll run for %s: %w", emp.ID, err)
	default:
		if !existing.Status.CanTransitionTo(StatusCalculated) {
			slog.Warn("payroll recalculation rejected", "runId", existing.ID, "employeeId", emp.ID,
				"period", period.Format("2006-01"), "status", existing.Status)
			return Run{}, ErrRunLocked
		}
		run = existing
		before = existing
	}

	run.Breakdown = breakdown
	run.Status = StatusCalculated
	run.ModifiedAt = now
	run.ApprovedBy = ""
	run.ApprovedAt = nil

	saved, err := c.store.Save(ctx, run)
	if err != nil {
		return Run{}, err
	}

	c.record(ctx, "", AuditActionCalculated, saved.ID, before, saved)
	slog.Info("payroll calculated", "runId", saved.ID, "employeeId", emp.ID, "period", period.Format("2006-01"),
		"gross", saved.Gross().StringFixed(2), "net", saved.NetPay().StringFixed(2))
	return saved, nil
}

// ComputeOvertimeValue returns the rounded total of all hour premiums for the
// month. It is zero when there are no records.
func (c *Calculator) ComputeOvertimeValue(ctx context.Context, employeeID string, period time.Time) (decimal.Decimal, error) {
	period = Period(period)
	emp, cfg, base, err := c.inputs(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	records, err := c.timeRecords.GetRange(ctx, emp.ID, period, core.MonthEnd(period))
	if err != nil {
		return decimal.Zero, fmt.Errorf("load time records for %s: %w", emp.ID, err)
	}
	return OvertimeValue(base, records, cfg), nil
}

func (c *Calculator) inputs(ctx context.Context, employeeID string) (core.Employee, legal.Configuration, decimal.Decimal, error) {
	emp, err := c.employees.GetByID(ctx, employeeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return core.Employee{}, legal.Configuration{}, decimal.Zero, ErrEmployeeNotFound
	}
	if err != nil {
		return core.Employee{}, legal.Configuration{}, decimal.Zero, fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	if !emp.Active() {
		return core.Employee{}, legal.Configuration{}, decimal.Zero, ErrEmployeeInactive
	}

	cfg, err := c.legal.GetEffective(ctx)
	if err != nil {
		return core.Employee{}, legal.Configuration{}, decimal.Zero, legal.Failure(err)
	}

	base, err := c.baseSalary(ctx, emp)
	if err != nil {
		return core.Employee{}, legal.Configuration{}, decimal.Zero, err
	}
	return emp, cfg, base, nil
}

// baseSalary is the active contract's salary, or the employee's own base
// salary when there is no active contract.
func (c *Calculator) baseSalary(ctx context.Context, emp core.Employee) (decimal.Decimal, error) {
	contract, err := c.contracts.GetActive(ctx, emp.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return emp.BaseSalary, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load active contract for %s: %w", emp.ID, err)
	}
	return contract.Salary, nil
}

func (c *Calculator) record(ctx context.Context, actorID, action, runID string, before, after any) {
	if c.audit == nil {
		return
	}
	if err := c.audit.Record(ctx, actorID, action, AuditEntityRun, runID, before, after); err != nil {
		slog.Warn("payroll audit record failed", "action", action, "runId", runID, "err", err)
	}
}

func runKey(employeeID string, period time.Time) string {
	return "payroll:" + employeeID + ":" + period.Format("2006-01")
}
