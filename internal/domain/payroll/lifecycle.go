package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/core"
)

const defaultBatchConcurrency = 4

// Manager owns the run state machine and batch orchestration.
type Manager struct {
	calc        *Calculator
	store       Store
	employees   core.EmployeeProvider
	concurrency int
	tracer      trace.Tracer
}

// NewManager wraps calc. concurrency bounds parallel computations in a batch;
// values below 1 use the default.
func NewManager(calc *Calculator, concurrency int) *Manager {
	if concurrency < 1 {
		concurrency = defaultBatchConcurrency
	}
	return &Manager{
		calc:        calc,
		store:       calc.store,
		employees:   calc.employees,
		concurrency: concurrency,
		tracer:      otel.Tracer("hrpayroll/payroll"),
	}
}

func (m *Manager) Calculator() *Calculator {
	return m.calc
}

func (m *Manager) Get(ctx context.Context, runID string) (Run, error) {
	run, err := m.store.GetByID(ctx, runID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("load payroll run %s: %w", runID, err)
	}
	return run, nil
}

// Approve moves a Calculated run to Approved and stamps the approver.
func (m *Manager) Approve(ctx context.Context, runID, approverID string) (Run, error) {
	approverID = strings.TrimSpace(approverID)
	if approverID == "" {
		return Run{}, ErrApproverRequired
	}
	return m.transition(ctx, runID, approverID, StatusApproved, ErrApproveState, AuditActionApproved, func(run *Run, now time.Time) {
		run.ApprovedBy = approverID
		run.ApprovedAt = &now
	})
}

// MarkPaid records that the host disbursed an approved run.
func (m *Manager) MarkPaid(ctx context.Context, runID string) (Run, error) {
	return m.transition(ctx, runID, "", StatusPaid, ErrPayState, AuditActionPaid, func(run *Run, now time.Time) {
		run.PaidAt = &now
	})
}

// MarkPosted records that the host posted a paid run to accounting.
func (m *Manager) MarkPosted(ctx context.Context, runID string) (Run, error) {
	return m.transition(ctx, runID, "", StatusPosted, ErrPostState, AuditActionPosted, func(run *Run, now time.Time) {
		run.PostedAt = &now
	})
}

func (m *Manager) transition(ctx context.Context, runID, actorID string, next Status, invalid error, action string, stamp func(*Run, time.Time)) (Run, error) {
	run, err := m.Get(ctx, runID)
	if err != nil {
		return Run{}, err
	}

	unlock, err := m.calc.locker.Lock(ctx, runKey(run.EmployeeID, run.Period))
	if err != nil {
		return Run{}, err
	}
	defer unlock()

	// Re-read under the lock; a recalculation may have raced us.
	run, err = m.Get(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if !run.Status.CanTransitionTo(next) {
		slog.Warn("payroll transition rejected", "runId", run.ID, "from", run.Status, "to", next)
		return Run{}, invalid
	}

	before := run
	now := m.calc.now().UTC()
	run.Status = next
	run.ModifiedAt = now
	stamp(&run, now)

	if err := m.store.Update(ctx, run); err != nil {
		return Run{}, fmt.Errorf("update payroll run %s: %w", run.ID, err)
	}
	m.calc.record(ctx, actorID, action, run.ID, before, run)
	slog.Info("payroll run transitioned", "runId", run.ID, "from", before.Status, "to", next)
	return run, nil
}

// Recalculate recomputes an existing run from current inputs.
func (m *Manager) Recalculate(ctx context.Context, runID string) (Run, error) {
	run, err := m.Get(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if run.Status.Locked() {
		return Run{}, ErrRunLocked
	}
	return m.calc.ComputeMonthlyPayroll(ctx, run.EmployeeID, run.Period)
}

// RunBatch computes every employee's run for period. One employee's failure
// is recorded and never stops the others. When ctx is cancelled no further
// employees are started and the partial result is returned with ctx's error.
func (m *Manager) RunBatch(ctx context.Context, period time.Time, employeeIDs []string) (BatchResult, error) {
	period = Period(period)
	ctx, span := m.tracer.Start(ctx, "payroll.RunBatch", trace.WithAttributes(
		attribute.String("payroll.period", period.Format("2006-01")),
		attribute.Int("payroll.employees", len(employeeIDs)),
	))
	defer span.End()
	start := time.Now()

	errs := make([]error, len(employeeIDs))
	started := make([]bool, len(employeeIDs))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, employeeID := range employeeIDs {
		if ctx.Err() != nil {
			break
		}
		i, employeeID := i, employeeID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			started[i] = true
			_, errs[i] = m.calc.ComputeMonthlyPayroll(ctx, employeeID, period)
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Period: period, Requested: len(employeeIDs), Failures: []BatchFailure{}}
	ctxErr := ctx.Err()
	for i, employeeID := range employeeIDs {
		err := errs[i]
		switch {
		case !started[i]:
			result.Skipped++
		case err == nil:
			result.SucceededCount++
		case ctxErr != nil && errors.Is(err, ctxErr):
			result.Skipped++
		default:
			kind := string(apperr.KindOf(err))
			if kind == "" {
				kind = "error"
			}
			result.Failures = append(result.Failures, BatchFailure{EmployeeID: employeeID, Kind: kind, Reason: err.Error()})
		}
	}

	m.calc.metrics.Batch(start, result.SucceededCount, len(result.Failures))
	span.SetAttributes(
		attribute.Int("payroll.succeeded", result.SucceededCount),
		attribute.Int("payroll.failed", len(result.Failures)),
	)

	logArgs := []any{"period", period.Format("2006-01"), "requested", result.Requested,
		"succeeded", result.SucceededCount, "failed", len(result.Failures), "skipped", result.Skipped}
	if ctxErr != nil {
		span.SetStatus(codes.Error, ctxErr.Error())
		slog.Warn("payroll batch cancelled", append(logArgs, "err", ctxErr)...)
		return result, ctxErr
	}
	if len(result.Failures) > 0 {
		slog.Warn("payroll batch finished with failures", logArgs...)
	} else {
		slog.Info("payroll batch finished", logArgs...)
	}
	return result, nil
}

// RunAllActive runs a batch over every active employee.
func (m *Manager) RunAllActive(ctx context.Context, period time.Time) (BatchResult, error) {
	employees, err := m.employees.ListActive(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list active employees: %w", err)
	}
	ids := make([]string, 0, len(employees))
	for _, emp := range employees {
		ids = append(ids, emp.ID)
	}
	return m.RunBatch(ctx, period, ids)
}

// ApprovePeriod approves every Calculated run of the month and returns how
// many were approved. Runs in any other state are left as they are.
func (m *Manager) ApprovePeriod(ctx context.Context, period time.Time, approverID string) (int, error) {
	if strings.TrimSpace(approverID) == "" {
		return 0, ErrApproverRequired
	}
	runs, err := m.ListByPeriod(ctx, period)
	if err != nil {
		return 0, err
	}
	approved := 0
	for _, run := range runs {
		if run.Status != StatusCalculated {
			continue
		}
		if _, err := m.Approve(ctx, run.ID, approverID); err != nil {
			if apperr.Is(err, apperr.KindInvalidState) {
				continue
			}
			return approved, err
		}
		approved++
	}
	slog.Info("payroll period approved", "period", Period(period).Format("2006-01"), "approved", approved, "approverId", approverID)
	return approved, nil
}

// Pending lists runs awaiting approval.
func (m *Manager) Pending(ctx context.Context) ([]Run, error) {
	runs, err := m.store.ListByStatus(ctx, StatusCalculated)
	if err != nil {
		return nil, fmt.Errorf("list pending payroll runs: %w", err)
	}
	return runs, nil
}

func (m *Manager) ListByPeriod(ctx context.Context, period time.Time) ([]Run, error) {
	runs, err := m.store.ListByPeriod(ctx, Period(period))
	if err != nil {
		return nil, fmt.Errorf("list payroll runs: %w", err)
	}
	return runs, nil
}
