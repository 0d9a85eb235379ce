package payroll

import (
	"context"
	"time"
)

// Store persists runs. Lookups return apperr.ErrNotFound when no row exists.
type Store interface {
	GetByEmployeeAndPeriod(ctx context.Context, employeeID string, period time.Time) (Run, error)
	GetByID(ctx context.Context, runID string) (Run, error)
	// Save inserts the run or replaces the amounts of the existing run for
	// (EmployeeID, Period). It returns the stored row.
	Save(ctx context.Context, run Run) (Run, error)
	Update(ctx context.Context, run Run) error
	ListByPeriod(ctx context.Context, period time.Time) ([]Run, error)
	ListByStatus(ctx context.Context, status Status) ([]Run, error)
}

// Locker serializes writes for one (employee, period) key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}
