package core

import (
	"context"
	"time"
)

// Read ports the payroll engine consumes. Implementations return
// apperr.ErrNotFound (optionally wrapped) when the row does not exist.

type EmployeeProvider interface {
	GetByID(ctx context.Context, employeeID string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}

type ContractProvider interface {
	GetActive(ctx context.Context, employeeID string) (Contract, error)
	GetByID(ctx context.Context, contractID string) (Contract, error)
}

type TimeRecordProvider interface {
	// GetRange returns records with start <= date <= end ordered by date.
	GetRange(ctx context.Context, employeeID string, start, end time.Time) ([]DailyTimeRecord, error)
}
