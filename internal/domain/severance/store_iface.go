package severance

import "context"

type BenefitStore interface {
	// FindBenefit returns apperr.ErrNotFound when nothing is stored.
	FindBenefit(ctx context.Context, employeeID string, year int, kind BenefitKind) (BenefitRecord, error)
	// SaveBenefit upserts by (employee, year, kind).
	SaveBenefit(ctx context.Context, rec BenefitRecord) (BenefitRecord, error)
}

type StatementStore interface {
	SaveStatement(ctx context.Context, st Statement) error
	GetStatement(ctx context.Context, statementID string) (Statement, error)
}
