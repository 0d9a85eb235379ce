package severance

import "hrpayroll/internal/domain/apperr"

var (
	ErrEmployeeNotFound = apperr.New(apperr.KindNotFound, "employee not found")
	ErrContractNotFound = apperr.New(apperr.KindNotFound, "contract not found")
	ErrNoActiveContract = apperr.New(apperr.KindNotFound, "employee has no active contract")
	ErrDateOrder        = apperr.New(apperr.KindInvalidInput, "end date must be after start date")
	ErrNoBaseSalary     = apperr.New(apperr.KindInvalidInput, "employee has no base salary configured")
	ErrUnknownReason    = apperr.New(apperr.KindInvalidInput, "unknown termination reason")
	ErrStatementMissing = apperr.New(apperr.KindNotFound, "settlement statement not found")
)
