package payroll

import "hrpayroll/internal/domain/apperr"

var (
	ErrEmployeeNotFound = apperr.New(apperr.KindNotFound, "employee not found")
	ErrEmployeeInactive = apperr.New(apperr.KindInactive, "employee is not active")
	ErrRunNotFound      = apperr.New(apperr.KindNotFound, "payroll run not found")
	ErrRunLocked        = apperr.New(apperr.KindInvalidState, "payroll run is paid or posted and cannot be recalculated")
	ErrApproveState     = apperr.New(apperr.KindInvalidState, "payroll run must be calculated before approval")
	ErrPayState         = apperr.New(apperr.KindInvalidState, "payroll run must be approved before payment")
	ErrPostState        = apperr.New(apperr.KindInvalidState, "payroll run must be paid before posting")
	ErrApproverRequired = apperr.New(apperr.KindInvalidInput, "approver is required")
)
