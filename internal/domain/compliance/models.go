// Package compliance holds the labor-law rule checks. A rule violation is a
// Result with OK false, never an error; errors are reserved for a missing
// legal configuration or a failing collaborator.
package compliance

import "github.com/shopspring/decimal"

type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func pass(message string) Result {
	return Result{OK: true, Message: message}
}

func fail(message string) Result {
	return Result{OK: false, Message: message}
}

// Eligibility is the informational transport-allowance answer.
type Eligibility struct {
	Eligible  bool            `json:"eligible"`
	Amount    decimal.Decimal `json:"amount"`
	Threshold decimal.Decimal `json:"threshold"`
	Message   string          `json:"message"`
}

// Check names, used for metrics labels and the HTTP surface.
const (
	CheckMinimumWage   = "minimum_wage"
	CheckMinimumAge    = "minimum_age"
	CheckWeeklyHours   = "weekly_hours"
	CheckOvertimeCaps  = "overtime_caps"
	CheckNationalID    = "national_id"
	CheckContract      = "contract"
	CheckContributions = "contributions"
	CheckAllowance     = "transport_allowance"
)

// Report is the outcome of every pass/fail check run over one employee.
type Report struct {
	EmployeeID string            `json:"employeeId"`
	Checks     map[string]Result `json:"checks"`
	Allowance  Eligibility       `json:"allowance"`
}

// OK reports whether every check in the report passed.
func (r Report) OK() bool {
	for _, result := range r.Checks {
		if !result.OK {
			return false
		}
	}
	return true
}
