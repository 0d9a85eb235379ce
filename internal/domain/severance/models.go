package severance

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/money"
)

// BenefitRecord is a stored benefit computation for one employee and year.
type BenefitRecord struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	Year        int             `json:"year"`
	Kind        BenefitKind     `json:"kind"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	SalaryBasis decimal.Decimal `json:"salaryBasis"`
	Value       decimal.Decimal `json:"value"`
	// Days is the day count the value was computed over, when recorded.
	Days      *int      `json:"days,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ComponentFailure struct {
	Component string `json:"component"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
}

// Statement is a termination settlement. It is computed once and not
// re-derived when inputs change later.
type Statement struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employeeId"`
	EmployeeName    string            `json:"employeeName"`
	ContractID      string            `json:"contractId"`
	ContractType    core.ContractType `json:"contractType"`
	HireDate        time.Time         `json:"hireDate"`
	TerminationDate time.Time         `json:"terminationDate"`
	Reason          Reason            `json:"reason"`
	BaseSalary      decimal.Decimal   `json:"baseSalary"`
	BenefitsSalary  decimal.Decimal   `json:"benefitsSalary"`
	DaysWorked      int               `json:"daysWorked"`

	Accrual         decimal.Decimal `json:"accrual"`
	AccrualInterest decimal.Decimal `json:"accrualInterest"`
	ServiceBonus    decimal.Decimal `json:"serviceBonus"`
	Vacation        decimal.Decimal `json:"vacation"`
	Indemnity       decimal.Decimal `json:"indemnity"`

	Failures   []ComponentFailure `json:"failures"`
	ComputedAt time.Time          `json:"computedAt"`
}

func (s Statement) Total() decimal.Decimal {
	return money.Sum(s.Accrual, s.AccrualInterest, s.ServiceBonus, s.Vacation, s.Indemnity)
}

// Complete reports whether every component was computed.
func (s Statement) Complete() bool {
	return len(s.Failures) == 0
}
