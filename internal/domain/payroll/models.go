package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/money"
)

type Earnings struct {
	BaseSalary           decimal.Decimal `json:"baseSalary"`
	TransportAllowance   decimal.Decimal `json:"transportAllowance"`
	DaytimeOvertime      decimal.Decimal `json:"daytimeOvertime"`
	NighttimeOvertime    decimal.Decimal `json:"nighttimeOvertime"`
	NightOrdinaryPremium decimal.Decimal `json:"nightOrdinaryPremium"`
	HolidayPremium       decimal.Decimal `json:"holidayPremium"`
}

func (e Earnings) Total() decimal.Decimal {
	return money.Sum(e.BaseSalary, e.TransportAllowance, e.DaytimeOvertime, e.NighttimeOvertime,
		e.NightOrdinaryPremium, e.HolidayPremium)
}

type Deductions struct {
	Health  decimal.Decimal `json:"health"`
	Pension decimal.Decimal `json:"pension"`
	// Withholding is not computed; it is always zero.
	Withholding decimal.Decimal `json:"withholding"`
}

func (d Deductions) Total() decimal.Decimal {
	return money.Sum(d.Health, d.Pension, d.Withholding)
}

type EmployerContributions struct {
	Health             decimal.Decimal `json:"health"`
	Pension            decimal.Decimal `json:"pension"`
	RiskInsurance      decimal.Decimal `json:"riskInsurance"`
	FamilyCompensation decimal.Decimal `json:"familyCompensation"`
	ICBF               decimal.Decimal `json:"icbf"`
	SENA               decimal.Decimal `json:"sena"`
}

func (c EmployerContributions) Total() decimal.Decimal {
	return money.Sum(c.Health, c.Pension, c.RiskInsurance, c.FamilyCompensation, c.ICBF, c.SENA)
}

// Breakdown is the computed part of a run.
type Breakdown struct {
	Earnings   Earnings              `json:"earnings"`
	Deductions Deductions            `json:"deductions"`
	Employer   EmployerContributions `json:"employer"`
}

// Run is one employee's payroll for one calendar month. (EmployeeID, Period)
// is unique.
type Run struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Period     time.Time `json:"period"`
	Breakdown
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ModifiedAt time.Time  `json:"modifiedAt"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
	PostedAt   *time.Time `json:"postedAt,omitempty"`
}

func (r Run) Gross() decimal.Decimal {
	return r.Earnings.Total()
}

func (r Run) TotalDeductions() decimal.Decimal {
	return r.Deductions.Total()
}

func (r Run) NetPay() decimal.Decimal {
	return r.Gross().Sub(r.TotalDeductions())
}

func (r Run) EmployerTotal() decimal.Decimal {
	return r.Employer.Total()
}

// TotalEmployerCost is gross pay plus employer contributions.
func (r Run) TotalEmployerCost() decimal.Decimal {
	return r.Gross().Add(r.EmployerTotal())
}

type Totals struct {
	Gross             decimal.Decimal `json:"gross"`
	Deductions        decimal.Decimal `json:"deductions"`
	NetPay            decimal.Decimal `json:"netPay"`
	EmployerTotal     decimal.Decimal `json:"employerTotal"`
	TotalEmployerCost decimal.Decimal `json:"totalEmployerCost"`
}

func (r Run) Totals() Totals {
	return Totals{
		Gross:             r.Gross(),
		Deductions:        r.TotalDeductions(),
		NetPay:            r.NetPay(),
		EmployerTotal:     r.EmployerTotal(),
		TotalEmployerCost: r.TotalEmployerCost(),
	}
}

type BatchFailure struct {
	EmployeeID string `json:"employeeId"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
}

type BatchResult struct {
	Period         time.Time      `json:"period"`
	Requested      int            `json:"requested"`
	SucceededCount int            `json:"succeededCount"`
	Failures       []BatchFailure `json:"failures"`
	// Skipped counts employees not processed because the batch was cancelled.
	Skipped int `json:"skipped"`
}

// Period normalizes any date to the first day of its month in UTC.
func Period(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParsePeriod accepts YYYY-MM or YYYY-MM-DD.
func ParsePeriod(value string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01", value); err == nil {
		return Period(parsed), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return Period(parsed), nil
}
