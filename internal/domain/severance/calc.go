package severance

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/money"
)

var (
	commercialYear  = decimal.NewFromInt(360)
	vacationDivisor = decimal.NewFromInt(720)
	monthDays       = decimal.NewFromInt(30)
)

// Days is the calendar-day difference end - start. A negative span is an
// invalid input.
func Days(start, end time.Time) (int, error) {
	days := core.DaysBetween(start, end)
	if days < 0 {
		return 0, ErrDateOrder
	}
	return days, nil
}

// BenefitsSalary is the salary basis for accrual and service bonus. It adds
// the transport allowance when the salary qualifies for it.
func BenefitsSalary(baseSalary decimal.Decimal, cfg legal.Configuration) decimal.Decimal {
	if cfg.EligibleForAllowance(baseSalary) {
		return baseSalary.Add(cfg.TransportAllowance)
	}
	return baseSalary
}

// Accrual is (salary x days) / 360. The service bonus uses the same formula.
func Accrual(benefitsSalary decimal.Decimal, days int) decimal.Decimal {
	return money.Round(benefitsSalary.Mul(decimal.NewFromInt(int64(days))).Div(commercialYear))
}

// Interest is (accrual x days x rate) / 360.
func Interest(accrual decimal.Decimal, days int, interestPct decimal.Decimal) decimal.Decimal {
	return money.Round(accrual.Mul(decimal.NewFromInt(int64(days))).Mul(money.Rate(interestPct)).Div(commercialYear))
}

// Vacation is (base salary x days) / 720. The allowance never enters it.
func Vacation(baseSalary decimal.Decimal, days int) decimal.Decimal {
	return money.Round(baseSalary.Mul(decimal.NewFromInt(int64(days))).Div(vacationDivisor))
}

// DailySalary is the monthly salary over 30 days, unrounded.
func DailySalary(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Div(monthDays)
}

// YearWindow is Jan 1 to Dec 31 of year clipped to the employee's tenure.
func YearWindow(year int, hire time.Time, termination *time.Time) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	start = core.Later(start, core.Date(hire))
	if termination != nil {
		end = core.Earlier(end, core.Date(*termination))
	}
	return start, end
}

// SemesterStart is Jan 1 or Jul 1 of the termination's half-year, moved
// forward to the hire date when the employee joined mid-semester.
func SemesterStart(termination, hire time.Time) time.Time {
	month := time.January
	if termination.Month() > time.June {
		month = time.July
	}
	start := time.Date(termination.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	return core.Later(start, core.Date(hire))
}

// indemnityFormula computes the indemnity for one contract variant, given the
// date the relationship ended.
type indemnityFormula func(c core.Contract, terminatedOn time.Time) decimal.Decimal

var indemnityFormulas = map[core.ContractType]indemnityFormula{
	core.ContractIndefinite:     indefiniteIndemnity,
	core.ContractFixedTerm:      remainingTermIndemnity,
	core.ContractProjectBased:   remainingTermIndemnity,
	core.ContractApprenticeship: noIndemnity,
}

const (
	firstYearDays      = 30
	additionalYearDays = 20
	tenureYear         = 365
)

// Under one year of tenure: 30 days. Otherwise 30 days for the first year
// plus 20 for each further full year.
func indefiniteIndemnity(c core.Contract, terminatedOn time.Time) decimal.Decimal {
	tenure := core.DaysBetween(c.StartDate, terminatedOn)
	days := firstYearDays
	if tenure >= tenureYear {
		days += (tenure/tenureYear - 1) * additionalYearDays
	}
	return money.Round(DailySalary(c.Salary).Mul(decimal.NewFromInt(int64(days))))
}

// Daily salary for each contracted day left, zero once past the end date.
func remainingTermIndemnity(c core.Contract, terminatedOn time.Time) decimal.Decimal {
	if c.EndDate == nil || !core.Date(*c.EndDate).After(core.Date(terminatedOn)) {
		return decimal.Zero
	}
	remaining := core.DaysBetween(terminatedOn, *c.EndDate)
	return money.Round(DailySalary(c.Salary).Mul(decimal.NewFromInt(int64(remaining))))
}

func noIndemnity(core.Contract, time.Time) decimal.Decimal {
	return decimal.Zero
}

// Indemnity applies the contract variant's formula when reason owes one.
func Indemnity(c core.Contract, reason Reason, terminatedOn time.Time) decimal.Decimal {
	if !reason.OwesIndemnity() {
		return decimal.Zero
	}
	formula, ok := indemnityFormulas[c.Type]
	if !ok {
		return decimal.Zero
	}
	value := formula(c, terminatedOn)
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
