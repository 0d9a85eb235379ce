package compliance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/money"
)

const (
	maxDailyOvertime  = 2
	maxWeeklyOvertime = 12

	minNationalIDDigits = 6
	maxNationalIDDigits = 10

	maxFixedTermDays = 3 * 365
)

var contributionTolerance = decimal.NewFromInt(1)

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func hours(d decimal.Decimal) string {
	return d.StringFixed(1)
}

func MinimumWage(salary decimal.Decimal, cfg legal.Configuration) Result {
	if salary.LessThan(cfg.MinimumWage) {
		return fail(fmt.Sprintf("salary %s is below the %d minimum wage of %s", amount(salary), cfg.Year, amount(cfg.MinimumWage)))
	}
	return pass("salary meets the minimum wage")
}

// Age is the number of full years from birth to asOf.
func Age(birth, asOf time.Time) int {
	birth, asOf = core.Date(birth), core.Date(asOf)
	age := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() || (asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		age--
	}
	return age
}

func MinimumAge(birth, asOf time.Time, cfg legal.Configuration) Result {
	age := Age(birth, asOf)
	if age < cfg.MinimumWorkingAge {
		return fail(fmt.Sprintf("employee is %d years old, the minimum working age is %d (born %s)",
			age, cfg.MinimumWorkingAge, birth.Format(time.DateOnly)))
	}
	return pass("employee meets the minimum working age")
}

type week struct {
	first time.Time
	total decimal.Decimal
}

// weeks groups records by ISO week in chronological order. Each bucket carries
// its earliest record date.
func weeks(records []core.DailyTimeRecord, value func(core.DailyTimeRecord) decimal.Decimal) []week {
	sorted := append([]core.DailyTimeRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	type key struct{ year, week int }
	index := map[key]int{}
	var out []week
	for _, r := range sorted {
		y, w := core.Date(r.Date).ISOWeek()
		i, ok := index[key{y, w}]
		if !ok {
			i = len(out)
			index[key{y, w}] = i
			out = append(out, week{first: core.Date(r.Date)})
		}
		out[i].total = out[i].total.Add(value(r))
	}
	return out
}

// WeeklyHours rejects the first ISO week whose ordinary plus overtime hours
// exceed the configured maximum.
func WeeklyHours(records []core.DailyTimeRecord, cfg legal.Configuration) Result {
	if len(records) == 0 {
		return pass("no time records to check")
	}
	limit := decimal.NewFromInt(int64(cfg.MaxWeeklyHours))
	for _, w := range weeks(records, core.DailyTimeRecord.WorkedHours) {
		if w.total.GreaterThan(limit) {
			return fail(fmt.Sprintf("week of %s exceeds the %d hour weekly limit: %s hours worked",
				w.first.Format(time.DateOnly), cfg.MaxWeeklyHours, hours(w.total)))
		}
	}
	return pass("weekly hours within the legal limit")
}

// OvertimeCaps allows 2 overtime hours per day and 12 per ISO week.
func OvertimeCaps(records []core.DailyTimeRecord) Result {
	if len(records) == 0 {
		return pass("no time records to check")
	}
	daily := decimal.NewFromInt(maxDailyOvertime)
	for _, r := range records {
		if r.Overtime().GreaterThan(daily) {
			return fail(fmt.Sprintf("%s exceeds the %d hour daily overtime limit: %s overtime hours",
				core.Date(r.Date).Format(time.DateOnly), maxDailyOvertime, hours(r.Overtime())))
		}
	}
	weekly := decimal.NewFromInt(maxWeeklyOvertime)
	for _, w := range weeks(records, core.DailyTimeRecord.Overtime) {
		if w.total.GreaterThan(weekly) {
			return fail(fmt.Sprintf("week of %s exceeds the %d hour weekly overtime limit: %s overtime hours",
				w.first.Format(time.DateOnly), maxWeeklyOvertime, hours(w.total)))
		}
	}
	return pass("overtime within the legal limits")
}

var idSeparators = strings.NewReplacer(".", "", " ", "", "-", "")

// NationalID accepts 6 to 10 digits once dots, spaces and dashes are removed.
func NationalID(id string) Result {
	digits := idSeparators.Replace(strings.TrimSpace(id))
	if digits == "" {
		return fail("national id is required")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fail("national id must contain only digits")
		}
	}
	if strings.Trim(digits, "0") == "" {
		return fail("national id must be a positive number")
	}
	if len(digits) < minNationalIDDigits || len(digits) > maxNationalIDDigits {
		return fail(fmt.Sprintf("national id must have between %d and %d digits, got %d",
			minNationalIDDigits, maxNationalIDDigits, len(digits)))
	}
	return pass("national id format is valid")
}

// ContractConsistency collects every violation of the contract invariants
// into one message.
func ContractConsistency(c core.Contract, asOf time.Time, cfg legal.Configuration) Result {
	var problems []string
	start := core.Date(c.StartDate)

	if start.After(core.Date(asOf).AddDate(1, 0, 0)) {
		problems = append(problems, "start date is more than one year in the future")
	}
	if c.EndDate != nil && core.Date(*c.EndDate).Before(start) {
		problems = append(problems, "end date is before the start date")
	}
	if wage := MinimumWage(c.Salary, cfg); !wage.OK {
		problems = append(problems, wage.Message)
	}

	switch c.Type {
	case core.ContractFixedTerm:
		if c.EndDate == nil {
			problems = append(problems, "fixed-term contracts require an end date")
		} else if core.DaysBetween(start, *c.EndDate) > maxFixedTermDays {
			problems = append(problems, "fixed-term contracts cannot exceed 3 years")
		}
	case core.ContractIndefinite:
		if c.EndDate != nil {
			problems = append(problems, "indefinite contracts must not have an end date")
		}
	case core.ContractProjectBased, core.ContractApprenticeship:
	default:
		problems = append(problems, fmt.Sprintf("unknown contract type %q", c.Type))
	}

	if len(problems) > 0 {
		return fail(strings.Join(problems, "; "))
	}
	return pass("contract is consistent")
}

// ContributionReconciliation recomputes the employee health and pension
// deductions for base and accepts claims within one currency unit.
func ContributionReconciliation(base, health, pension decimal.Decimal, cfg legal.Configuration) Result {
	var problems []string
	check := func(name string, claimed, pct decimal.Decimal) {
		expected := money.Percent(base, pct)
		if claimed.Sub(expected).Abs().GreaterThan(contributionTolerance) {
			problems = append(problems, fmt.Sprintf("%s contribution is %s, expected %s (%s%%)",
				name, amount(claimed), amount(expected), pct.String()))
		}
	}
	check("health", health, cfg.EmployeeHealthPct)
	check("pension", pension, cfg.EmployeePensionPct)

	if len(problems) > 0 {
		return fail(strings.Join(problems, "; "))
	}
	return pass("social security contributions reconcile")
}

func TransportAllowance(salary decimal.Decimal, cfg legal.Configuration) Eligibility {
	threshold := cfg.AllowanceThreshold()
	if cfg.EligibleForAllowance(salary) {
		return Eligibility{
			Eligible:  true,
			Amount:    cfg.TransportAllowance,
			Threshold: threshold,
			Message: fmt.Sprintf("salary %s is below two minimum wages (%s); allowance of %s applies",
				amount(salary), amount(threshold), amount(cfg.TransportAllowance)),
		}
	}
	return Eligibility{
		Amount:    decimal.Zero,
		Threshold: threshold,
		Message: fmt.Sprintf("salary %s is at or above two minimum wages (%s); no allowance",
			amount(salary), amount(threshold)),
	}
}
