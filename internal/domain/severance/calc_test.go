package severance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func TestIndefiniteIndemnityTenureSteps(t *testing.T) {
	start := date(2020, time.January, 1)
	contract := core.Contract{Type: core.ContractIndefinite, Salary: money.Must("3000000"), StartDate: start}

	cases := []struct {
		name   string
		tenure int
		want   string
	}{
		{"under one year", 364, "3000000.00"},
		{"exactly one year", 365, "3000000.00"},
		{"two years", 730, "5000000.00"},
		{"three years and change", 1100, "7000000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Indemnity(contract, ReasonDismissalWithoutJustCause, start.AddDate(0, 0, tc.tenure))
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestRemainingTermIndemnity(t *testing.T) {
	fixed := core.Contract{
		Type:      core.ContractFixedTerm,
		Salary:    money.Must("3000000"),
		StartDate: date(2025, time.January, 1),
		EndDate:   ptr(date(2025, time.December, 31)),
	}

	got := Indemnity(fixed, ReasonDismissalWithoutJustCause, date(2025, time.October, 1))
	assert.Equal(t, "9100000.00", got.StringFixed(2))

	project := fixed
	project.Type = core.ContractProjectBased
	got = Indemnity(project, ReasonResignationEmployerFault, date(2025, time.December, 30))
	assert.Equal(t, "100000.00", got.StringFixed(2))

	assert.True(t, Indemnity(fixed, ReasonDismissalWithoutJustCause, date(2025, time.December, 31)).IsZero())
	assert.True(t, Indemnity(fixed, ReasonDismissalWithoutJustCause, date(2026, time.February, 1)).IsZero())

	open := fixed
	open.EndDate = nil
	assert.True(t, Indemnity(open, ReasonDismissalWithoutJustCause, date(2025, time.October, 1)).IsZero())
}

func TestIndemnityNotOwed(t *testing.T) {
	apprentice := core.Contract{Type: core.ContractApprenticeship, Salary: money.Must("1423500"), StartDate: date(2020, time.January, 1)}
	assert.True(t, Indemnity(apprentice, ReasonDismissalWithoutJustCause, date(2025, time.June, 1)).IsZero())

	indefinite := apprentice
	indefinite.Type = core.ContractIndefinite
	for _, reason := range Reasons {
		if reason.OwesIndemnity() {
			continue
		}
		assert.True(t, Indemnity(indefinite, reason, date(2025, time.June, 1)).IsZero(), reason)
	}
	assert.True(t, Indemnity(indefinite, ReasonDismissalWithoutJustCause, date(2025, time.June, 1)).IsPositive())
}

func TestIndemnityIsNeverNegative(t *testing.T) {
	terminated := date(2025, time.June, 30)
	for _, contractType := range core.ContractTypes {
		for _, reason := range Reasons {
			// A salary correction stored as a negative amount must not yield a negative indemnity.
			c := core.Contract{Type: contractType, Salary: money.Must("-1423500"), StartDate: date(2019, time.March, 1),
				EndDate: ptr(date(2025, time.December, 31))}
			got := Indemnity(c, reason, terminated)
			assert.False(t, got.IsNegative(), "%s/%s = %s", contractType, reason, got)

			c.Salary = money.Must("1423500")
			c.StartDate = terminated
			got = Indemnity(c, reason, terminated)
			assert.False(t, got.IsNegative(), "%s/%s on start date = %s", contractType, reason, got)
		}
	}
}

func TestAccrualFullYearEqualsSalary(t *testing.T) {
	salary := money.Must("1623500")
	assert.True(t, Accrual(salary, 360).Equal(salary))
	assert.Equal(t, "811750.00", Accrual(salary, 180).StringFixed(2))
	assert.True(t, Accrual(salary, 0).IsZero())
}

func TestInterestAndVacation(t *testing.T) {
	assert.Equal(t, "170820.00", Interest(money.Must("1423500"), 360, money.Must("12")).StringFixed(2))
	assert.Equal(t, "60000.00", Interest(money.Must("1000000"), 180, money.Must("12")).StringFixed(2))
	assert.Equal(t, "900000.00", Vacation(money.Must("1800000"), 360).StringFixed(2))
	assert.Equal(t, "1231722.92", Vacation(money.Must("1423500"), 623).StringFixed(2))
}

func TestDaysRejectsReversedRange(t *testing.T) {
	days, err := Days(date(2025, time.January, 1), date(2025, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, 30, days)

	_, err = Days(date(2025, time.February, 1), date(2025, time.January, 31))
	assert.ErrorIs(t, err, ErrDateOrder)
}

func TestBenefitsSalary(t *testing.T) {
	cfg := legal.Defaults(2025, money.Must("1423500"), money.Must("200000"))
	assert.Equal(t, "1623500.00", BenefitsSalary(money.Must("1423500"), cfg).StringFixed(2))
	assert.Equal(t, "2847000.00", BenefitsSalary(money.Must("2847000"), cfg).StringFixed(2))
}

func TestSemesterStart(t *testing.T) {
	hire := date(2020, time.May, 4)
	assert.Equal(t, date(2025, time.July, 1), SemesterStart(date(2025, time.September, 15), hire))
	assert.Equal(t, date(2025, time.January, 1), SemesterStart(date(2025, time.March, 10), hire))
	assert.Equal(t, date(2025, time.January, 1), SemesterStart(date(2025, time.June, 30), hire))
	assert.Equal(t, date(2025, time.August, 1), SemesterStart(date(2025, time.September, 15), date(2025, time.August, 1)))
}

func TestYearWindow(t *testing.T) {
	start, end := YearWindow(2025, date(2025, time.March, 1), ptr(date(2025, time.October, 10)))
	assert.Equal(t, date(2025, time.March, 1), start)
	assert.Equal(t, date(2025, time.October, 10), end)

	start, end = YearWindow(2025, date(2019, time.March, 1), nil)
	assert.Equal(t, date(2025, time.January, 1), start)
	assert.Equal(t, date(2025, time.December, 31), end)
}

func TestParseReason(t *testing.T) {
	reason, err := ParseReason("dismissal_without_just_cause")
	require.NoError(t, err)
	assert.True(t, reason.OwesIndemnity())

	_, err = ParseReason("fired")
	assert.Error(t, err)
}
