package compliance

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/money"
)

func testConfig() legal.Configuration {
	cfg := legal.Defaults(2025, money.Must("1423500"), money.Must("200000"))
	cfg.Effective = true
	return cfg
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func worked(d time.Time, ordinary, overtime string) core.DailyTimeRecord {
	return core.DailyTimeRecord{EmployeeID: "emp-1", Date: d, OrdinaryHours: money.Must(ordinary), DaytimeOvertime: money.Must(overtime)}
}

// fullWeek is Monday 2025-03-03 to Saturday with 8 ordinary hours a day.
func fullWeek() []core.DailyTimeRecord {
	var out []core.DailyTimeRecord
	for i := 0; i < 6; i++ {
		out = append(out, worked(date(2025, time.March, 3+i), "8", "0"))
	}
	return out
}

func TestMinimumWage(t *testing.T) {
	cfg := testConfig()
	assert.True(t, MinimumWage(money.Must("1423500"), cfg).OK)
	result := MinimumWage(money.Must("1423499.99"), cfg)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "1423500.00")
}

func TestAgeIsAnniversaryAdjusted(t *testing.T) {
	birth := date(2007, time.October, 15)
	assert.Equal(t, 17, Age(birth, date(2025, time.October, 14)))
	assert.Equal(t, 18, Age(birth, date(2025, time.October, 15)))
	assert.Equal(t, 17, Age(date(2008, time.February, 29), date(2026, time.February, 28)))
	assert.Equal(t, 18, Age(date(2008, time.February, 29), date(2026, time.March, 1)))
}

func TestMinimumAge(t *testing.T) {
	cfg := testConfig()
	birth := date(2007, time.October, 15)

	result := MinimumAge(birth, date(2025, time.October, 14), cfg)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "17 years old")

	assert.True(t, MinimumAge(birth, date(2025, time.October, 15), cfg).OK)
}

func TestWeeklyHoursBoundary(t *testing.T) {
	cfg := testConfig()
	records := fullWeek()
	assert.True(t, WeeklyHours(records, cfg).OK)

	records[5].DaytimeOvertime = money.Must("0.5")
	result := WeeklyHours(records, cfg)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "week of 2025-03-03")
	assert.Contains(t, result.Message, "48.5")
}

func TestWeeklyHoursNamesFirstOffendingWeekByEarliestDate(t *testing.T) {
	cfg := testConfig()
	records := []core.DailyTimeRecord{
		worked(date(2025, time.March, 20), "10", "0"),
		worked(date(2025, time.March, 11), "10", "0"),
		worked(date(2025, time.March, 12), "10", "0"),
		worked(date(2025, time.March, 13), "10", "0"),
		worked(date(2025, time.March, 14), "10", "0"),
		worked(date(2025, time.March, 15), "10", "0"),
		worked(date(2025, time.March, 17), "12", "2"),
		worked(date(2025, time.March, 18), "12", "2"),
		worked(date(2025, time.March, 19), "12", "2"),
		worked(date(2025, time.March, 21), "12", "2"),
	}
	result := WeeklyHours(records, cfg)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "week of 2025-03-11")
}

func TestWeeklyHoursUsesISOWeeksAcrossYearEnd(t *testing.T) {
	cfg := testConfig()
	records := []core.DailyTimeRecord{
		worked(date(2024, time.December, 30), "8", "0"),
		worked(date(2024, time.December, 31), "8", "0"),
		worked(date(2025, time.January, 1), "8", "0"),
		worked(date(2025, time.January, 2), "8", "0"),
		worked(date(2025, time.January, 3), "8", "0"),
		worked(date(2025, time.January, 4), "9", "0"),
	}
	result := WeeklyHours(records, cfg)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "week of 2024-12-30")

	assert.True(t, WeeklyHours(nil, cfg).OK)
}

func TestOvertimeCaps(t *testing.T) {
	var sixDays []core.DailyTimeRecord
	for i := 0; i < 6; i++ {
		sixDays = append(sixDays, worked(date(2025, time.March, 3+i), "8", "2"))
	}
	assert.True(t, OvertimeCaps(sixDays).OK)

	sevenDays := append(sixDays, worked(date(2025, time.March, 9), "0", "1"))
	result := OvertimeCaps(sevenDays)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "weekly overtime")
	assert.Contains(t, result.Message, "13.0")

	long := []core.DailyTimeRecord{worked(date(2025, time.March, 4), "8", "1.5")}
	long[0].NighttimeOvertime = money.Must("1")
	result = OvertimeCaps(long)
	assert.False(t, result.OK)
	assert.True(t, strings.HasPrefix(result.Message, "2025-03-04 exceeds the 2 hour daily"))
}

func TestNationalID(t *testing.T) {
	cases := []struct {
		id string
		ok bool
	}{
		{"1.023.456.789", true},
		{"52 123 456", true},
		{"123456", true},
		{"12345", false},
		{"12345678901", false},
		{"12a456", false},
		{"000000", false},
		{"   ", false},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.ok, NationalID(tc.id).OK)
		})
	}
}

func TestContractConsistency(t *testing.T) {
	cfg := testConfig()
	asOf := date(2025, time.June, 1)
	end := func(d time.Time) *time.Time { return &d }
	salary := money.Must("2000000")

	valid := []core.Contract{
		{Type: core.ContractIndefinite, Salary: salary, StartDate: date(2024, time.January, 1)},
		{Type: core.ContractFixedTerm, Salary: salary, StartDate: date(2025, time.January, 1), EndDate: end(date(2027, time.December, 31))},
		{Type: core.ContractProjectBased, Salary: salary, StartDate: date(2025, time.January, 1)},
		{Type: core.ContractApprenticeship, Salary: salary, StartDate: date(2025, time.January, 1)},
	}
	for _, c := range valid {
		assert.True(t, ContractConsistency(c, asOf, cfg).OK, c.Type)
	}

	result := ContractConsistency(core.Contract{Type: core.ContractFixedTerm, Salary: salary, StartDate: date(2025, time.January, 1)}, asOf, cfg)
	assert.Equal(t, "fixed-term contracts require an end date", result.Message)

	result = ContractConsistency(core.Contract{Type: core.ContractFixedTerm, Salary: salary,
		StartDate: date(2025, time.January, 1), EndDate: end(date(2028, time.January, 5))}, asOf, cfg)
	assert.Equal(t, "fixed-term contracts cannot exceed 3 years", result.Message)

	result = ContractConsistency(core.Contract{Type: core.ContractIndefinite, Salary: money.Must("1000000"),
		StartDate: date(2026, time.July, 1), EndDate: end(date(2026, time.January, 1))}, asOf, cfg)
	assert.False(t, result.OK)
	for _, want := range []string{"more than one year in the future", "end date is before the start date", "below the 2025 minimum wage", "must not have an end date"} {
		assert.Contains(t, result.Message, want)
	}

	assert.False(t, ContractConsistency(core.Contract{Type: "seasonal", Salary: salary, StartDate: asOf}, asOf, cfg).OK)
}

func TestContributionReconciliation(t *testing.T) {
	cfg := testConfig()
	base := money.Must("1423500")

	assert.True(t, ContributionReconciliation(base, money.Must("56940"), money.Must("56940"), cfg).OK)
	assert.True(t, ContributionReconciliation(base, money.Must("56941"), money.Must("56939"), cfg).OK)

	result := ContributionReconciliation(base, money.Must("56941.01"), money.Must("50000"), cfg)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "health contribution is 56941.01, expected 56940.00")
	assert.Contains(t, result.Message, "pension contribution is 50000.00")
}

func TestTransportAllowanceEligibility(t *testing.T) {
	cfg := testConfig()

	eligible := TransportAllowance(money.Must("1423500"), cfg)
	assert.True(t, eligible.Eligible)
	assert.Equal(t, "200000.00", eligible.Amount.StringFixed(2))
	assert.Equal(t, "2847000.00", eligible.Threshold.StringFixed(2))

	notEligible := TransportAllowance(money.Must("2847000"), cfg)
	assert.False(t, notEligible.Eligible)
	assert.True(t, notEligible.Amount.IsZero())
	assert.Contains(t, notEligible.Message, "at or above")
}
