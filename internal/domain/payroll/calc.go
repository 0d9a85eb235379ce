package payroll

import (
	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/money"
)

// 30 days of 8 hours.
var hoursPerMonth = decimal.NewFromInt(240)

// HourlyRate is the premium basis. It is not rounded.
func HourlyRate(baseSalary decimal.Decimal) decimal.Decimal {
	return baseSalary.Div(hoursPerMonth)
}

type HourTotals struct {
	DaytimeOvertime   decimal.Decimal
	NighttimeOvertime decimal.Decimal
	NightOrdinary     decimal.Decimal
	Holiday           decimal.Decimal
}

func SumHours(records []core.DailyTimeRecord) HourTotals {
	var totals HourTotals
	for _, r := range records {
		totals.DaytimeOvertime = totals.DaytimeOvertime.Add(r.DaytimeOvertime)
		totals.NighttimeOvertime = totals.NighttimeOvertime.Add(r.NighttimeOvertime)
		totals.NightOrdinary = totals.NightOrdinary.Add(r.NightOrdinary)
		totals.Holiday = totals.Holiday.Add(r.HolidayHours)
	}
	return totals
}

var one = decimal.NewFromInt(1)

// surcharged pays the hour plus its premium.
func surcharged(hours, rate, pct decimal.Decimal) decimal.Decimal {
	return money.Round(hours.Mul(rate).Mul(one.Add(money.Rate(pct))))
}

// premiumOnly pays only the premium; the hour itself is ordinary time.
func premiumOnly(hours, rate, pct decimal.Decimal) decimal.Decimal {
	return money.Round(hours.Mul(rate).Mul(money.Rate(pct)))
}

// Premiums fills the four hour-based earning lines from the month's records.
func Premiums(baseSalary decimal.Decimal, records []core.DailyTimeRecord, cfg legal.Configuration) Earnings {
	rate := HourlyRate(baseSalary)
	hours := SumHours(records)
	return Earnings{
		DaytimeOvertime:      surcharged(hours.DaytimeOvertime, rate, cfg.DaytimeOvertimePct),
		NighttimeOvertime:    surcharged(hours.NighttimeOvertime, rate, cfg.NighttimeOvertimePct),
		NightOrdinaryPremium: premiumOnly(hours.NightOrdinary, rate, cfg.NightOrdinaryPct),
		HolidayPremium:       surcharged(hours.Holiday, rate, cfg.HolidayPct),
	}
}

// OvertimeValue is the single total of all hour premiums, accumulated per
// record and rounded once.
func OvertimeValue(baseSalary decimal.Decimal, records []core.DailyTimeRecord, cfg legal.Configuration) decimal.Decimal {
	rate := HourlyRate(baseSalary)
	total := decimal.Zero
	for _, r := range records {
		total = total.
			Add(r.DaytimeOvertime.Mul(rate).Mul(one.Add(money.Rate(cfg.DaytimeOvertimePct)))).
			Add(r.NighttimeOvertime.Mul(rate).Mul(one.Add(money.Rate(cfg.NighttimeOvertimePct)))).
			Add(r.NightOrdinary.Mul(rate).Mul(money.Rate(cfg.NightOrdinaryPct))).
			Add(r.HolidayHours.Mul(rate).Mul(one.Add(money.Rate(cfg.HolidayPct))))
	}
	return money.Round(total)
}

// TransportAllowance is the flat configured amount when the salary is below
// two minimum wages, zero otherwise.
func TransportAllowance(baseSalary decimal.Decimal, cfg legal.Configuration) decimal.Decimal {
	if cfg.EligibleForAllowance(baseSalary) {
		return money.Round(cfg.TransportAllowance)
	}
	return decimal.Zero
}

// Compute builds the full breakdown for one month. The contribution base is
// the salary alone; the allowance never enters it.
func Compute(baseSalary decimal.Decimal, riskClass int, records []core.DailyTimeRecord, cfg legal.Configuration) Breakdown {
	base := money.Round(baseSalary)

	earnings := Premiums(base, records, cfg)
	earnings.BaseSalary = base
	earnings.TransportAllowance = TransportAllowance(base, cfg)

	deductions := Deductions{
		Health:      money.Percent(base, cfg.EmployeeHealthPct),
		Pension:     money.Percent(base, cfg.EmployeePensionPct),
		Withholding: Withholding(base, cfg),
	}

	employer := EmployerContributions{
		Health:             money.Percent(base, cfg.EmployerHealthPct),
		Pension:            money.Percent(base, cfg.EmployerPensionPct),
		RiskInsurance:      money.Percent(base, cfg.RiskInsurancePct(riskClass)),
		FamilyCompensation: money.Percent(base, cfg.FamilyCompensationPct),
		ICBF:               money.Percent(base, cfg.ICBFPct),
		SENA:               money.Percent(base, cfg.SENAPct),
	}

	return Breakdown{Earnings: earnings, Deductions: deductions, Employer: employer}
}

// Withholding is a placeholder. Income-tax withholding is not implemented and
// always returns zero.
func Withholding(_ decimal.Decimal, _ legal.Configuration) decimal.Decimal {
	return decimal.Zero
}
