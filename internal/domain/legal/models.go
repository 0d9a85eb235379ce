package legal

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/core"
)

// Configuration is one year's statutory parameter set. Percentages are
// expressed as percent values (4 means 4%). Published sets are immutable.
type Configuration struct {
	Year int `json:"year" yaml:"year"`

	MinimumWage        decimal.Decimal `json:"minimumWage" yaml:"minimum_wage"`
	TransportAllowance decimal.Decimal `json:"transportAllowance" yaml:"transport_allowance"`

	EmployeeHealthPct  decimal.Decimal `json:"employeeHealthPct" yaml:"employee_health_pct"`
	EmployeePensionPct decimal.Decimal `json:"employeePensionPct" yaml:"employee_pension_pct"`
	EmployerHealthPct  decimal.Decimal `json:"employerHealthPct" yaml:"employer_health_pct"`
	EmployerPensionPct decimal.Decimal `json:"employerPensionPct" yaml:"employer_pension_pct"`

	FamilyCompensationPct decimal.Decimal `json:"familyCompensationPct" yaml:"family_compensation_pct"`
	ICBFPct               decimal.Decimal `json:"icbfPct" yaml:"icbf_pct"`
	SENAPct               decimal.Decimal `json:"senaPct" yaml:"sena_pct"`

	// Only the two ends of the risk-insurance band table are configurable.
	RiskClass1Pct decimal.Decimal `json:"riskClass1Pct" yaml:"risk_class1_pct"`
	RiskClass5Pct decimal.Decimal `json:"riskClass5Pct" yaml:"risk_class5_pct"`

	SeveranceInterestPct decimal.Decimal `json:"severanceInterestPct" yaml:"severance_interest_pct"`
	VacationDaysPerYear  int             `json:"vacationDaysPerYear" yaml:"vacation_days_per_year"`

	MaxWeeklyHours     int `json:"maxWeeklyHours" yaml:"max_weekly_hours"`
	OrdinaryDailyHours int `json:"ordinaryDailyHours" yaml:"ordinary_daily_hours"`

	DaytimeOvertimePct   decimal.Decimal `json:"daytimeOvertimePct" yaml:"daytime_overtime_pct"`
	NighttimeOvertimePct decimal.Decimal `json:"nighttimeOvertimePct" yaml:"nighttime_overtime_pct"`
	NightOrdinaryPct     decimal.Decimal `json:"nightOrdinaryPct" yaml:"night_ordinary_pct"`
	HolidayPct           decimal.Decimal `json:"holidayPct" yaml:"holiday_pct"`

	MinimumWorkingAge int `json:"minimumWorkingAge" yaml:"minimum_working_age"`

	Effective bool   `json:"effective" yaml:"effective"`
	Notes     string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Risk-insurance rates for classes 2 to 4. The configuration has no fields for
// them; these are the statutory midpoints in force when the table was written.
var (
	riskClass2Pct = decimal.RequireFromString("1.044")
	riskClass3Pct = decimal.RequireFromString("2.436")
	riskClass4Pct = decimal.RequireFromString("4.350")
)

// RiskInsurancePct returns the employer risk-insurance percentage for a risk
// class. Classes outside 1..5 are clamped.
func (c Configuration) RiskInsurancePct(class int) decimal.Decimal {
	switch ClampRiskClass(class) {
	case 2:
		return riskClass2Pct
	case 3:
		return riskClass3Pct
	case 4:
		return riskClass4Pct
	case 5:
		return c.RiskClass5Pct
	default:
		return c.RiskClass1Pct
	}
}

func ClampRiskClass(class int) int {
	if class < core.MinRiskClass {
		return core.MinRiskClass
	}
	if class > core.MaxRiskClass {
		return core.MaxRiskClass
	}
	return class
}

var (
	thirty             = decimal.NewFromInt(30)
	twoHundredForty    = decimal.NewFromInt(240)
	allowanceThreshold = decimal.NewFromInt(2)
)

func (c Configuration) DailyMinimumWage() decimal.Decimal {
	return c.MinimumWage.Div(thirty)
}

func (c Configuration) HourlyMinimumWage() decimal.Decimal {
	return c.MinimumWage.Div(twoHundredForty)
}

// AllowanceThreshold is the salary below which transport allowance is owed.
func (c Configuration) AllowanceThreshold() decimal.Decimal {
	return c.MinimumWage.Mul(allowanceThreshold)
}

// EligibleForAllowance reports whether salary is strictly below two minimum wages.
func (c Configuration) EligibleForAllowance(salary decimal.Decimal) bool {
	return salary.LessThan(c.AllowanceThreshold())
}

// Defaults returns a configuration with the statutory percentages filled in and
// the year-specific amounts supplied by the caller.
func Defaults(year int, minimumWage, transportAllowance decimal.Decimal) Configuration {
	pct := decimal.RequireFromString
	return Configuration{
		Year:                  year,
		MinimumWage:           minimumWage,
		TransportAllowance:    transportAllowance,
		EmployeeHealthPct:     pct("4"),
		EmployeePensionPct:    pct("4"),
		EmployerHealthPct:     pct("8.5"),
		EmployerPensionPct:    pct("12"),
		FamilyCompensationPct: pct("4"),
		ICBFPct:               pct("3"),
		SENAPct:               pct("2"),
		RiskClass1Pct:         pct("0.522"),
		RiskClass5Pct:         pct("6.96"),
		SeveranceInterestPct:  pct("12"),
		VacationDaysPerYear:   15,
		MaxWeeklyHours:        48,
		OrdinaryDailyHours:    8,
		DaytimeOvertimePct:    pct("25"),
		NighttimeOvertimePct:  pct("75"),
		NightOrdinaryPct:      pct("35"),
		HolidayPct:            pct("75"),
		MinimumWorkingAge:     18,
	}
}

// Validate rejects parameter sets that would make the formulas meaningless.
func (c Configuration) Validate() error {
	var problems []string
	if c.Year < 1900 {
		problems = append(problems, "year must be set")
	}
	if !c.MinimumWage.IsPositive() {
		problems = append(problems, "minimum wage must be positive")
	}
	if c.TransportAllowance.IsNegative() {
		problems = append(problems, "transport allowance must not be negative")
	}
	for name, pct := range map[string]decimal.Decimal{
		"employee health":     c.EmployeeHealthPct,
		"employee pension":    c.EmployeePensionPct,
		"employer health":     c.EmployerHealthPct,
		"employer pension":    c.EmployerPensionPct,
		"family compensation": c.FamilyCompensationPct,
		"icbf":                c.ICBFPct,
		"sena":                c.SENAPct,
		"risk class 1":        c.RiskClass1Pct,
		"risk class 5":        c.RiskClass5Pct,
		"severance interest":  c.SeveranceInterestPct,
		"daytime overtime":    c.DaytimeOvertimePct,
		"nighttime overtime":  c.NighttimeOvertimePct,
		"night ordinary":      c.NightOrdinaryPct,
		"holiday":             c.HolidayPct,
	} {
		if pct.IsNegative() {
			problems = append(problems, name+" percentage must not be negative")
		}
	}
	if c.MaxWeeklyHours <= 0 {
		problems = append(problems, "max weekly hours must be positive")
	}
	if c.VacationDaysPerYear <= 0 {
		problems = append(problems, "vacation days per year must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return apperr.New(apperr.KindInvalidInput, "invalid legal configuration: "+strings.Join(problems, "; "))
}
