package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID              string          `json:"id"`
	NationalID      string          `json:"nationalId"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	BirthDate       *time.Time      `json:"birthDate,omitempty"`
	Status          string          `json:"status"`
	BaseSalary      decimal.Decimal `json:"baseSalary"`
	RiskClass       int             `json:"riskClass"`
	HireDate        time.Time       `json:"hireDate"`
	TerminationDate *time.Time      `json:"terminationDate,omitempty"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func (e Employee) Active() bool {
	return e.Status == EmployeeStatusActive
}

type Contract struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	Type       ContractType    `json:"type"`
	Salary     decimal.Decimal `json:"salary"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    *time.Time      `json:"endDate,omitempty"`
	// TerminatedOn is the date the relationship actually ended, when known.
	TerminatedOn *time.Time `json:"terminatedOn,omitempty"`
	Active       bool       `json:"active"`
}

// DailyTimeRecord is one employee-day of hours as produced by time tracking.
type DailyTimeRecord struct {
	EmployeeID        string          `json:"employeeId"`
	Date              time.Time       `json:"date"`
	OrdinaryHours     decimal.Decimal `json:"ordinaryHours"`
	DaytimeOvertime   decimal.Decimal `json:"daytimeOvertime"`
	NighttimeOvertime decimal.Decimal `json:"nighttimeOvertime"`
	NightOrdinary     decimal.Decimal `json:"nightOrdinary"`
	HolidayHours      decimal.Decimal `json:"holidayHours"`
}

func (r DailyTimeRecord) Overtime() decimal.Decimal {
	return r.DaytimeOvertime.Add(r.NighttimeOvertime)
}

// WorkedHours counts ordinary plus overtime hours for the weekly cap.
func (r DailyTimeRecord) WorkedHours() decimal.Decimal {
	return r.OrdinaryHours.Add(r.Overtime())
}
