package compliance

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/platform/metrics"
)

// Service runs the checks against the effective legal configuration.
type Service struct {
	legal   legal.Provider
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(provider legal.Provider, m *metrics.Collector) *Service {
	return &Service{legal: provider, metrics: m, now: time.Now}
}

func (s *Service) config(ctx context.Context) (legal.Configuration, error) {
	cfg, err := s.legal.GetEffective(ctx)
	if err != nil {
		return legal.Configuration{}, legal.Failure(err)
	}
	return cfg, nil
}

func (s *Service) observe(check string, result Result) Result {
	s.metrics.ComplianceCheck(check, result.OK)
	if !result.OK {
		slog.Info("compliance violation", "check", check, "message", result.Message)
	}
	return result
}

func (s *Service) withConfig(ctx context.Context, check string, rule func(legal.Configuration) Result) (Result, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.observe(check, rule(cfg)), nil
}

func (s *Service) MinimumWage(ctx context.Context, salary decimal.Decimal) (Result, error) {
	return s.withConfig(ctx, CheckMinimumWage, func(cfg legal.Configuration) Result {
		return MinimumWage(salary, cfg)
	})
}

// MinimumAge evaluates the age as of today.
func (s *Service) MinimumAge(ctx context.Context, birth time.Time) (Result, error) {
	return s.withConfig(ctx, CheckMinimumAge, func(cfg legal.Configuration) Result {
		return MinimumAge(birth, s.now(), cfg)
	})
}

func (s *Service) WeeklyHours(ctx context.Context, records []core.DailyTimeRecord) (Result, error) {
	return s.withConfig(ctx, CheckWeeklyHours, func(cfg legal.Configuration) Result {
		return WeeklyHours(records, cfg)
	})
}

func (s *Service) OvertimeCaps(records []core.DailyTimeRecord) Result {
	return s.observe(CheckOvertimeCaps, OvertimeCaps(records))
}

func (s *Service) NationalID(id string) Result {
	return s.observe(CheckNationalID, NationalID(id))
}

func (s *Service) ContractConsistency(ctx context.Context, c core.Contract) (Result, error) {
	return s.withConfig(ctx, CheckContract, func(cfg legal.Configuration) Result {
		return ContractConsistency(c, s.now(), cfg)
	})
}

func (s *Service) ContributionReconciliation(ctx context.Context, base, health, pension decimal.Decimal) (Result, error) {
	return s.withConfig(ctx, CheckContributions, func(cfg legal.Configuration) Result {
		return ContributionReconciliation(base, health, pension, cfg)
	})
}

func (s *Service) TransportAllowance(ctx context.Context, salary decimal.Decimal) (Eligibility, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return Eligibility{}, err
	}
	return TransportAllowance(salary, cfg), nil
}

// Snapshot is the data one employee review runs over. Contract and BirthDate
// are optional; the checks that need them are skipped when absent.
type Snapshot struct {
	Employee core.Employee
	Contract *core.Contract
	Records  []core.DailyTimeRecord
}

// Review runs every applicable check over one employee's snapshot.
func (s *Service) Review(ctx context.Context, snap Snapshot) (Report, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return Report{}, err
	}
	now := s.now()
	salary := snap.Employee.BaseSalary
	if snap.Contract != nil {
		salary = snap.Contract.Salary
	}

	checks := map[string]Result{
		CheckMinimumWage:  MinimumWage(salary, cfg),
		CheckNationalID:   NationalID(snap.Employee.NationalID),
		CheckWeeklyHours:  WeeklyHours(snap.Records, cfg),
		CheckOvertimeCaps: OvertimeCaps(snap.Records),
	}
	if snap.Employee.BirthDate != nil {
		checks[CheckMinimumAge] = MinimumAge(*snap.Employee.BirthDate, now, cfg)
	}
	if snap.Contract != nil {
		checks[CheckContract] = ContractConsistency(*snap.Contract, now, cfg)
	}
	for check, result := range checks {
		s.observe(check, result)
	}

	report := Report{EmployeeID: snap.Employee.ID, Checks: checks, Allowance: TransportAllowance(salary, cfg)}
	slog.Info("compliance review finished", "employeeId", snap.Employee.ID, "checks", len(checks), "ok", report.OK())
	return report, nil
}
