package legal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpayroll/internal/domain/apperr"
)

const sampleTable = `
configurations:
  - year: 2024
    minimum_wage: "1300000"
    transport_allowance: "162000"
    employee_health_pct: "4"
    employee_pension_pct: "4"
    employer_health_pct: "8.5"
    employer_pension_pct: "12"
    family_compensation_pct: "4"
    icbf_pct: "3"
    sena_pct: "2"
    risk_class1_pct: "0.522"
    risk_class5_pct: "6.96"
    severance_interest_pct: "12"
    vacation_days_per_year: 15
    max_weekly_hours: 48
    ordinary_daily_hours: 8
    daytime_overtime_pct: "25"
    nighttime_overtime_pct: "75"
    night_ordinary_pct: "35"
    holiday_pct: "75"
    minimum_working_age: 18
  - year: 2025
    minimum_wage: "1423500"
    transport_allowance: "200000"
    employee_health_pct: "4"
    employee_pension_pct: "4"
    employer_health_pct: "8.5"
    employer_pension_pct: "12"
    family_compensation_pct: "4"
    icbf_pct: "3"
    sena_pct: "2"
    risk_class1_pct: "0.522"
    risk_class5_pct: "6.96"
    severance_interest_pct: "12"
    vacation_days_per_year: 15
    max_weekly_hours: 48
    ordinary_daily_hours: 8
    daytime_overtime_pct: "25"
    nighttime_overtime_pct: "75"
    night_ordinary_pct: "35"
    holiday_pct: "75"
    minimum_working_age: 18
    effective: true
`

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileProviderReturnsEffectiveYear(t *testing.T) {
	provider := NewFileProvider(writeTable(t, sampleTable))

	cfg, err := provider.GetEffective(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Year)
	assert.Equal(t, "1423500", cfg.MinimumWage.String())
	assert.Equal(t, "8.5", cfg.EmployerHealthPct.String())
	assert.Equal(t, 48, cfg.MaxWeeklyHours)
}

func TestLoadFileRejectsTwoEffectiveYears(t *testing.T) {
	path := writeTable(t, sampleTable+`
  - year: 2026
    minimum_wage: "1500000"
    transport_allowance: "210000"
    max_weekly_hours: 46
    vacation_days_per_year: 15
    effective: true
`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marks 2 years effective")
}

func TestLoadFileRejectsInvalidYear(t *testing.T) {
	path := writeTable(t, `
configurations:
  - year: 2025
    minimum_wage: "0"
    max_weekly_hours: 48
    vacation_days_per_year: 15
`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestStaticProviderWithoutEffectiveYear(t *testing.T) {
	cfg := testConfig()
	cfg.Effective = false

	_, err := Static(cfg).GetEffective(context.Background())
	assert.True(t, errors.Is(err, ErrNoEffective))
	assert.True(t, apperr.Is(Failure(err), apperr.KindNoLegalConfig))
}

func TestFailurePassesThroughInfrastructureErrors(t *testing.T) {
	boom := errors.New("connection reset")
	assert.Same(t, boom, Failure(boom))
}
