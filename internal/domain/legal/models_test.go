package legal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpayroll/internal/domain/apperr"
)

func testConfig() Configuration {
	cfg := Defaults(2025, decimal.NewFromInt(1423500), decimal.NewFromInt(200000))
	cfg.Effective = true
	return cfg
}

func TestRiskInsurancePctByClass(t *testing.T) {
	cfg := testConfig()

	cases := map[int]string{
		1: "0.522",
		2: "1.044",
		3: "2.436",
		4: "4.35",
		5: "6.96",
	}
	for class, want := range cases {
		assert.True(t, cfg.RiskInsurancePct(class).Equal(decimal.RequireFromString(want)), "class %d", class)
	}
}

func TestRiskInsurancePctClampsOutOfRangeClass(t *testing.T) {
	cfg := testConfig()

	assert.True(t, cfg.RiskInsurancePct(0).Equal(cfg.RiskClass1Pct))
	assert.True(t, cfg.RiskInsurancePct(-3).Equal(cfg.RiskClass1Pct))
	assert.True(t, cfg.RiskInsurancePct(9).Equal(cfg.RiskClass5Pct))
}

func TestClassFiveFollowsConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.RiskClass5Pct = decimal.RequireFromString("7.1")

	assert.Equal(t, "7.1", cfg.RiskInsurancePct(5).String())
	assert.Equal(t, "2.436", cfg.RiskInsurancePct(3).String())
}

func TestDerivedWages(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, "47450", cfg.DailyMinimumWage().String())
	assert.Equal(t, "5931.25", cfg.HourlyMinimumWage().String())
}

func TestEligibleForAllowanceIsStrict(t *testing.T) {
	cfg := testConfig()
	threshold := cfg.AllowanceThreshold()

	assert.True(t, cfg.EligibleForAllowance(threshold.Sub(decimal.NewFromInt(1))))
	assert.False(t, cfg.EligibleForAllowance(threshold))
	assert.False(t, cfg.EligibleForAllowance(threshold.Add(decimal.NewFromInt(1))))
}

func TestValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	bad := testConfig()
	bad.MinimumWage = decimal.Zero
	bad.ICBFPct = decimal.NewFromInt(-1)
	bad.MaxWeeklyHours = 0

	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
	assert.Contains(t, err.Error(), "minimum wage must be positive")
	assert.Contains(t, err.Error(), "icbf percentage must not be negative")
	assert.Contains(t, err.Error(), "max weekly hours must be positive")
}
