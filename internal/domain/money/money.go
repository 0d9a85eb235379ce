// Package money holds the rounding and percentage helpers shared by the
// payroll and severance formulas.
package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places every stored amount carries.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half-to-even at two decimals. Each formula step rounds with
// this immediately after it is computed.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

// Rate converts a percentage (12.5) into a factor (0.125).
func Rate(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

// Percent returns percent% of base, rounded.
func Percent(base, percent decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(Rate(percent)))
}

// Sum adds amounts without rounding; inputs are expected to be rounded already.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Must parses a literal amount. It panics on malformed input and is meant for
// constants and tests.
func Must(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
