package investsync

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Monetary helpers. The ledger speaks integer minor units (cents, pence);
// valuation speaks major units rounded to two places. All rounding is
// half-away-from-zero, so the same input always yields the same output.

var hundred = decimal.NewFromInt(100)

// round2 rounds a major-unit amount to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// toMinor converts a major-unit amount to integer minor units.
func toMinor(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// fromMinor converts integer minor units to a major-unit amount.
func fromMinor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}

// formatMinor renders a minor-unit amount in the given currency for logs,
// e.g. formatMinor(500, "GBP") is "£5.00".
func formatMinor(minor int64, currency string) string {
	return money.New(minor, currency).Display()
}
