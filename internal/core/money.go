// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals. Stored values are rounded to two places
// and persisted as integer cents.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundAmount rounds to two decimal places, half away from zero.
//
//	RoundAmount(85.555) -> 85.56
//	RoundAmount(85.554) -> 85.55
//	RoundAmount(-2.345) -> -2.35
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount parses a signed amount as it appears in bank exports.
// Currency symbols ("$") and thousands separators (",") are stripped
// before parsing; surrounding whitespace is ignored.
//
//	ParseAmount("$1,234.50") -> 1234.50
//	ParseAmount("-45.99")    -> -45.99
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ToCents converts an amount to integer cents after rounding.
func ToCents(d decimal.Decimal) int64 {
	return RoundAmount(d).Mul(hundred).IntPart()
}

// FromCents converts integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCurrency renders an amount as "$1,234.50" or "-$12.00".
func FormatCurrency(d decimal.Decimal) string {
	rounded := RoundAmount(d)
	neg := rounded.IsNegative()
	if neg {
		rounded = rounded.Neg()
	}
	fixed := rounded.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	s := "$" + b.String() + "." + frac
	if neg {
		return "-" + s
	}
	return s
}
