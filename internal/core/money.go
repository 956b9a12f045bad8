// Package core provides money parsing and handling utilities.
//
// This file contains the Amount type and the parsing rules shared by the
// add forms and the spreadsheet importer.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative, currency-agnostic decimal quantity.
// It encodes to JSON as a bare number.
type Amount struct {
	d decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// AmountFromInt returns a whole-unit amount.
func AmountFromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// AmountFromFloat converts a float coming from a decoder (spreadsheet
// cells, JSON numbers).
func AmountFromFloat(v float64) Amount {
	return Amount{d: decimal.NewFromFloat(v)}
}

// Amounts above 10^15 or with more than maxInputScale fractional digits
// are rejected; the coefficient and exponent stay small enough to
// serialize cheaply.
const (
	maxAmountExp  = 15
	maxInputScale = 64
	amountScale   = 10
)

var maxAmount = decimal.New(1, maxAmountExp)

// thousandsGrouped matches comma grouping without a decimal part, in
// either western (1,234,567) or lakh (12,34,567) style.
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+$|^\d{1,2}(,\d{2})+,\d{3}$`)

// ParseAmount converts user input to an Amount.
//
// A single comma followed by one or two digits is a decimal separator
// (12,34). Comma groups of three digits are thousands (1,234 or
// 1,00,000). When a dot is present commas are always thousands
// (1,234.50). Empty input, non-numeric input, negative values and
// values out of range are rejected.
//
// Examples:
//   ParseAmount("12.34")    -> 12.34, nil
//   ParseAmount("12,34")    -> 12.34, nil
//   ParseAmount("1,234")    -> 1234, nil
//   ParseAmount("1,234.50") -> 1234.5, nil
//   ParseAmount("-1")       -> ErrInvalidAmount
//   ParseAmount("1e500")    -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrEmptyAmount
	}
	switch {
	case strings.Contains(s, "."), thousandsGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return CheckedAmount(d)
}

// CheckedAmount accepts a decoded value as an Amount. Negative and
// out-of-range values are ErrInvalidAmount; fractional digits beyond
// ten are rounded.
func CheckedAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() || !inRange(d) {
		return Amount{}, ErrInvalidAmount
	}
	if d.Exponent() < -amountScale {
		d = d.Round(amountScale)
	}
	return Amount{d: d}, nil
}

// inRange checks the exponent before comparing so a value like 1e2000000000
// is never expanded.
func inRange(d decimal.Decimal) bool {
	if e := d.Exponent(); e > maxAmountExp || e < -maxInputScale {
		return false
	}
	return d.Abs().Cmp(maxAmount) <= 0
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Decimal exposes the underlying value for arithmetic the type does not wrap.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Float64 returns the value as a float64 for display purposes.
// Use the decimal value for calculations.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

func (a Amount) String() string { return a.d.String() }

// Format renders the amount with two decimals for the UI.
func (a Amount) Format() string { return a.d.StringFixed(2) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts negative values (balances) but not out-of-range ones.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	if !inRange(d) {
		return ErrInvalidAmount
	}
	a.d = d
	return nil
}
