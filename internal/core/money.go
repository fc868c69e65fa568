// Package core holds the ledger domain model and the validation policy.
//
// This file contains amount parsing and the decimal/cents conversions used
// by the storage layer, which persists amounts as integer cents.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxExpenseAmount is the upper bound a single expense may carry. Incomes
// deliberately have no such bound.
var MaxExpenseAmount = decimal.NewFromInt(10000)

// ParseAmount converts a decimal string to an amount. It accepts both dot
// (12.34) and comma (12,34) decimal separators. Sign prefixes are rejected;
// range checks belong to the validation policy.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountToCents converts an amount to integer cents. The validation policy
// guarantees persisted amounts carry at most two decimal places, so the
// conversion is exact.
func AmountToCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

// AmountFromCents converts integer cents back to a decimal amount.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
