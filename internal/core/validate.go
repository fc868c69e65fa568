package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidDescription = errors.New("description cannot be empty")
	ErrInvalidDate        = errors.New("date cannot be in the future")
)

// ValidateRecord checks the record invariants that must hold before any
// persistence attempt. It is pure: no store or network access, so it is
// independently testable with no collaborators.
//
// Expenses are additionally bounded above by MaxExpenseAmount; incomes are
// not. The asymmetry is deliberate.
func ValidateRecord(kind Kind, amount decimal.Decimal, description string, occurredOn Date) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}
	if kind == KindExpense && amount.GreaterThan(MaxExpenseAmount) {
		return fmt.Errorf("%w: expense amount cannot exceed $10,000", ErrInvalidAmount)
	}
	if strings.TrimSpace(description) == "" {
		return ErrInvalidDescription
	}
	if occurredOn.IsZero() || occurredOn.After(Today()) {
		return ErrInvalidDate
	}
	return nil
}

// IsValidationError reports whether err comes from the validation policy.
// Validation failures are user-facing and are never logged as system errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidDate)
}
