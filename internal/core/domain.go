package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// KindExpense and KindIncome select which record table and category
	// namespace an operation targets. The two namespaces are disjoint and
	// never cross-referenced.
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const (
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

type (
	Kind string

	Role string

	Date struct {
		time.Time
	}

	// Record is a single expense or income transaction. The two kinds are
	// structurally identical; Kind is carried by the store operating on the
	// record, not by the record itself.
	Record struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Amount      decimal.Decimal
		Description string
		OccurredOn  Date
		CreatedAt   time.Time
		// CategoryName is denormalized on read joins only, never persisted.
		CategoryName string
	}

	Category struct {
		ID          int64
		Name        string
		Description string
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		Role         Role
		CreatedAt    time.Time
	}
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a yyyy-MM-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String renders the date in ISO yyyy-MM-dd form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// After reports whether d falls on a later calendar day than other,
// ignoring time of day and location.
func (d Date) After(other Date) bool {
	dy, dm, dd := d.Date()
	oy, om, od := other.Date()
	if dy != oy {
		return dy > oy
	}
	if dm != om {
		return dm > om
	}
	return dd > od
}

func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the two known record kinds.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}
