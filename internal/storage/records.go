package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// RecordStore performs CRUD and aggregation for one record kind. The two
// kinds share a shape, so the store is constructed twice, once per table
// pair, rather than duplicated.
type RecordStore struct {
	db            *DB
	kind          core.Kind
	table         string
	categoryTable string
}

// NewRecordStore builds a store bound to the tables of the given kind.
func NewRecordStore(db *DB, kind core.Kind) (*RecordStore, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	s := &RecordStore{db: db, kind: kind}
	switch kind {
	case core.KindExpense:
		s.table, s.categoryTable = "expenses", "expense_categories"
	case core.KindIncome:
		s.table, s.categoryTable = "incomes", "income_categories"
	}
	return s, nil
}

// Kind returns the record kind this store operates on.
func (s *RecordStore) Kind() core.Kind {
	return s.kind
}

// Create inserts a new record and returns the identity the store assigned.
// Referential-integrity violations (a category id from the wrong namespace)
// surface here as store failures, not validation failures.
func (s *RecordStore) Create(ctx context.Context, r *core.Record) (int64, error) {
	op := "create " + s.kind.String()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (user_id, category_id, amount_cents, description, occurred_on, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.table)
	res, err := s.db.ExecContext(ctx, query,
		r.UserID, r.CategoryID, core.AmountToCents(r.Amount), r.Description,
		r.OccurredOn.String(), r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return 0, s.fail(ctx, op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail(ctx, op, err)
	}
	r.ID = id

	slog.InfoContext(ctx, "record saved",
		"kind", s.kind.String(),
		"id", id,
		"user_id", r.UserID,
		"amount_cents", core.AmountToCents(r.Amount))

	return id, nil
}

// ListByUser returns the user's records with category names populated,
// newest occurrence first. A user with no records gets an empty slice.
func (s *RecordStore) ListByUser(ctx context.Context, userID int64) ([]core.Record, error) {
	op := "list " + s.kind.String() + "s"

	query := fmt.Sprintf(
		`SELECT r.id, r.user_id, r.category_id, r.amount_cents, r.description, r.occurred_on, r.created_at, c.name
		 FROM %s r JOIN %s c ON r.category_id = c.id
		 WHERE r.user_id = ? ORDER BY r.occurred_on DESC`,
		s.table, s.categoryTable)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer rows.Close()

	records := make([]core.Record, 0)
	for rows.Next() {
		var (
			r          core.Record
			cents      int64
			occurredOn string
			createdAt  string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.CategoryID, &cents, &r.Description, &occurredOn, &createdAt, &r.CategoryName); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		r.Amount = core.AmountFromCents(cents)
		if r.OccurredOn, err = core.ParseDate(occurredOn); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	return records, nil
}

// MonthlySummary sums the user's records falling in the given calendar
// year/month, grouped by category name. Categories without a matching record
// in the window are absent from the map, not present with zero.
func (s *RecordStore) MonthlySummary(ctx context.Context, userID int64, year, month int) (map[string]decimal.Decimal, error) {
	op := "monthly " + s.kind.String() + " summary"

	query := fmt.Sprintf(
		`SELECT c.name, SUM(r.amount_cents)
		 FROM %s r JOIN %s c ON r.category_id = c.id
		 WHERE r.user_id = ? AND strftime('%%Y', r.occurred_on) = ? AND strftime('%%m', r.occurred_on) = ?
		 GROUP BY c.id, c.name`,
		s.table, s.categoryTable)
	rows, err := s.db.QueryContext(ctx, query, userID, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer rows.Close()

	summary := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		summary[name] = core.AmountFromCents(cents)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	return summary, nil
}

// Update replaces category, amount, description and occurrence date of the
// row matching the record's id. It returns false, not an error, when no row
// matched; id and owner are immutable.
func (s *RecordStore) Update(ctx context.Context, r core.Record) (bool, error) {
	op := "update " + s.kind.String()

	query := fmt.Sprintf(
		"UPDATE %s SET category_id = ?, amount_cents = ?, description = ?, occurred_on = ? WHERE id = ?",
		s.table)
	res, err := s.db.ExecContext(ctx, query,
		r.CategoryID, core.AmountToCents(r.Amount), r.Description, r.OccurredOn.String(), r.ID)
	if err != nil {
		return false, s.fail(ctx, op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(ctx, op, err)
	}
	return affected > 0, nil
}

// Delete removes the row matching id, unconditionally. Same no-match-is-false
// semantics as Update.
func (s *RecordStore) Delete(ctx context.Context, id int64) (bool, error) {
	op := "delete " + s.kind.String()

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, s.fail(ctx, op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(ctx, op, err)
	}
	return affected > 0, nil
}

// ListCategories returns this kind's category namespace ordered by name.
func (s *RecordStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	op := "list " + s.kind.String() + " categories"

	query := fmt.Sprintf("SELECT id, name, description FROM %s ORDER BY name", s.categoryTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	return categories, nil
}

// fail logs the underlying cause with the operation name and returns the
// user-safe StoreError.
func (s *RecordStore) fail(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, "store operation failed", "operation", op, "error", err)
	return storeErr(op, err)
}
