package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// LedgerService is the validated entry point for record mutation and
// retrieval of one kind. Construct it twice, over an expense store and an
// income store, for the full ledger.
//
// Every mutation runs the validation policy before touching the store, so no
// invalid data ever reaches persistence through this path. Reads are
// pass-throughs; nothing is cached.
type LedgerService struct {
	store  RecordStore
	events EventPublisher
}

func NewLedgerService(store RecordStore, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

// Kind returns the record kind this service operates on.
func (s *LedgerService) Kind() core.Kind {
	return s.store.Kind()
}

// CreateRecord validates the inputs, persists a new record and returns it
// with the store-assigned id. On validation failure the store is never
// touched and the validation error is returned verbatim.
func (s *LedgerService) CreateRecord(ctx context.Context, userID, categoryID int64, amount decimal.Decimal, description string, occurredOn core.Date) (core.Record, error) {
	if err := core.ValidateRecord(s.Kind(), amount, description, occurredOn); err != nil {
		return core.Record{}, err
	}

	r := core.Record{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: description,
		OccurredOn:  occurredOn,
	}
	id, err := s.store.Create(ctx, &r)
	if err != nil {
		return core.Record{}, err
	}

	s.publish(ctx, "created", id, userID)
	return r, nil
}

// UpdateRecord re-validates the record's current fields, then replaces the
// stored row. False means no row matched the id; id and owner never change.
func (s *LedgerService) UpdateRecord(ctx context.Context, r core.Record) (bool, error) {
	if err := core.ValidateRecord(s.Kind(), r.Amount, r.Description, r.OccurredOn); err != nil {
		return false, err
	}

	ok, err := s.store.Update(ctx, r)
	if err != nil {
		return false, err
	}
	if ok {
		s.publish(ctx, "updated", r.ID, r.UserID)
	}
	return ok, nil
}

// DeleteRecord removes the record with the given id. False means it did not
// exist.
func (s *LedgerService) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.publish(ctx, "deleted", id, 0)
	}
	return ok, nil
}

// ListForUser returns the user's records, newest occurrence first.
func (s *LedgerService) ListForUser(ctx context.Context, userID int64) ([]core.Record, error) {
	return s.store.ListByUser(ctx, userID)
}

// MonthlySummary aggregates the user's records for one calendar month,
// keyed by category name.
func (s *LedgerService) MonthlySummary(ctx context.Context, userID int64, year, month int) (map[string]decimal.Decimal, error) {
	return s.store.MonthlySummary(ctx, userID, year, month)
}

// ListCategories returns this kind's category namespace ordered by name.
func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// publish emits a record-change event when a publisher is configured. The
// record is already persisted; a publish failure is logged and swallowed.
func (s *LedgerService) publish(ctx context.Context, action string, recordID, userID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecordChange(ctx, s.Kind(), action, recordID, userID); err != nil {
		slog.ErrorContext(ctx, "failed to publish record event",
			"kind", s.Kind().String(),
			"action", action,
			"id", recordID,
			"error", err)
	}
}
