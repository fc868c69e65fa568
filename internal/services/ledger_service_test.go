package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

type fakeRecordStore struct {
	kind    core.Kind
	nextID  int64
	records map[int64]core.Record
	calls   []string
	failAll bool
}

func newFakeRecordStore(kind core.Kind) *fakeRecordStore {
	return &fakeRecordStore{kind: kind, nextID: 1, records: make(map[int64]core.Record)}
}

func (f *fakeRecordStore) Kind() core.Kind { return f.kind }

func (f *fakeRecordStore) Create(_ context.Context, r *core.Record) (int64, error) {
	f.calls = append(f.calls, "create")
	if f.failAll {
		return 0, errors.New("boom")
	}
	r.ID = f.nextID
	f.nextID++
	f.records[r.ID] = *r
	return r.ID, nil
}

func (f *fakeRecordStore) ListByUser(_ context.Context, userID int64) ([]core.Record, error) {
	f.calls = append(f.calls, "list")
	out := make([]core.Record, 0)
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) MonthlySummary(_ context.Context, _ int64, _, _ int) (map[string]decimal.Decimal, error) {
	f.calls = append(f.calls, "summary")
	return map[string]decimal.Decimal{}, nil
}

func (f *fakeRecordStore) Update(_ context.Context, r core.Record) (bool, error) {
	f.calls = append(f.calls, "update")
	if _, ok := f.records[r.ID]; !ok {
		return false, nil
	}
	f.records[r.ID] = r
	return true, nil
}

func (f *fakeRecordStore) Delete(_ context.Context, id int64) (bool, error) {
	f.calls = append(f.calls, "delete")
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

func (f *fakeRecordStore) ListCategories(_ context.Context) ([]core.Category, error) {
	f.calls = append(f.calls, "categories")
	return []core.Category{{ID: 1, Name: "Food"}}, nil
}

type fakedPublisher struct {
	events []string
	err    error
}

func (p *fakedPublisher) PublishRecordChange(_ context.Context, kind core.Kind, action string, _, _ int64) error {
	p.events = append(p.events, kind.String()+":"+action)
	return p.err
}

func TestCreateRecordHappyPath(t *testing.T) {
	store := newFakeRecordStore(core.KindExpense)
	events := &fakedPublisher{}
	svc := NewLedgerService(store, events)

	date := core.NewDate(2024, 3, 5)
	r, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("42.50"), "team lunch", date)
	require.NoError(t, err)

	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, int64(1), r.UserID)
	assert.Equal(t, int64(2), r.CategoryID)
	assert.True(t, r.Amount.Equal(mustAmount("42.50")))
	assert.Equal(t, "team lunch", r.Description)
	assert.Equal(t, date, r.OccurredOn)
	assert.Equal(t, []string{"expense:created"}, events.events)
}

func TestCreateRecordValidationPrecedesPersistence(t *testing.T) {
	store := newFakeRecordStore(core.KindExpense)
	svc := NewLedgerService(store, nil)

	_, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("-1"), "x", core.NewDate(2024, 3, 5))
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, store.calls, "store must not be touched on validation failure")

	_, err = svc.CreateRecord(context.Background(), 1, 2, mustAmount("10000.01"), "x", core.NewDate(2024, 3, 5))
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, store.calls)
}

func TestCreateRecordIncomeHasNoCeiling(t *testing.T) {
	store := newFakeRecordStore(core.KindIncome)
	svc := NewLedgerService(store, nil)

	_, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("10000.01"), "bonus", core.NewDate(2024, 3, 5))
	assert.NoError(t, err)
}

func TestUpdateRecordValidatesFirst(t *testing.T) {
	store := newFakeRecordStore(core.KindExpense)
	svc := NewLedgerService(store, nil)

	r, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("10"), "lunch", core.NewDate(2024, 3, 5))
	require.NoError(t, err)

	r.Description = "   "
	_, err = svc.UpdateRecord(context.Background(), r)
	require.ErrorIs(t, err, core.ErrInvalidDescription)
	assert.NotContains(t, store.calls, "update")

	r.Description = "long lunch"
	ok, err := svc.UpdateRecord(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateRecordNoMatchIsFalse(t *testing.T) {
	svc := NewLedgerService(newFakeRecordStore(core.KindExpense), &fakedPublisher{})

	ok, err := svc.UpdateRecord(context.Background(), core.Record{
		ID:          99,
		Amount:      mustAmount("5"),
		Description: "ghost",
		OccurredOn:  core.NewDate(2024, 3, 5),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRecordPublishesOnlyWhenMatched(t *testing.T) {
	store := newFakeRecordStore(core.KindExpense)
	events := &fakedPublisher{}
	svc := NewLedgerService(store, events)

	ok, err := svc.DeleteRecord(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, events.events)

	r, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("10"), "lunch", core.NewDate(2024, 3, 5))
	require.NoError(t, err)
	ok, err = svc.DeleteRecord(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"expense:created", "expense:deleted"}, events.events)
}

func TestPublishFailureNeverFailsTheCall(t *testing.T) {
	store := newFakeRecordStore(core.KindExpense)
	events := &fakedPublisher{err: errors.New("broker down")}
	svc := NewLedgerService(store, events)

	r, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("10"), "lunch", core.NewDate(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)
}

func TestStoreFailurePropagates(t *testing.T) {
	store := newFakeRecordStore(core.KindExpense)
	store.failAll = true
	svc := NewLedgerService(store, nil)

	_, err := svc.CreateRecord(context.Background(), 1, 2, mustAmount("10"), "lunch", core.NewDate(2024, 3, 5))
	require.Error(t, err)
	assert.False(t, core.IsValidationError(err))
}

func mustAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
