package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/report"
)

type fakeUsers struct {
	users []core.User
	err   error
}

func (f *fakeUsers) List(ctx context.Context) ([]core.User, error) {
	return f.users, f.err
}

type fakeRecords struct {
	kind    core.Kind
	byUser  map[int64][]core.Record
	listErr error
}

func (f *fakeRecords) Kind() core.Kind { return f.kind }

func (f *fakeRecords) ListByUser(ctx context.Context, userID int64) ([]core.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byUser[userID], nil
}

func mustAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testWorker(t *testing.T) (*ExportWorker, string) {
	t.Helper()
	dir := t.TempDir()

	users := &fakeUsers{users: []core.User{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
	}}
	expenses := &fakeRecords{kind: core.KindExpense, byUser: map[int64][]core.Record{
		1: {{ID: 1, UserID: 1, OccurredOn: core.NewDate(2024, 3, 5), CategoryName: "Food", Description: "lunch", Amount: mustAmount("12.50")}},
	}}
	incomes := &fakeRecords{kind: core.KindIncome, byUser: map[int64][]core.Record{
		1: {{ID: 1, UserID: 1, OccurredOn: core.NewDate(2024, 3, 1), CategoryName: "Salary", Description: "march", Amount: mustAmount("2500")}},
	}}

	return NewExportWorker(users, expenses, incomes, dir), dir
}

func TestExportSnapshotsWritesPerUserFiles(t *testing.T) {
	w, dir := testWorker(t)
	require.NoError(t, w.ExportSnapshots(context.Background()))

	for _, name := range []string{
		"alice_expenses.csv", "alice_expenses.json",
		"alice_incomes.csv", "alice_incomes.json",
		"bob_expenses.csv", "bob_expenses.json",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing export %s", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "alice_expenses.csv"))
	require.NoError(t, err)
	records, err := report.ReadCSV(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "lunch", records[0].Description)
}

func TestGenerateReportsWritesPrettyReport(t *testing.T) {
	w, dir := testWorker(t)
	require.NoError(t, w.GenerateReports(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "alice_report.json"))
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"incomes"`)
	assert.Contains(t, out, `"expenses"`)
	assert.Less(t, strings.Index(out, `"incomes"`), strings.Index(out, `"expenses"`))
	assert.Contains(t, out, "\n  ", "report must be pretty printed")
}

func TestHandleRecordEventRefreshesOneUser(t *testing.T) {
	w, dir := testWorker(t)

	event := amqp.NewRecordEvent("expense", "created", 1, 1)
	require.NoError(t, w.HandleRecordEvent(context.Background(), event))

	_, err := os.Stat(filepath.Join(dir, "alice_expenses.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "bob_expenses.csv"))
	assert.True(t, os.IsNotExist(err), "other users must not be refreshed")
}

func TestHandleRecordEventWithoutUserRefreshesAll(t *testing.T) {
	w, dir := testWorker(t)

	event := amqp.NewRecordEvent("expense", "deleted", 1, 0)
	require.NoError(t, w.HandleRecordEvent(context.Background(), event))

	_, err := os.Stat(filepath.Join(dir, "alice_expenses.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "bob_expenses.csv"))
	assert.NoError(t, err)
}

func TestHandleRecordEventUnknownUserIsNoError(t *testing.T) {
	w, _ := testWorker(t)

	event := amqp.NewRecordEvent("expense", "created", 1, 99)
	assert.NoError(t, w.HandleRecordEvent(context.Background(), event))
}

func TestExportSnapshotsJoinsPerUserFailures(t *testing.T) {
	dir := t.TempDir()
	users := &fakeUsers{users: []core.User{{ID: 1, Username: "alice"}}}
	broken := &fakeRecords{kind: core.KindExpense, listErr: errors.New("store down")}
	incomes := &fakeRecords{kind: core.KindIncome, byUser: map[int64][]core.Record{}}

	w := NewExportWorker(users, broken, incomes, dir)
	err := w.ExportSnapshots(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}
