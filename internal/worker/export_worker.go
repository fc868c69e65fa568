package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/report"
)

// RecordLister is the slice of the record store the export worker reads from.
type RecordLister interface {
	Kind() core.Kind
	ListByUser(ctx context.Context, userID int64) ([]core.Record, error)
}

// UserLister enumerates the users whose data gets exported.
type UserLister interface {
	List(ctx context.Context) ([]core.User, error)
}

// ExportWorker writes per-user CSV and JSON snapshots plus pretty-printed
// reports into the export directory. It serves both the periodic jobs and the
// event-driven refresh path.
type ExportWorker struct {
	users    UserLister
	expenses RecordLister
	incomes  RecordLister
	dir      string
}

func NewExportWorker(users UserLister, expenses, incomes RecordLister, dir string) *ExportWorker {
	return &ExportWorker{
		users:    users,
		expenses: expenses,
		incomes:  incomes,
		dir:      dir,
	}
}

// ExportSnapshots writes CSV and JSON exports for every user. One user's
// failure does not stop the others; all failures are joined into the returned
// error.
func (w *ExportWorker) ExportSnapshots(ctx context.Context) error {
	users, err := w.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, u := range users {
		if err := w.exportUser(ctx, u); err != nil {
			slog.ErrorContext(ctx, "snapshot export failed", "user", u.Username, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GenerateReports writes one pretty-printed report per user, incomes and
// expenses combined.
func (w *ExportWorker) GenerateReports(ctx context.Context) error {
	users, err := w.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, u := range users {
		if err := w.reportUser(ctx, u); err != nil {
			slog.ErrorContext(ctx, "report generation failed", "user", u.Username, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleRecordEvent refreshes the snapshot of the user named in the event.
// Events without a user (deletes) refresh everyone.
func (w *ExportWorker) HandleRecordEvent(ctx context.Context, event *amqp.RecordEvent) error {
	if event.UserID == 0 {
		return w.ExportSnapshots(ctx)
	}

	users, err := w.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.ID == event.UserID {
			return w.exportUser(ctx, u)
		}
	}

	slog.WarnContext(ctx, "event names unknown user, skipping refresh",
		"user_id", event.UserID,
		"kind", event.Kind,
		"action", event.Action)
	return nil
}

func (w *ExportWorker) exportUser(ctx context.Context, u core.User) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	for _, lister := range []RecordLister{w.expenses, w.incomes} {
		records, err := lister.ListByUser(ctx, u.ID)
		if err != nil {
			return err
		}

		base := fmt.Sprintf("%s_%ss", u.Username, lister.Kind())
		if err := writeFile(filepath.Join(w.dir, base+".csv"), func(f *os.File) error {
			return report.WriteCSV(f, records)
		}); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(w.dir, base+".json"), func(f *os.File) error {
			return report.WriteJSON(f, records)
		}); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "snapshot exported", "user", u.Username, "dir", w.dir)
	return nil
}

func (w *ExportWorker) reportUser(ctx context.Context, u core.User) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	expenses, err := w.expenses.ListByUser(ctx, u.ID)
	if err != nil {
		return err
	}
	incomes, err := w.incomes.ListByUser(ctx, u.ID)
	if err != nil {
		return err
	}

	out, err := report.Format(expenses, incomes)
	if err != nil {
		return fmt.Errorf("format report: %w", err)
	}

	path := filepath.Join(w.dir, u.Username+"_report.json")
	if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "report generated", "user", u.Username, "path", path)
	return nil
}

// writeFile writes through a temp file and renames it into place so a reader
// never sees a half-written export.
func writeFile(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write export %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("finalize export %s: %w", filepath.Base(path), err)
	}
	return nil
}
