package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/export"
	"tally/internal/storage"
)

// ExportWorker mirrors expense changes into a spreadsheet. It consumes
// change events and, as a backup for lost messages, periodically re-exports
// records whose sync state is still pending.
type ExportWorker struct {
	storage   *storage.Repository
	rows      export.RowWriter
	batchSize int
}

func NewExportWorker(storage *storage.Repository, rows export.RowWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		rows:      rows,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single expense change event.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event", "id", event.ID, "action", event.Action)

	switch event.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		return w.exportExpense(ctx, event.ID)
	case amqp.ActionDeleted:
		if err := w.rows.RemoveExpense(ctx, event.ID); err != nil {
			return fmt.Errorf("remove expense row: %w", err)
		}
		return nil
	default:
		// Validate on the consume path should have caught this.
		return fmt.Errorf("unknown action %q", event.Action)
	}
}

// exportExpense replaces any existing row for the id with the current record
// state, then marks the record synced. A record deleted between event and
// processing is treated as done.
func (w *ExportWorker) exportExpense(ctx context.Context, id string) error {
	expense, err := w.storage.GetExpense(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "Expense gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense for export: %w", err)
	}

	if err := w.rows.RemoveExpense(ctx, id); err != nil {
		return fmt.Errorf("remove stale expense row: %w", err)
	}
	if err := w.rows.AppendExpense(ctx, expense); err != nil {
		return fmt.Errorf("append expense row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// ProcessPending re-exports up to one batch of records still marked pending.
// Failures mark the record errored and move on; errored records are left for
// operator attention.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, expense := range pending {
		if err := w.exportExpense(ctx, expense.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending expense",
				"id", expense.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, expense.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error",
					"id", expense.ID, "error", err)
			}
			continue
		}
	}

	return nil
}
