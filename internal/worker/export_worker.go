package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/export"
)

// SyncStore is the slice of the repository the worker needs: loading rows to
// export and tracking their sync status.
type SyncStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// ExportWorker moves transactions from the database to the export target.
// Events carry only the transaction ID; the worker always loads the row
// fresh so edits made after publishing still export correctly.
type ExportWorker struct {
	store     SyncStore
	appender  export.RowAppender
	deleter   export.RowDeleter
	batchSize int
}

func NewExportWorker(store SyncStore, appender export.RowAppender, deleter export.RowDeleter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		store:     store,
		appender:  appender,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleEvent dispatches one queue event. Returned errors requeue the
// delivery, so permanent conditions must be swallowed here.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	switch event.Action {
	case amqp.ActionSync:
		return w.syncTransaction(ctx, event.ID)
	case amqp.ActionDelete:
		return w.deleteTransaction(ctx, event.ID)
	default:
		// Validate catches this at decode time, but don't requeue if a
		// stray action slips through.
		slog.WarnContext(ctx, "Ignoring event with unknown action", "action", event.Action, "id", event.ID)
		return nil
	}
}

func (w *ExportWorker) syncTransaction(ctx context.Context, id int64) error {
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and delivery. The delete event will
		// clean up the sheet.
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", id, err)
	}

	ref, err := w.appender.AppendTransaction(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append transaction %d: %w", id, err)
	}

	if err := w.store.MarkSynced(ctx, id); err != nil {
		// The row is on the sheet; a failed status update is not worth a
		// duplicate export via requeue.
		slog.ErrorContext(ctx, "Failed to mark transaction synced", "id", id, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"row_ref", ref,
		"amount_yen", t.Amount.Yen,
		"type", t.Type)
	return nil
}

func (w *ExportWorker) deleteTransaction(ctx context.Context, id int64) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No row deleter configured, skipping delete", "id", id)
		return nil
	}
	if err := w.deleter.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete exported row %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Deleted exported row", "id", id)
	return nil
}

// SweepPending exports transactions still marked pending. This is the safety
// net for publish failures and lost messages; it runs once at startup and
// then on every interval tick via RunPeriodicSweep.
func (w *ExportWorker) SweepPending(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping pending transactions", "count", len(pending))

	synced := 0
	failed := 0
	for _, t := range pending {
		if err := w.syncTransaction(ctx, t.ID); err != nil {
			slog.ErrorContext(ctx, "Pending sweep export failed", "id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sweep finished",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

// RunPeriodicSweep re-runs SweepPending every interval until ctx is
// cancelled.
func (w *ExportWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SweepPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}
