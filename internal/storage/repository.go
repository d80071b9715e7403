package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no expense has the requested id.
	ErrNotFound = errors.New("expense not found")
	// ErrConflict is returned when an insert collides on id. Ids are generated
	// fresh per create, so this is not expected in normal operation.
	ErrConflict = errors.New("expense id already exists")
)

// Sync states tracked for the spreadsheet export worker. The API never
// exposes them.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// ListFilter narrows and orders ListExpenses results.
type ListFilter struct {
	// Category restricts results to an exact, case-sensitive match when
	// non-empty.
	Category string
	// CreatedAtDesc orders by creation time, most recent first. Without it
	// results come back in storage order.
	CreatedAtDesc bool
}

// Repository is the durable expense store. Every call goes straight to
// SQLite; there is no cache in front, so reads always see the latest
// committed write.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense adds a new record. The record must already be validated.
func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount_cents, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.Cents, e.Category, e.Description, e.Date, e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "constraint") {
			return fmt.Errorf("insert expense %s: %w", e.ID, ErrConflict)
		}
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)

	return nil
}

// ListExpenses returns all records matching the filter.
func (r *Repository) ListExpenses(ctx context.Context, filter ListFilter) ([]core.Expense, error) {
	query := `SELECT id, amount_cents, category, description, date, created_at FROM expenses`
	var args []any

	if filter.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, filter.Category)
	}
	if filter.CreatedAtDesc {
		// created_at is RFC3339 UTC, so lexicographic order is chronological.
		query += ` ORDER BY created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &e.Category, &e.Description, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// GetExpense retrieves a single record by id.
func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var e core.Expense
	err := r.db.QueryRowContext(ctx, `
		SELECT id, amount_cents, category, description, date, created_at
		FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Amount.Cents, &e.Category, &e.Description, &e.Date, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense replaces the four editable fields of an existing record and
// returns the affected count (0 or 1). Id and created_at are never touched.
// The record is marked pending again so the export worker picks up the change.
func (r *Repository) UpdateExpense(ctx context.Context, id string, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, category = ?, description = ?, date = ?, sync_status = ?, synced_at = NULL
		WHERE id = ?`,
		e.Amount.Cents, e.Category, e.Description, e.Date, SyncPending, id)
	if err != nil {
		return 0, fmt.Errorf("update expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("update expense %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense updated", "id", id, "amount_cents", e.Amount.Cents)
	return affected, nil
}

// DeleteExpense removes a record permanently and returns the affected count.
func (r *Repository) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expense rows affected: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("delete expense %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return affected, nil
}

// GetPendingSyncExpenses returns up to limit records still waiting for
// spreadsheet export, oldest first.
func (r *Repository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, category, description, date, created_at
		FROM expenses
		WHERE sync_status = ?
		ORDER BY created_at ASC
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &e.Category, &e.Description, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}

	return expenses, nil
}

// MarkSynced records a successful spreadsheet export.
func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_status = ?, synced_at = ? WHERE id = ?`,
		SyncDone, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed spreadsheet export. The reconciler does not
// retry errored records automatically.
func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}

	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}
