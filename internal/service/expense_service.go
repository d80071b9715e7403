// Package service holds the business rules of the expense tracker: input
// validation, id and timestamp assignment, and the aggregation contract.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// EventPublisher notifies downstream consumers of expense changes. Publishing
// is best-effort: a failure is logged, never surfaced to the API caller.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, id, action string) error
}

// RawAmount is an amount as it arrives on the wire. It decodes from a JSON
// number or a numeric string without judging validity; ParseMinorUnits does
// that during validation, so a bad amount surfaces as ErrInvalidAmount
// instead of a generic body parse failure.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	*a = RawAmount(s)
	return nil
}

// ExpenseInput carries the four editable fields of a create or update
// request. Amount must resolve to a positive integer in minor currency
// units.
type ExpenseInput struct {
	Amount      RawAmount `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
}

// ExpenseService validates requests and orchestrates the store and the
// optional event stream.
type ExpenseService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewExpenseService(storage *storage.Repository, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		storage: storage,
		events:  events,
	}
}

// validate builds a normalized expense from raw input, without id or
// created_at. All validation failures map to the core sentinel errors.
func (s *ExpenseService) validate(in ExpenseInput) (core.Expense, error) {
	amount, err := core.ParseMinorUnits(string(in.Amount))
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Amount:      amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
	}
	e.Normalize()

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// CreateExpense validates the input, assigns a fresh id and creation
// timestamp, persists the record and returns it.
func (s *ExpenseService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	e, err := s.validate(in)
	if err != nil {
		return core.Expense{}, err
	}

	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.storage.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publishEvent(ctx, e.ID, amqp.ActionCreated)
	return e, nil
}

// ListExpenses returns expenses, optionally restricted to an exact category
// and ordered by creation time, most recent first.
func (s *ExpenseService) ListExpenses(ctx context.Context, category string, newestFirst bool) ([]core.Expense, error) {
	expenses, err := s.storage.ListExpenses(ctx, storage.ListFilter{
		Category:      category,
		CreatedAtDesc: newestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense re-validates the editable fields with the create rules and
// replaces them on the stored record. Id and created_at never change.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, in ExpenseInput) error {
	e, err := s.validate(in)
	if err != nil {
		return err
	}

	if _, err := s.storage.UpdateExpense(ctx, id, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.publishEvent(ctx, id, amqp.ActionUpdated)
	return nil
}

// DeleteExpense removes the record permanently.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if _, err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publishEvent(ctx, id, amqp.ActionDeleted)
	return nil
}

// Summarize aggregates the full expense set into a grand total and
// per-category totals with shares.
func (s *ExpenseService) Summarize(ctx context.Context) (core.Summary, error) {
	expenses, err := s.storage.ListExpenses(ctx, storage.ListFilter{})
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return core.Summarize(expenses), nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, id, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, id, action); err != nil {
		// The record is already committed; the reconciler covers lost events.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"error", err, "expense_id", id, "action", action)
	}
}

// Close closes the underlying store.
func (s *ExpenseService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
