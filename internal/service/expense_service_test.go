package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

type recordingPublisher struct {
	events []string
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(ctx context.Context, id, action string) error {
	p.events = append(p.events, action+":"+id)
	return p.err
}

func newTestService(t *testing.T, events EventPublisher) *ExpenseService {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	svc := NewExpenseService(repo, events)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func validInput() ExpenseInput {
	return ExpenseInput{
		Amount:      "500",
		Category:    "Food",
		Description: "lunch",
		Date:        "2026-08-01",
	}
}

func TestCreateExpense(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	in := validInput()
	in.Category = "  Food "
	in.Description = " lunch  "

	got, err := svc.CreateExpense(ctx, in)
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected generated id")
	}
	if got.Amount.Cents != 500 {
		t.Fatalf("expected amount 500, got %d", got.Amount.Cents)
	}
	if got.Category != "Food" || got.Description != "lunch" {
		t.Fatalf("expected trimmed fields, got %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.CreatedAt); err != nil {
		t.Fatalf("created_at not RFC3339: %q", got.CreatedAt)
	}

	listed, err := svc.ListExpenses(ctx, "", false)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(listed) != 1 || listed[0] != got {
		t.Fatalf("expected exactly the created record, got %+v", listed)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*ExpenseInput)
		want   error
	}{
		{"missing amount", func(in *ExpenseInput) { in.Amount = "" }, core.ErrInvalidAmount},
		{"zero amount", func(in *ExpenseInput) { in.Amount = "0" }, core.ErrInvalidAmount},
		{"negative amount", func(in *ExpenseInput) { in.Amount = "-10" }, core.ErrInvalidAmount},
		{"non-numeric amount", func(in *ExpenseInput) { in.Amount = "abc" }, core.ErrInvalidAmount},
		{"fractional amount", func(in *ExpenseInput) { in.Amount = "12.5" }, core.ErrInvalidAmount},
		{"missing category", func(in *ExpenseInput) { in.Category = "" }, core.ErrMissingCategory},
		{"blank category", func(in *ExpenseInput) { in.Category = "   " }, core.ErrMissingCategory},
		{"missing date", func(in *ExpenseInput) { in.Date = "" }, core.ErrMissingDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.CreateExpense(ctx, in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Rejected creates must leave no record behind.
	listed, err := svc.ListExpenses(ctx, "", false)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("invalid creates persisted %d records", len(listed))
	}
}

func TestCreateExpenseUniqueIDs(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		got, err := svc.CreateExpense(ctx, validInput())
		if err != nil {
			t.Fatalf("CreateExpense %d: %v", i, err)
		}
		if seen[got.ID] {
			t.Fatalf("duplicate id %s", got.ID)
		}
		seen[got.ID] = true
	}
}

func TestListExpensesFilterAndSort(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for i, category := range []string{"Food", "Travel", "Food"} {
		in := validInput()
		in.Category = category
		in.Description = fmt.Sprintf("item %d", i)
		if _, err := svc.CreateExpense(ctx, in); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	food, err := svc.ListExpenses(ctx, "Food", false)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(food) != 2 {
		t.Fatalf("expected 2 Food records, got %d", len(food))
	}

	ordered, err := svc.ListExpenses(ctx, "", true)
	if err != nil {
		t.Fatalf("ListExpenses sorted: %v", err)
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].CreatedAt < ordered[i].CreatedAt {
			t.Fatalf("expected newest first ordering")
		}
	}
}

func TestUpdateExpense(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	update := ExpenseInput{Amount: "900", Category: "Travel", Description: "train", Date: "2026-08-02"}
	if err := svc.UpdateExpense(ctx, created.ID, update); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	listed, err := svc.ListExpenses(ctx, "", false)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	got := listed[0]
	if got.Amount.Cents != 900 || got.Category != "Travel" || got.Description != "train" || got.Date != "2026-08-02" {
		t.Fatalf("update did not apply: %+v", got)
	}
	if got.ID != created.ID || got.CreatedAt != created.CreatedAt {
		t.Fatalf("update touched id/created_at: %+v", got)
	}

	if err := svc.UpdateExpense(ctx, "missing", update); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.UpdateExpense(ctx, created.ID, ExpenseInput{Amount: "0", Category: "X", Date: "2026-08-02"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected validation error on update, got %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	listed, err := svc.ListExpenses(ctx, "", false)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("deleted record still listed")
	}
	if err := svc.DeleteExpense(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	empty, err := svc.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize empty: %v", err)
	}
	if empty.Total.Cents != 0 || len(empty.ByCategory) != 0 {
		t.Fatalf("expected empty summary, got %+v", empty)
	}

	seed := []struct {
		amount   string
		category string
	}{
		{"500", "A"}, {"300", "A"}, {"200", "B"},
	}
	for _, s := range seed {
		in := validInput()
		in.Amount = RawAmount(s.amount)
		in.Category = s.category
		if _, err := svc.CreateExpense(ctx, in); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	summary, err := svc.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Total.Cents != 1000 {
		t.Fatalf("expected total 1000, got %d", summary.Total.Cents)
	}
	if summary.ByCategory[0].Category != "A" || summary.ByCategory[0].Share != 0.8 {
		t.Fatalf("expected A at 80%%, got %+v", summary.ByCategory[0])
	}
}

func TestEventPublishing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if err := svc.UpdateExpense(ctx, created.ID, validInput()); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}

	want := []string{
		"created:" + created.ID,
		"updated:" + created.ID,
		"deleted:" + created.ID,
	}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), pub.events)
	}
	for i, e := range want {
		if pub.events[i] != e {
			t.Fatalf("expected event %q at %d, got %q", e, i, pub.events[i])
		}
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)

	if _, err := svc.CreateExpense(context.Background(), validInput()); err != nil {
		t.Fatalf("create must succeed despite publish failure, got %v", err)
	}
}

func TestRawAmountUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want RawAmount
	}{
		{`{"amount": 500}`, "500"},
		{`{"amount": "500"}`, "500"},
		{`{"amount": null}`, "null"},
		{`{}`, ""},
	}
	for _, tc := range cases {
		var in ExpenseInput
		if err := json.Unmarshal([]byte(tc.in), &in); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if in.Amount != tc.want {
			t.Fatalf("%s: expected amount %q, got %q", tc.in, tc.want, in.Amount)
		}
	}
}
