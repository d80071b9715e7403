package core

import "testing"

func TestSummarize(t *testing.T) {
	expenses := []Expense{
		{Amount: Money{Cents: 500}, Category: "A"},
		{Amount: Money{Cents: 300}, Category: "A"},
		{Amount: Money{Cents: 200}, Category: "B"},
	}

	s := Summarize(expenses)

	if s.Total.Cents != 1000 {
		t.Fatalf("expected total 1000, got %d", s.Total.Cents)
	}
	if len(s.ByCategory) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(s.ByCategory))
	}
	if s.ByCategory[0].Category != "A" || s.ByCategory[0].Amount.Cents != 800 {
		t.Fatalf("expected A=800 first, got %s=%d", s.ByCategory[0].Category, s.ByCategory[0].Amount.Cents)
	}
	if s.ByCategory[0].Share != 0.8 {
		t.Fatalf("expected share 0.8 for A, got %v", s.ByCategory[0].Share)
	}
	if s.ByCategory[1].Category != "B" || s.ByCategory[1].Amount.Cents != 200 {
		t.Fatalf("expected B=200 second, got %s=%d", s.ByCategory[1].Category, s.ByCategory[1].Amount.Cents)
	}
	if s.ByCategory[1].Share != 0.2 {
		t.Fatalf("expected share 0.2 for B, got %v", s.ByCategory[1].Share)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total.Cents != 0 {
		t.Fatalf("expected zero total, got %d", s.Total.Cents)
	}
	if len(s.ByCategory) != 0 {
		t.Fatalf("expected no categories, got %d", len(s.ByCategory))
	}
}

func TestSummarizeTieBreaksByName(t *testing.T) {
	s := Summarize([]Expense{
		{Amount: Money{Cents: 100}, Category: "B"},
		{Amount: Money{Cents: 100}, Category: "A"},
	})
	if s.ByCategory[0].Category != "A" {
		t.Fatalf("expected A first on tie, got %s", s.ByCategory[0].Category)
	}
}
