package core

import "sort"

// CategoryTotal is an amount aggregated over one category, with its share of
// the grand total in [0,1].
type CategoryTotal struct {
	Category string
	Amount   Money
	Share    float64
}

// Summary holds the aggregate view over a set of expenses.
type Summary struct {
	Total      Money
	ByCategory []CategoryTotal
}

// Summarize computes the grand total and per-category totals, sorted by
// descending amount (category name breaks ties for a stable order). With no
// expenses the total is zero and ByCategory is empty; shares are 0 when the
// grand total is 0.
func Summarize(expenses []Expense) Summary {
	var s Summary
	totals := make(map[string]int64)
	for _, e := range expenses {
		totals[e.Category] += e.Amount.Cents
		s.Total.Cents += e.Amount.Cents
	}

	for category, cents := range totals {
		ct := CategoryTotal{Category: category, Amount: Money{Cents: cents}}
		if s.Total.Cents > 0 {
			ct.Share = float64(cents) / float64(s.Total.Cents)
		}
		s.ByCategory = append(s.ByCategory, ct)
	}

	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Amount.Cents != s.ByCategory[j].Amount.Cents {
			return s.ByCategory[i].Amount.Cents > s.ByCategory[j].Amount.Cents
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})

	return s
}
