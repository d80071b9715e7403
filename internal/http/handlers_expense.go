package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
	"tally/internal/service"
	"tally/internal/storage"
)

// expenseResponse is the record shape returned by the API. Amount is integer
// minor currency units; created_at is RFC3339.
type expenseResponse struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount.Cents,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
	}
}

type categoryTotalResponse struct {
	Category string  `json:"category"`
	Total    int64   `json:"total"`
	Share    float64 `json:"share"`
}

type summaryResponse struct {
	Total      int64                   `json:"total"`
	Categories []categoryTotalResponse `json:"categories"`
}

// decodeExpenseInput parses and sanitizes a create/update body.
func decodeExpenseInput(r *http.Request) (service.ExpenseInput, error) {
	var in service.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return service.ExpenseInput{}, err
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)
	in.Date = sanitizeInput(in.Date)
	return in, nil
}

// writeServiceError maps service failures onto the API error taxonomy:
// validation errors are 400 with the validation message, unknown ids are 404,
// everything else is a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrMissingDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "expense not found")
	default:
		slog.ErrorContext(r.Context(), "Store operation failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := decodeExpenseInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.expenses.CreateExpense(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "failed to create expense")
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"expense_id", expense.ID,
		"category", expense.Category,
		"amount_cents", expense.Amount.Cents,
		"operation", "create")

	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(r.URL.Query().Get("category"))
	newestFirst := r.URL.Query().Get("sort") == "date_desc"

	expenses, err := s.expenses.ListExpenses(r.Context(), category, newestFirst)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch expenses")
		return
	}

	// Always an array, never null.
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	in, err := decodeExpenseInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.expenses.UpdateExpense(r.Context(), id, in); err != nil {
		writeServiceError(w, r, err, "failed to update expense")
		return
	}

	slog.InfoContext(r.Context(), "Expense updated", "expense_id", id, "operation", "update")
	writeJSON(w, http.StatusOK, map[string]string{"message": "expense updated"})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "failed to delete expense")
		return
	}

	slog.InfoContext(r.Context(), "Expense deleted", "expense_id", id, "operation", "delete")
	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.expenses.Summarize(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to summarize expenses")
		return
	}

	out := summaryResponse{
		Total:      summary.Total.Cents,
		Categories: make([]categoryTotalResponse, 0, len(summary.ByCategory)),
	}
	for _, ct := range summary.ByCategory {
		out.Categories = append(out.Categories, categoryTotalResponse{
			Category: ct.Category,
			Total:    ct.Amount.Cents,
			Share:    ct.Share,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
