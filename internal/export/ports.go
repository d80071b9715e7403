// Package export defines the outbound port for mirroring expenses into an
// external spreadsheet.
package export

import (
	"context"

	"tally/internal/core"
)

// RowWriter mirrors expense records as spreadsheet rows, keyed by expense id.
type RowWriter interface {
	// AppendExpense adds a row for the expense.
	AppendExpense(ctx context.Context, e core.Expense) error
	// RemoveExpense deletes the row carrying the given expense id. Removing
	// an id with no row is not an error.
	RemoveExpense(ctx context.Context, id string) error
}
