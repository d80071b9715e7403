package core

import (
	"errors"
	"strings"
)

type (
	Money struct {
		Cents int64
	}

	// Expense is the only persisted entity. Amount is always integer minor
	// currency units; Date is a client-supplied calendar string kept opaque
	// beyond a presence check.
	Expense struct {
		ID          string
		Amount      Money
		Category    string
		Description string
		Date        string
		CreatedAt   string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingCategory = errors.New("missing category")
	ErrMissingDate     = errors.New("missing date")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize trims the mutable text fields in place.
func (e *Expense) Normalize() {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(e.Date) == "" {
		return ErrMissingDate
	}
	return nil
}
