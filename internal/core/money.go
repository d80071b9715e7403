// Package core holds the expense domain types and the money/aggregation rules.
//
// This file contains amount parsing for the API boundary. The API speaks
// integer minor currency units only; decimal currency values are rejected so
// the unit convention stays unambiguous end to end.
package core

import (
	"strconv"
	"strings"
)

// ParseMinorUnits converts a raw amount value into minor currency units.
//
// It accepts the decimal text of an integer ("500", " 500 "). Fractional
// values, non-numeric input, zero and negatives all fail with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseMinorUnits("500")  -> Money{Cents: 500}, nil
//	ParseMinorUnits("12.5") -> Money{}, ErrInvalidAmount
//	ParseMinorUnits("0")    -> Money{}, ErrInvalidAmount
func ParseMinorUnits(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}
