package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event actions carried on the expense event queue.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ExpenseEvent is a lightweight change notification. It carries only the id
// and action; the worker fetches the full record from the database, except
// for deletes where the record is already gone.
type ExpenseEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event for the given expense id and action.
func NewExpenseEvent(id, action string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the event carries a usable id and a known action.
func (e *ExpenseEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("expense event missing id")
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return nil
	default:
		return fmt.Errorf("unknown expense event action %q", e.Action)
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON creates an event from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
