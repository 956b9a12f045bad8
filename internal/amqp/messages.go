package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names what changed in the ledger or goal list.
type EventKind string

const (
	TransactionAdded     EventKind = "transaction.added"
	TransactionsImported EventKind = "transactions.imported"
	TransactionDeleted   EventKind = "transaction.deleted"
	GoalAdded            EventKind = "goal.added"
	GoalProgress         EventKind = "goal.progress"
	GoalDeleted          EventKind = "goal.deleted"
)

// Subjects carried by events.
const (
	SubjectTransactions = "transactions"
	SubjectGoals        = "goals"
)

// LedgerEvent is a lightweight change notification. It carries no record
// data; consumers reload the collection from the shared store.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	Subject   string    `json:"subject"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event with the current time. Subject is
// derived from the kind.
func NewLedgerEvent(kind EventKind, id string, count int) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		Subject:   kind.Subject(),
		ID:        id,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// Subject returns the collection a kind refers to, or "" if unknown.
func (k EventKind) Subject() string {
	switch k {
	case TransactionAdded, TransactionsImported, TransactionDeleted:
		return SubjectTransactions
	case GoalAdded, GoalProgress, GoalDeleted:
		return SubjectGoals
	default:
		return ""
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown kinds.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Kind.Subject() == "" {
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.Subject == "" {
		ev.Subject = ev.Kind.Subject()
	}
	return &ev, nil
}
