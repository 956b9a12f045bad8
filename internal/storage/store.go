// Package storage mirrors the ledger and goal collections into a
// key-value backend. Stores own no data; they hold the serialized form
// of whatever the ledger and tracker last committed.
package storage

import (
	"context"
	"errors"
)

// Keys for the two persisted collections.
const (
	TransactionsKey = "moneybuddy-transactions"
	GoalsKey        = "moneybuddy-goals"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("stored collection is not valid JSON")
)

// Store is the key-value persistence port. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
