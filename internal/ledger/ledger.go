// Package ledger holds the ordered list of income and expense
// transactions and keeps it mirrored in persistence.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moneybuddy/internal/core"
	"moneybuddy/internal/importer"
	"moneybuddy/internal/storage"
)

// Ledger is safe for concurrent use. Every mutation writes the whole
// collection before it becomes visible to readers.
type Ledger struct {
	mu   sync.RWMutex
	txs  []core.Transaction
	col  *storage.Collection[core.Transaction]
	now  core.Clock
	ids  *core.IDGenerator
	norm *importer.Normalizer
}

type Option func(*Ledger)

// WithClock pins "today" for new transactions and import defaults.
func WithClock(now core.Clock) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator shares an id generator with other components.
func WithIDGenerator(ids *core.IDGenerator) Option {
	return func(l *Ledger) { l.ids = ids }
}

// New loads the stored transactions. A corrupt collection is an error;
// the ledger never starts over data it could not read.
func New(ctx context.Context, col *storage.Collection[core.Transaction], opts ...Option) (*Ledger, error) {
	l := &Ledger{col: col, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if l.ids == nil {
		l.ids = core.NewIDGenerator(l.now)
	}
	l.norm = importer.NewNormalizer(l.now, l.ids)

	txs, err := col.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.txs = txs
	return l, nil
}

// Add validates raw form input and prepends the new transaction.
func (l *Ledger) Add(ctx context.Context, amount, category, typ string) (core.Transaction, error) {
	tx, err := core.NewTransaction(l.ids.NewID(), amount, category, typ, core.DateOf(l.now()))
	if err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]core.Transaction, 0, len(l.txs)+1)
	next = append(next, tx)
	next = append(next, l.txs...)
	if err := l.commit(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// ImportMerge normalizes rows and prepends them as one block in row
// order. It returns how many transactions were imported.
func (l *Ledger) ImportMerge(ctx context.Context, rows []importer.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	batch := l.norm.Normalize(rows)

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]core.Transaction, 0, len(batch)+len(l.txs))
	next = append(next, batch...)
	next = append(next, l.txs...)
	if err := l.commit(ctx, next); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// Delete removes the transaction with id. An unknown id returns false
// without touching persistence.
func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, tx := range l.txs {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := make([]core.Transaction, 0, len(l.txs)-1)
	next = append(next, l.txs[:idx]...)
	next = append(next, l.txs[idx+1:]...)
	if err := l.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Aggregates recomputes totals from the current transactions.
func (l *Ledger) Aggregates() core.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return core.Summarize(l.txs)
}

// Transactions returns a copy, newest first.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Transaction(nil), l.txs...)
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// commit must be called with mu held.
func (l *Ledger) commit(ctx context.Context, next []core.Transaction) error {
	if err := l.col.Save(ctx, next); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	l.txs = next
	return nil
}
