package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps values in process memory. Writes counts Set calls so
// callers can assert that a no-op did not touch persistence.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// NewMemoryStoreFromFiles seeds the store from <base>/transactions.json
// and <base>/goals.json when present. Missing files are skipped.
func NewMemoryStoreFromFiles(base string) *MemoryStore {
	s := NewMemoryStore()
	seeds := map[string]string{
		TransactionsKey: "transactions.json",
		GoalsKey:        "goals.json",
	}
	for key, name := range seeds {
		raw, err := os.ReadFile(filepath.Join(base, name))
		if err != nil || len(raw) == 0 {
			continue
		}
		s.values[key] = raw
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Writes returns the number of Set calls so far.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
