package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"moneybuddy/internal/core"
)

func sampleTransactions() []core.Transaction {
	a, _ := core.ParseAmount("100")
	b, _ := core.ParseAmount("12.75")
	return []core.Transaction{
		{ID: "2", Amount: a, Category: "Salary", Type: core.Income, Date: core.NewDate(2024, 2, 1)},
		{ID: "1", Amount: b, Category: "Food", Type: core.Expense, Date: core.NewDate(2024, 1, 1)},
	}
}

func sampleGoals() []core.Goal {
	d := core.NewDate(2026, 6, 30)
	return []core.Goal{
		{ID: "10", Name: "Emergency Fund", TargetAmount: core.AmountFromInt(10000), CurrentAmount: core.AmountFromInt(2500)},
		{ID: "11", Name: "Vacation Fund", TargetAmount: core.AmountFromInt(5000), Deadline: &d},
	}
}

func assertRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	txs := NewCollection[core.Transaction](store, TransactionsKey)
	if got, err := txs.Load(ctx); err != nil || len(got) != 0 {
		t.Fatalf("empty load: got %v err=%v", got, err)
	}
	want := sampleTransactions()
	if err := txs.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := txs.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !got[i].Amount.Equal(want[i].Amount) ||
			got[i].Category != want[i].Category || got[i].Type != want[i].Type || got[i].Date != want[i].Date {
			t.Fatalf("row %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	goals := NewCollection[core.Goal](store, GoalsKey)
	wantGoals := sampleGoals()
	if err := goals.Save(ctx, wantGoals); err != nil {
		t.Fatalf("save goals: %v", err)
	}
	gotGoals, err := goals.Load(ctx)
	if err != nil {
		t.Fatalf("load goals: %v", err)
	}
	if len(gotGoals) != 2 || gotGoals[0].Deadline != nil || gotGoals[1].Deadline == nil ||
		*gotGoals[1].Deadline != *wantGoals[1].Deadline || !gotGoals[0].CurrentAmount.Equal(wantGoals[0].CurrentAmount) {
		t.Fatalf("goals round trip mismatch: %+v", gotGoals)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	assertRoundTrip(t, NewMemoryStore())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "moneybuddy.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	assertRoundTrip(t, store)

	// Overwrite keeps a single row per key.
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := store.Get(ctx, "k")
	if err != nil || string(v) != "two" {
		t.Fatalf("got %q err=%v", v, err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	store, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: "moneybuddy-test:" + t.Name() + ":"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()
	assertRoundTrip(t, store)
}

func TestCollectionCorrupt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, TransactionsKey, []byte("{not json"))
	_, err := NewCollection[core.Transaction](store, TransactionsKey).Load(ctx)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestCollectionSaveNilWritesEmptyArray(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := NewCollection[core.Goal](store, GoalsKey).Save(ctx, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _ := store.Get(ctx, GoalsKey)
	if string(raw) != "[]" {
		t.Fatalf("got %s", raw)
	}
}

func TestMemoryStoreFromFiles(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"id":"1","amount":5,"category":"Food","type":"expense","date":"2024-01-01"}]`
	if err := os.WriteFile(filepath.Join(dir, "transactions.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewMemoryStoreFromFiles(dir)
	got, err := NewCollection[core.Transaction](store, TransactionsKey).Load(context.Background())
	if err != nil || len(got) != 1 || got[0].Amount.String() != "5" {
		t.Fatalf("seeded load: %+v err=%v", got, err)
	}
	goals, err := NewCollection[core.Goal](store, GoalsKey).Load(context.Background())
	if err != nil || !reflect.DeepEqual(goals, []core.Goal{}) {
		t.Fatalf("missing seed should load empty: %+v err=%v", goals, err)
	}
	if store.Writes() != 0 {
		t.Fatalf("seeding must not count as writes")
	}
}
