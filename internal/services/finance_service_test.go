package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"moneybuddy/internal/amqp"
	"moneybuddy/internal/core"
	"moneybuddy/internal/goals"
	"moneybuddy/internal/importer"
	"moneybuddy/internal/ledger"
	"moneybuddy/internal/sheets/memory"
	"moneybuddy/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestService(t *testing.T, opts ...Option) (*FinanceService, *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	ids := core.NewIDGenerator(clock)

	l, err := ledger.New(ctx, storage.NewCollection[core.Transaction](store, storage.TransactionsKey),
		ledger.WithClock(clock), ledger.WithIDGenerator(ids))
	if err != nil {
		t.Fatal(err)
	}
	g, err := goals.New(ctx, storage.NewCollection[core.Goal](store, storage.GoalsKey), ids)
	if err != nil {
		t.Fatal(err)
	}
	return NewFinanceService(l, g, opts...), store
}

func TestFinanceService_PublishesAfterMutations(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, WithPublisher(pub))

	tx, err := svc.AddTransaction(ctx, "10", "Food", "expense")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ImportFile(ctx, "rows.csv", strings.NewReader("Amount,Category\n5,Bills\n7,Food\n")); err != nil {
		t.Fatal(err)
	}
	g, err := svc.AddGoal(ctx, core.GoalInput{Name: "Trip", TargetAmount: "500"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateGoalProgress(ctx, g.ID, "50"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatal(err)
	}

	want := []amqp.EventKind{
		amqp.TransactionAdded, amqp.TransactionDeleted, amqp.TransactionsImported,
		amqp.GoalAdded, amqp.GoalProgress, amqp.GoalDeleted,
	}
	got := pub.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if pub.events[2].Count != 2 {
		t.Errorf("import event count = %d, want 2", pub.events[2].Count)
	}
}

func TestFinanceService_NoEventsForNoOps(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, WithPublisher(pub))

	if _, err := svc.AddTransaction(ctx, "abc", "Food", "expense"); !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ok, _ := svc.DeleteTransaction(ctx, "missing"); ok {
		t.Fatal("unexpected delete")
	}
	if ok, _ := svc.UpdateGoalProgress(ctx, "missing", "10"); ok {
		t.Fatal("unexpected update")
	}
	if ok, _ := svc.DeleteGoal(ctx, "missing"); ok {
		t.Fatal("unexpected delete")
	}
	if n, err := svc.ImportFile(ctx, "empty.csv", strings.NewReader("Amount\n")); err != nil || n != 0 {
		t.Fatalf("empty import: n=%d err=%v", n, err)
	}
	if len(pub.kinds()) != 0 {
		t.Fatalf("no-ops must not publish, got %v", pub.kinds())
	}
}

func TestFinanceService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, WithPublisher(pub))

	if _, err := svc.AddTransaction(context.Background(), "10", "Food", ""); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	if len(svc.Transactions()) != 1 {
		t.Fatal("transaction must be saved")
	}
}

func TestFinanceService_ImportFileDecodeError(t *testing.T) {
	svc, store := newTestService(t, WithImportLimit(8))

	_, err := svc.ImportFile(context.Background(), "big.csv", strings.NewReader("Amount\n1\n2\n3\n4\n"))
	if !importer.IsDecodeError(err) || !errors.Is(err, importer.ErrTooLarge) {
		t.Fatalf("expected too large DecodeError, got %v", err)
	}
	if len(svc.Transactions()) != 0 || store.Writes() != 0 {
		t.Fatal("ledger must be untouched")
	}
}

func TestFinanceService_ImportSheet(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(t)
	if _, err := svc.ImportSheet(ctx); !errors.Is(err, ErrSheetNotConfigured) {
		t.Fatalf("expected ErrSheetNotConfigured, got %v", err)
	}
	if svc.SheetImportEnabled() {
		t.Fatal("sheet import should be disabled")
	}

	sheet := memory.New([][]any{
		{"Amount", "Category", "Type", "Date"},
		{100.0, "Food", "expense", "2024-01-01"},
	})
	svc, _ = newTestService(t, WithSheetImport(sheet))
	n, err := svc.ImportSheet(ctx)
	if err != nil || n != 1 {
		t.Fatalf("import sheet: n=%d err=%v", n, err)
	}
	if got := svc.Summary().TotalExpense.String(); got != "100" {
		t.Fatalf("total expense = %s", got)
	}

	sheet.FailWith(errors.New("forbidden"))
	if _, err := svc.ImportSheet(ctx); !importer.IsDecodeError(err) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if len(svc.Transactions()) != 1 {
		t.Fatal("failed sheet import changed the ledger")
	}
}

func TestFinanceService_GoalViews(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if _, err := svc.AddGoal(ctx, core.GoalInput{Name: "Fund", TargetAmount: "200", CurrentAmount: "50"}); err != nil {
		t.Fatal(err)
	}
	views := svc.GoalViews()
	if len(views) != 1 || views[0].Progress.Percent != 25 || views[0].Progress.Remaining.String() != "150" {
		t.Fatalf("unexpected views %+v", views)
	}
}
