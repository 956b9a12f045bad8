package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneybuddy/internal/amqp"
	"moneybuddy/internal/core"
	"moneybuddy/internal/sheets/memory"
	"moneybuddy/internal/storage"
)

func setup(t *testing.T) (*ExportWorker, *storage.Collection[core.Transaction], *memory.Sheet) {
	t.Helper()
	col := storage.NewCollection[core.Transaction](storage.NewMemoryStore(), storage.TransactionsKey)
	sheet := memory.New(nil)
	return NewExportWorker(col, sheet), col, sheet
}

func saveLedger(t *testing.T, col *storage.Collection[core.Transaction], txs ...core.Transaction) {
	t.Helper()
	if err := col.Save(context.Background(), txs); err != nil {
		t.Fatal(err)
	}
}

func TestHandleEventExportsLedger(t *testing.T) {
	w, col, sheet := setup(t)
	saveLedger(t, col, core.Transaction{
		ID: "1", Amount: core.AmountFromInt(25), Category: "Food", Type: core.Expense, Date: core.NewDate(2024, 2, 1),
	})

	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionAdded, "1", 0)); err != nil {
		t.Fatal(err)
	}
	if sheet.Exports() != 1 {
		t.Fatalf("exports = %d, want 1", sheet.Exports())
	}
	rows := sheet.Exported()
	if rows[1][4] != "1" {
		t.Fatalf("unexpected exported row %v", rows[1])
	}
}

func TestHandleEventSkipsGoals(t *testing.T) {
	w, _, sheet := setup(t)
	for _, kind := range []amqp.EventKind{amqp.GoalAdded, amqp.GoalProgress, amqp.GoalDeleted} {
		if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(kind, "g", 0)); err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
	}
	if sheet.Exports() != 0 {
		t.Fatalf("goal events must not export, got %d", sheet.Exports())
	}
}

func TestHandleEventPropagatesExportError(t *testing.T) {
	w, _, sheet := setup(t)
	sheet.FailWith(errors.New("quota"))
	err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionDeleted, "1", 0))
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestExportIfChanged(t *testing.T) {
	ctx := context.Background()
	w, col, sheet := setup(t)

	exported, err := w.ExportIfChanged(ctx)
	if err != nil || !exported {
		t.Fatalf("first export: exported=%v err=%v", exported, err)
	}
	exported, err = w.ExportIfChanged(ctx)
	if err != nil || exported {
		t.Fatalf("unchanged ledger must be skipped: exported=%v err=%v", exported, err)
	}

	saveLedger(t, col, core.Transaction{ID: "2", Amount: core.AmountFromInt(5), Category: "Bills", Type: core.Expense, Date: core.NewDate(2024, 3, 1)})
	exported, err = w.ExportIfChanged(ctx)
	if err != nil || !exported {
		t.Fatalf("changed ledger must export: exported=%v err=%v", exported, err)
	}
	if sheet.Exports() != 2 {
		t.Fatalf("exports = %d, want 2", sheet.Exports())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, _, sheet := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond) }()

	deadline := time.Now().Add(time.Second)
	for sheet.Exports() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if sheet.Exports() != 1 {
		t.Fatalf("startup export expected once, got %d", sheet.Exports())
	}
}
