package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moneybuddy/internal/amqp"
	"moneybuddy/internal/core"
	"moneybuddy/internal/sheets"
	"moneybuddy/internal/storage"
)

// ExportWorker mirrors the stored ledger into the owner's spreadsheet.
// Events only say that something changed; the worker always rereads the
// whole collection from the shared store.
type ExportWorker struct {
	ledger   *storage.Collection[core.Transaction]
	exporter sheets.LedgerExporter

	mu   sync.Mutex
	last []byte
}

func NewExportWorker(ledger *storage.Collection[core.Transaction], exporter sheets.LedgerExporter) *ExportWorker {
	return &ExportWorker{ledger: ledger, exporter: exporter}
}

// HandleEvent processes a single ledger event from AMQP. Goal events are
// acknowledged without work since goals are not exported.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev.Subject != amqp.SubjectTransactions {
		slog.DebugContext(ctx, "Skipping non-ledger event", "kind", ev.Kind, "id", ev.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"kind", ev.Kind,
		"id", ev.ID,
		"count", ev.Count)

	if _, err := w.export(ctx, true); err != nil {
		return fmt.Errorf("export after %s: %w", ev.Kind, err)
	}
	return nil
}

// ExportIfChanged rewrites the sheet unless the ledger is identical to the
// last successful export. It reports whether an export happened.
// This is the backstop for lost messages.
func (w *ExportWorker) ExportIfChanged(ctx context.Context) (bool, error) {
	return w.export(ctx, false)
}

func (w *ExportWorker) export(ctx context.Context, force bool) (bool, error) {
	txs, err := w.ledger.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load ledger: %w", err)
	}
	fingerprint, err := json.Marshal(txs)
	if err != nil {
		return false, fmt.Errorf("fingerprint ledger: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !force && w.last != nil && bytes.Equal(fingerprint, w.last) {
		return false, nil
	}
	if err := w.exporter.ExportLedger(ctx, txs, core.Summarize(txs)); err != nil {
		return false, fmt.Errorf("export ledger: %w", err)
	}
	w.last = fingerprint

	slog.InfoContext(ctx, "Ledger exported", "transactions", len(txs))
	return true, nil
}

// Run exports once at startup and then every interval until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.ExportIfChanged(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ExportIfChanged(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
