package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"moneybuddy/internal/amqp"
	"moneybuddy/internal/core"
	"moneybuddy/internal/goals"
	"moneybuddy/internal/importer"
	"moneybuddy/internal/ledger"
	"moneybuddy/internal/sheets"
)

// ErrSheetNotConfigured is returned by ImportSheet without a RowReader.
var ErrSheetNotConfigured = errors.New("google sheet import is not configured")

// Publisher receives change notifications after a mutation is persisted.
type Publisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// GoalView pairs a goal with its derived progress for rendering.
type GoalView struct {
	core.Goal
	Progress core.Progress `json:"progress"`
}

// FinanceService orchestrates ledger and goal operations. Changes are
// saved locally first; events are published afterwards and a publish
// failure never fails the request.
type FinanceService struct {
	ledger         *ledger.Ledger
	goals          *goals.Tracker
	publisher      Publisher
	sheet          sheets.RowReader
	importMaxBytes int64
}

type Option func(*FinanceService)

// WithPublisher enables change events.
func WithPublisher(p Publisher) Option {
	return func(s *FinanceService) { s.publisher = p }
}

// WithSheetImport enables ImportSheet.
func WithSheetImport(r sheets.RowReader) Option {
	return func(s *FinanceService) { s.sheet = r }
}

// WithImportLimit caps uploaded files. Zero disables the cap.
func WithImportLimit(maxBytes int64) Option {
	return func(s *FinanceService) { s.importMaxBytes = maxBytes }
}

func NewFinanceService(l *ledger.Ledger, g *goals.Tracker, opts ...Option) *FinanceService {
	s := &FinanceService{ledger: l, goals: g}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTransaction validates and records a manual entry.
func (s *FinanceService) AddTransaction(ctx context.Context, amount, category, typ string) (core.Transaction, error) {
	tx, err := s.ledger.Add(ctx, amount, category, typ)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionAdded, tx.ID, 1))
	return tx, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	deleted, err := s.ledger.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionDeleted, id, 1))
	return true, nil
}

// ImportFile decodes an uploaded spreadsheet and merges its rows. On a
// DecodeError nothing is imported.
func (s *FinanceService) ImportFile(ctx context.Context, name string, r io.Reader) (int, error) {
	rows, err := importer.DecodeFile(name, r, s.importMaxBytes)
	if err != nil {
		return 0, err
	}
	return s.importRows(ctx, rows, name)
}

// ImportSheet merges the rows of the configured Google Sheet range.
func (s *FinanceService) ImportSheet(ctx context.Context) (int, error) {
	if s.sheet == nil {
		return 0, ErrSheetNotConfigured
	}
	rows, err := s.sheet.ReadRows(ctx)
	if err != nil {
		return 0, err
	}
	return s.importRows(ctx, rows, importer.FormatSheets)
}

func (s *FinanceService) importRows(ctx context.Context, rows []importer.Row, source string) (int, error) {
	n, err := s.ledger.ImportMerge(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", source, err)
	}
	if n > 0 {
		s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionsImported, "", n))
	}
	return n, nil
}

func (s *FinanceService) Summary() core.Totals {
	return s.ledger.Aggregates()
}

func (s *FinanceService) Transactions() []core.Transaction {
	return s.ledger.Transactions()
}

func (s *FinanceService) AddGoal(ctx context.Context, in core.GoalInput) (core.Goal, error) {
	g, err := s.goals.Add(ctx, in)
	if err != nil {
		return core.Goal{}, err
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.GoalAdded, g.ID, 1))
	return g, nil
}

// UpdateGoalProgress ignores invalid amounts and unknown ids.
func (s *FinanceService) UpdateGoalProgress(ctx context.Context, id, amount string) (bool, error) {
	updated, err := s.goals.UpdateProgress(ctx, id, amount)
	if err != nil || !updated {
		return updated, err
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.GoalProgress, id, 1))
	return true, nil
}

func (s *FinanceService) DeleteGoal(ctx context.Context, id string) (bool, error) {
	deleted, err := s.goals.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.GoalDeleted, id, 1))
	return true, nil
}

func (s *FinanceService) Goals() []core.Goal {
	return s.goals.Goals()
}

// GoalViews returns every goal with its progress, in insertion order.
func (s *FinanceService) GoalViews() []GoalView {
	gs := s.goals.Goals()
	out := make([]GoalView, len(gs))
	for i, g := range gs {
		out[i] = GoalView{Goal: g, Progress: goals.ProgressOf(g)}
	}
	return out
}

// SheetImportEnabled reports whether ImportSheet can run.
func (s *FinanceService) SheetImportEnabled() bool {
	return s.sheet != nil
}

func (s *FinanceService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping event", "kind", ev.Kind)
		return
	}
	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"kind", ev.Kind, "id", ev.ID, "error", err)
	}
}
