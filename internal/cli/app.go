package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"moneybuddy/internal/config"
	"moneybuddy/internal/core"
	"moneybuddy/internal/goals"
	"moneybuddy/internal/ledger"
	gsheet "moneybuddy/internal/sheets/google"
	"moneybuddy/internal/storage"
)

// Collections are the two persisted collections bound to one store.
type Collections struct {
	Transactions *storage.Collection[core.Transaction]
	Goals        *storage.Collection[core.Goal]
}

func NewCollections(store storage.Store) Collections {
	return Collections{
		Transactions: storage.NewCollection[core.Transaction](store, storage.TransactionsKey),
		Goals:        storage.NewCollection[core.Goal](store, storage.GoalsKey),
	}
}

// OpenFinance loads the ledger and the goal tracker concurrently. Both
// share one id generator so ids stay unique across collections.
func OpenFinance(ctx context.Context, logger *slog.Logger, cols Collections) (*ledger.Ledger, *goals.Tracker, error) {
	ids := core.NewIDGenerator(time.Now)

	var (
		l  *ledger.Ledger
		tr *goals.Tracker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l, err = ledger.New(gctx, cols.Transactions, ledger.WithIDGenerator(ids))
		return err
	})
	g.Go(func() error {
		var err error
		tr, err = goals.New(gctx, cols.Goals, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	logger.Info("Loaded finance data", "transactions", l.Len(), "goals", len(tr.Goals()))
	return l, tr, nil
}

// InitSheets builds the Google Sheets client when a spreadsheet is
// configured. It returns nil, nil otherwise.
func InitSheets(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*gsheet.Client, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		ImportRange:     cfg.GoogleImportRange,
		ExportSheet:     cfg.GoogleExportSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("init google sheets: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
