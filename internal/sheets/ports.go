package sheets

import (
	"context"

	"moneybuddy/internal/core"
	"moneybuddy/internal/importer"
)

// Ports for outbound spreadsheet adapters.
type (
	// RowReader reads the configured import range. The first row is the
	// header; failures are importer.DecodeError.
	RowReader interface {
		ReadRows(ctx context.Context) ([]importer.Row, error)
	}

	// LedgerExporter replaces the export sheet with the given ledger.
	LedgerExporter interface {
		ExportLedger(ctx context.Context, txs []core.Transaction, totals core.Totals) error
	}
)

// ExportHeader is the first row written by every exporter.
var ExportHeader = []any{"Date", "Category", "Type", "Amount", "ID"}

// ExportValues renders the ledger as a values matrix: header, one row per
// transaction in ledger order, a blank row, then the totals.
func ExportValues(txs []core.Transaction, totals core.Totals) [][]any {
	out := make([][]any, 0, len(txs)+5)
	out = append(out, ExportHeader)
	for _, tx := range txs {
		out = append(out, []any{tx.Date.String(), tx.Category, string(tx.Type), tx.Amount.Float64(), tx.ID})
	}
	out = append(out,
		[]any{},
		[]any{"Total income", "", "", totals.TotalIncome.Float64(), ""},
		[]any{"Total expense", "", "", totals.TotalExpense.Float64(), ""},
		[]any{"Balance", "", "", totals.Balance.Float64(), ""},
	)
	return out
}
