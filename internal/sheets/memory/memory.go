// Package memory is an in-process spreadsheet used in development and
// tests in place of Google Sheets.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"moneybuddy/internal/core"
	"moneybuddy/internal/importer"
	ports "moneybuddy/internal/sheets"
)

var (
	_ ports.RowReader      = (*Sheet)(nil)
	_ ports.LedgerExporter = (*Sheet)(nil)
)

type Sheet struct {
	mu       sync.Mutex
	input    [][]any
	exported [][]any
	exports  int
	err      error
}

// New returns a sheet whose import range holds values.
func New(values [][]any) *Sheet {
	return &Sheet{input: values}
}

// NewFromFiles seeds the import range from <base>/import.csv. A missing
// or unreadable file leaves the sheet empty.
func NewFromFiles(base string) *Sheet {
	s := New(nil)
	f, err := os.Open(filepath.Join(base, "import.csv"))
	if err != nil {
		return s
	}
	defer f.Close()
	rows, err := importer.CSVDecoder{}.Decode(f)
	if err != nil {
		return s
	}
	s.input = rowsToValues(rows)
	return s
}

// FailWith makes every following call return err. Pass nil to recover.
func (s *Sheet) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Sheet) ReadRows(_ context.Context) ([]importer.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, &importer.DecodeError{Format: importer.FormatSheets, Err: s.err}
	}
	return importer.RowsFromValues(s.input), nil
}

func (s *Sheet) ExportLedger(_ context.Context, txs []core.Transaction, totals core.Totals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.exported = ports.ExportValues(txs, totals)
	s.exports++
	return nil
}

// Exported returns the last exported matrix.
func (s *Sheet) Exported() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.exported...)
}

// Exports counts successful exports.
func (s *Sheet) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}

// rowsToValues rebuilds a header+values matrix. Column order follows the
// first appearance of each key.
func rowsToValues(rows []importer.Row) [][]any {
	var header []string
	seen := map[string]bool{}
	for _, r := range rows {
		for _, k := range []string{"Amount", "amount", "Category", "category", "Type", "type", "Date", "date"} {
			if _, ok := r[k]; ok && !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	out := make([][]any, 0, len(rows)+1)
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	out = append(out, head)
	for _, r := range rows {
		line := make([]any, len(header))
		for i, h := range header {
			line[i] = r[h]
		}
		out = append(out, line)
	}
	return out
}
