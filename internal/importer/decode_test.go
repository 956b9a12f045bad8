package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodeCSV(t *testing.T) {
	in := "\ufeffAmount,Category,Type,Date\n100,Food,expense,2024-01-01\n,,,\n2500,Salary,income,\n"
	rows, err := DecodeFile("bank.csv", strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (blank skipped), got %d: %v", len(rows), rows)
	}
	if rows[0]["Amount"] != "100" || rows[0]["Category"] != "Food" || rows[0]["Date"] != "2024-01-01" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if _, ok := rows[1]["Date"]; ok {
		t.Fatalf("blank cell should be absent: %v", rows[1])
	}
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		line := r
		if err := f.SetSheetRow("Sheet1", cell, &line); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Amount", "Category", "Type", "Date"},
		{100, "Food", "expense", "2024-01-01"},
		{42.5, "Freelance", "Income"},
	})

	// No extension: content sniffing must pick xlsx.
	rows, err := DecodeFile("upload", bytes.NewReader(data), 1<<20)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	txs := newTestNormalizer().Normalize(rows)
	if txs[0].Amount.String() != "100" || txs[0].Category != "Food" || txs[0].Date.String() != "2024-01-01" {
		t.Fatalf("unexpected first transaction %+v", txs[0])
	}
	if txs[1].Amount.String() != "42.5" || txs[1].Type != "income" || txs[1].Date.String() != "2025-06-15" {
		t.Fatalf("unexpected second transaction %+v", txs[1])
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		max     int64
		wantErr error
	}{
		{"corrupt xlsx", "book.xlsx", []byte("PK\x03\x04 definitely not a workbook"), 0, nil},
		{"legacy xls", "book.xls", []byte{0xD0, 0xCF}, 0, ErrUnsupportedFormat},
		{"too large", "big.csv", bytes.Repeat([]byte("a"), 64), 16, ErrTooLarge},
		{"bad csv quoting", "bad.csv", []byte("Amount\n\"unterminated\n"), 0, nil},
		{"pdf", "notes.pdf", []byte("%PDF-1.4\nbinary\n"), 0, ErrUnsupportedFormat},
		{"image", "photo.png", []byte("\x89PNG\r\n\x1a\n"), 0, ErrUnsupportedFormat},
		{"binary without extension", "upload", []byte("Amount\n\xff\xfe\x00\x01\n"), 0, ErrNotText},
		{"binary named csv", "bank.csv", []byte("Amount,Category\n10,\x00\x00\n"), 0, ErrNotText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFile(tt.file, bytes.NewReader(tt.data), tt.max)
			if !IsDecodeError(err) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRowsFromValues(t *testing.T) {
	rows := RowsFromValues([][]any{
		{"Amount", "", nil, "Type"},
		{12.0, "ignored", "ignored", "income"},
		{},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if len(rows[0]) != 2 || rows[0]["Amount"] != 12.0 || rows[0]["Type"] != "income" {
		t.Fatalf("unexpected row %v", rows[0])
	}
	if got := RowsFromValues(nil); len(got) != 0 {
		t.Fatalf("expected no rows")
	}
}
