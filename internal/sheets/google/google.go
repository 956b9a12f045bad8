package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"moneybuddy/internal/core"
	"moneybuddy/internal/importer"
	ports "moneybuddy/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Defaults for the sheet layout.
const (
	DefaultImportRange = "Import!A:D"
	DefaultExportSheet = "Ledger"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	importRange   string
	exportSheet   string
}

// Ensure interface conformance
var (
	_ ports.RowReader      = (*Client)(nil)
	_ ports.LedgerExporter = (*Client)(nil)
)

// Options configures a Client. Credentials come from CredentialsJSON,
// then CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	ImportRange     string
	ExportSheet     string
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_IMPORT_RANGE (default "Import!A:D"),
// GOOGLE_EXPORT_SHEET (default "Ledger"),
// GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE for auth.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		ImportRange:     os.Getenv("GOOGLE_IMPORT_RANGE"),
		ExportSheet:     os.Getenv("GOOGLE_EXPORT_SHEET"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
}

func New(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		"import_range", opts.ImportRange,
		"export_sheet", opts.ExportSheet)
	return newWithService(svc, opts), nil
}

func newWithService(svc *gsheet.Service, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		importRange:   opts.ImportRange,
		exportSheet:   opts.ExportSheet,
	}
}

func (o Options) withDefaults() Options {
	o.SpreadsheetID = strings.TrimSpace(o.SpreadsheetID)
	o.ImportRange = strings.TrimSpace(o.ImportRange)
	o.ExportSheet = strings.TrimSpace(o.ExportSheet)
	o.CredentialsJSON = strings.TrimSpace(o.CredentialsJSON)
	o.CredentialsFile = strings.TrimSpace(o.CredentialsFile)
	if o.ImportRange == "" {
		o.ImportRange = DefaultImportRange
	}
	if o.ExportSheet == "" {
		o.ExportSheet = DefaultExportSheet
	}
	return o
}

// credentials resolves service account JSON.
func credentials(ctx context.Context, opts Options) ([]byte, error) {
	file := opts.CredentialsFile
	if opts.CredentialsJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case opts.CredentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(opts.CredentialsJSON), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return raw, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ReadRows reads the import range with unformatted values, so numbers
// arrive as numbers and dates as serial day numbers.
func (c *Client) ReadRows(ctx context.Context) ([]importer.Row, error) {
	if c.svc == nil {
		return nil, &importer.DecodeError{Format: importer.FormatSheets, Err: errors.New("sheets service not initialized")}
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.importRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, &importer.DecodeError{Format: importer.FormatSheets, Err: fmt.Errorf("read %s: %w", c.importRange, err)}
	}
	rows := importer.RowsFromValues(resp.Values)
	slog.InfoContext(ctx, "Read import rows from sheet", "range", c.importRange, "rows", len(rows))
	return rows, nil
}

// ExportLedger clears the export sheet and writes the full ledger.
func (c *Client) ExportLedger(ctx context.Context, txs []core.Transaction, totals core.Totals) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:E", c.exportSheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := ports.ExportValues(txs, totals)
	writeRange := fmt.Sprintf("%s!A1:E%d", c.exportSheet, len(values))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Exported ledger to sheet", "sheet", c.exportSheet, "transactions", len(txs))
	return nil
}
