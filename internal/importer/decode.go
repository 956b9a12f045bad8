package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Formats recognised by DecodeFile.
const (
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSheets = "sheets"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrTooLarge          = errors.New("file exceeds the import size limit")
	ErrNoSheet           = errors.New("workbook has no sheets")
	ErrNotText           = errors.New("file is not UTF-8 text")
)

// DecodeError means the input could not be read as a spreadsheet at all.
// Nothing is imported when one is returned.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Format + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err carries a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Decoder reads the first sheet of a spreadsheet. The first row is the
// header and names the keys of every following row.
type Decoder interface {
	Format() string
	Decode(r io.Reader) ([]Row, error)
}

type XLSXDecoder struct{}

func (XLSXDecoder) Format() string { return FormatXLSX }

func (XLSXDecoder) Decode(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Format: FormatXLSX, Err: ErrNoSheet}
	}
	// Raw values keep dates as serial numbers and amounts unformatted.
	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Err: err}
	}
	return RowsFromStrings(cells), nil
}

type CSVDecoder struct{}

func (CSVDecoder) Format() string { return FormatCSV }

func (CSVDecoder) Decode(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Format: FormatCSV, Err: err}
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, &DecodeError{Format: FormatCSV, Err: ErrNotText}
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cells, err := cr.ReadAll()
	if err != nil {
		return nil, &DecodeError{Format: FormatCSV, Err: err}
	}
	return RowsFromStrings(cells), nil
}

var zipMagic = []byte("PK\x03\x04")

// DecoderFor picks a decoder from the file name. Only a file without an
// extension is sniffed; any other unknown extension is refused.
func DecoderFor(name string, head []byte) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx", ".xlsm":
		return XLSXDecoder{}, nil
	case ".csv", ".txt":
		return CSVDecoder{}, nil
	case "":
		if bytes.HasPrefix(head, zipMagic) {
			return XLSXDecoder{}, nil
		}
		return CSVDecoder{}, nil
	}
	return nil, &DecodeError{Format: strings.TrimPrefix(ext, "."), Err: ErrUnsupportedFormat}
}

// DecodeFile reads at most maxBytes from r and decodes it. A
// non-positive maxBytes disables the limit.
func DecodeFile(name string, r io.Reader, maxBytes int64) ([]Row, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Format: "file", Err: err}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &DecodeError{Format: "file", Err: ErrTooLarge}
	}
	dec, err := DecoderFor(name, data)
	if err != nil {
		return nil, err
	}
	rows, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RowsFromStrings maps a header+data matrix to rows.
func RowsFromStrings(cells [][]string) []Row {
	values := make([][]any, len(cells))
	for i, line := range cells {
		values[i] = make([]any, len(line))
		for j, c := range line {
			values[i][j] = c
		}
	}
	return RowsFromValues(values)
}

// RowsFromValues maps a header+data matrix of loosely typed cells to
// rows. Blank header cells drop their column; blank rows are skipped.
func RowsFromValues(values [][]any) []Row {
	if len(values) == 0 {
		return []Row{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		if h == nil {
			continue
		}
		header[i] = strings.TrimSpace(strings.TrimPrefix(fmt.Sprint(h), "\ufeff"))
	}

	rows := make([]Row, 0, len(values)-1)
	for _, line := range values[1:] {
		row := Row{}
		for j, cell := range line {
			if j >= len(header) || header[j] == "" || cell == nil {
				continue
			}
			if s, ok := cell.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			row[header[j]] = cell
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
