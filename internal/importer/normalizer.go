// Package importer turns loosely typed spreadsheet rows into ledger
// transactions. Untyped values never leave this package.
package importer

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"moneybuddy/internal/core"
)

// Row is one decoded spreadsheet record keyed by header name. Values are
// whatever the decoder produced: strings, numbers or times.
type Row map[string]any

// DefaultCategory is used when a row has no category.
const DefaultCategory = "Other"

var (
	amountKeys   = []string{"Amount", "amount"}
	categoryKeys = []string{"Category", "category"}
	typeKeys     = []string{"Type", "type"}
	dateKeys     = []string{"Date", "date"}
)

// dateLayouts are tried in order for textual dates.
var dateLayouts = []string{
	core.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Normalizer converts rows with explicit defaulting rules. It never fails:
// a malformed field falls back to its default instead of rejecting the row.
type Normalizer struct {
	now core.Clock
	ids *core.IDGenerator
}

func NewNormalizer(now core.Clock, ids *core.IDGenerator) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if ids == nil {
		ids = core.NewIDGenerator(now)
	}
	return &Normalizer{now: now, ids: ids}
}

// Normalize produces one transaction per row, in row order. All rows of
// one call share a batch timestamp; ids are <timestamp>-<index>.
func (n *Normalizer) Normalize(rows []Row) []core.Transaction {
	if len(rows) == 0 {
		return []core.Transaction{}
	}
	stamp := n.ids.Stamp()
	today := core.DateOf(n.now())

	out := make([]core.Transaction, len(rows))
	coercedTypes := 0
	for i, row := range rows {
		typ, known := rowType(row)
		if !known {
			coercedTypes++
		}
		out[i] = core.Transaction{
			ID:       core.BatchID(stamp, i),
			Amount:   rowAmount(row),
			Category: rowCategory(row),
			Type:     typ,
			Date:     rowDate(row, today),
		}
	}
	if coercedTypes > 0 {
		slog.Warn("Unknown transaction types coerced to expense", "rows", len(rows), "coerced", coercedTypes)
	}
	return out
}

// lookup returns the first key whose value is present and not blank.
func lookup(row Row, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func rowAmount(row Row) core.Amount {
	v, ok := lookup(row, amountKeys)
	if !ok {
		return core.Amount{}
	}
	var d decimal.Decimal
	switch val := v.(type) {
	case string:
		a, err := core.ParseAmount(val)
		if err != nil {
			return core.Amount{}
		}
		return a
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return core.Amount{}
		}
		d = decimal.NewFromFloat(val)
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return core.Amount{}
		}
		d = decimal.NewFromFloat32(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int64:
		d = decimal.NewFromInt(val)
	case json.Number:
		parsed, err := decimal.NewFromString(val.String())
		if err != nil {
			return core.Amount{}
		}
		d = parsed
	case decimal.Decimal:
		d = val
	default:
		return core.Amount{}
	}
	a, err := core.CheckedAmount(d)
	if err != nil {
		return core.Amount{}
	}
	return a
}

func rowCategory(row Row) string {
	v, ok := lookup(row, categoryKeys)
	if !ok {
		return DefaultCategory
	}
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return DefaultCategory
	}
	return s
}

// rowType lower-cases the type. Anything but income or expense becomes
// expense; known reports whether the raw value was recognised.
func rowType(row Row) (core.TransactionType, bool) {
	v, ok := lookup(row, typeKeys)
	if !ok {
		return core.Expense, true
	}
	t := core.TransactionType(strings.ToLower(strings.TrimSpace(stringValue(v))))
	if !t.IsValid() {
		return core.Expense, false
	}
	return t, true
}

func rowDate(row Row, today core.Date) core.Date {
	v, ok := lookup(row, dateKeys)
	if !ok {
		return today
	}
	switch val := v.(type) {
	case time.Time:
		return core.DateOf(val)
	case core.Date:
		return val
	case float64:
		if d, ok := serialDate(val); ok {
			return d
		}
		return today
	case int:
		if d, ok := serialDate(float64(val)); ok {
			return d
		}
		return today
	}
	s := strings.TrimSpace(stringValue(v))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if d, ok := serialDate(f); ok {
			return d
		}
	}
	return today
}

// serialDate converts an Excel day serial (1900 date system).
func serialDate(serial float64) (core.Date, bool) {
	if serial < 1 || serial > 2958465 || math.IsNaN(serial) {
		return core.Date{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return core.Date{}, false
	}
	return core.DateOf(t), true
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
