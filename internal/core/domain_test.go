package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"income", Income, true},
		{"EXPENSE", Expense, true},
		{" Income ", Income, true},
		{"", Expense, true},
		{"transfer", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestNewTransaction(t *testing.T) {
	day := NewDate(2025, 3, 14)
	tx, err := NewTransaction("1", "12.50", "Food", "expense", day)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.Amount.String() != "12.5" || tx.Category != "Food" || tx.Type != Expense || tx.Date != day {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	bads := []struct {
		amount, category, typ string
		field                 string
		err                   error
	}{
		{"", "Food", "expense", "amount", ErrEmptyAmount},
		{"abc", "Food", "expense", "amount", ErrInvalidAmount},
		{"-3", "Food", "expense", "amount", ErrInvalidAmount},
		{"3", "  ", "expense", "category", ErrEmptyCategory},
		{"3", "Food", "gift", "type", ErrInvalidType},
	}
	for i, b := range bads {
		_, err := NewTransaction("1", b.amount, b.category, b.typ, day)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if ve.Field != b.field || !errors.Is(err, b.err) {
			t.Fatalf("case %d expected %s/%v, got %s/%v", i, b.field, b.err, ve.Field, ve.Err)
		}
	}
}

func TestNewGoal(t *testing.T) {
	g, err := NewGoal("7", GoalInput{Name: "Car", TargetAmount: "30000", CurrentAmount: "abc", Deadline: "2026-12-31"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !g.CurrentAmount.IsZero() {
		t.Fatalf("non-numeric current should default to 0, got %s", g.CurrentAmount)
	}
	if g.Deadline == nil || g.Deadline.String() != "2026-12-31" {
		t.Fatalf("deadline not parsed: %v", g.Deadline)
	}

	g, err = NewGoal("8", GoalInput{Name: "Fund", TargetAmount: "100", CurrentAmount: "-4"})
	if err != nil || !g.CurrentAmount.IsZero() || g.Deadline != nil {
		t.Fatalf("expected defaulted goal, got %+v err=%v", g, err)
	}

	bads := []GoalInput{
		{Name: "", TargetAmount: "100"},
		{Name: "x", TargetAmount: "0"},
		{Name: "x", TargetAmount: "-10"},
		{Name: "x", TargetAmount: "lots"},
		{Name: "x", TargetAmount: "10", Deadline: "31/12/2026"},
	}
	for i, in := range bads {
		if _, err := NewGoal("9", in); !IsValidationError(err) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 1, 1)
	b, _ := json.Marshal(d)
	if string(b) != `"2024-01-01"` {
		t.Fatalf("got %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil || back != d {
		t.Fatalf("round trip failed: %v %v", back, err)
	}
	if got := DateOf(time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC)); got != NewDate(2024, 5, 6) {
		t.Fatalf("DateOf = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); !got.TotalIncome.IsZero() || !got.TotalExpense.IsZero() || !got.Balance.IsZero() {
		t.Fatalf("empty ledger should sum to zero: %+v", got)
	}
	txs := []Transaction{
		{Amount: AmountFromInt(1000), Type: Income},
		{Amount: AmountFromInt(250), Type: Expense},
		{Amount: AmountFromInt(50), Type: Expense},
		{Amount: AmountFromInt(999), Type: "transfer"},
	}
	got := Summarize(txs)
	if got.TotalIncome.String() != "1000" || got.TotalExpense.String() != "300" || got.Balance.String() != "700" {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestIDGeneratorMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return fixed })
	a, b := g.NewID(), g.NewID()
	if a == b {
		t.Fatalf("ids must differ within the same millisecond: %s %s", a, b)
	}
	if a != "1700000000000" || b != "1700000000001" {
		t.Fatalf("unexpected ids %s %s", a, b)
	}
	if got := BatchID(g.Stamp(), 3); got != "1700000000002-3" {
		t.Fatalf("batch id = %s", got)
	}
}
