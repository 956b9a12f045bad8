package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"1", "1", nil},
		{"1.0", "1", nil},
		{"1.23", "1.23", nil},
		{"1,23", "1.23", nil},
		{"1,234.50", "1234.5", nil},
		{" 2.50 ", "2.5", nil},
		{"0", "0", nil},
		{"1,234", "1234", nil},
		{"1,234,567", "1234567", nil},
		{"1,00,000", "100000", nil},
		{"12,5", "12.5", nil},
		{"1e3", "1000", nil},
		{"1000000000000000", "1000000000000000", nil},
		{"1000000000000001", "", ErrInvalidAmount},
		{"1e50000000", "", ErrInvalidAmount},
		{"1e2000000000", "", ErrInvalidAmount},
		{"1e-2000000000", "", ErrInvalidAmount},
		{"0.12345678901234", "0.123456789", nil},
		{"-1", "", ErrInvalidAmount},
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"", "", ErrEmptyAmount},
		{"   ", "", ErrEmptyAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got.String() != tc.out {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	a, _ := ParseAmount("100.25")
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "100.25" {
		t.Fatalf("expected bare number, got %s", b)
	}

	var fromNumber, fromString Amount
	if err := json.Unmarshal([]byte(`42.5`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if err := json.Unmarshal([]byte(`"42.5"`), &fromString); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if !fromNumber.Equal(fromString) || fromNumber.String() != "42.5" {
		t.Fatalf("got %s and %s", fromNumber, fromString)
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := AmountFromInt(10)
	b, _ := ParseAmount("2.5")
	if got := a.Add(b).String(); got != "12.5" {
		t.Fatalf("add = %s", got)
	}
	if got := b.Sub(a); !got.IsNegative() || got.String() != "-7.5" {
		t.Fatalf("sub = %s", got)
	}
	if got := a.Format(); got != "10.00" {
		t.Fatalf("format = %s", got)
	}
}

func TestAmountUnmarshalRejectsOutOfRange(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`1e50000000`), &a); err == nil {
		t.Fatal("expected an error for an oversized amount")
	}
	if err := json.Unmarshal([]byte(`-250.5`), &a); err != nil || a.String() != "-250.5" {
		t.Fatalf("negative balance: got %s, err=%v", a, err)
	}
}
