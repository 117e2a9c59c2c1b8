package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validInput() TransactionInput {
	return TransactionInput{
		Kind:          "Expense",
		Amount:        "12.5",
		Category:      " Food ",
		Date:          "2025-10-12",
		Description:   "  lunch ",
		PaymentMethod: "Credit Card",
	}
}

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction("U001", validInput())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.Kind != Expense || tx.Amount.String() != "12.50" || tx.Category != "Food" {
		t.Fatalf("unexpected normalization: %+v", tx)
	}
	if tx.Description != "lunch" || tx.OccurredOn.String() != "2025-10-12" {
		t.Fatalf("unexpected normalization: %+v", tx)
	}
	if tx.ID != "" {
		t.Fatalf("creation path must not assign ids, got %q", tx.ID)
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("created record should validate: %v", err)
	}
}

func TestNewTransactionRejects(t *testing.T) {
	tests := []struct {
		name     string
		owner    string
		mutate   func(*TransactionInput)
		sentinel error
	}{
		{"missing owner", "", func(*TransactionInput) {}, ErrMissingOwner},
		{"bad kind", "U001", func(in *TransactionInput) { in.Kind = "transfer" }, ErrInvalidKind},
		{"signed amount", "U001", func(in *TransactionInput) { in.Amount = "-3" }, ErrInvalidAmount},
		{"empty category", "U001", func(in *TransactionInput) { in.Category = "  " }, ErrInvalidCategory},
		{"long category", "U001", func(in *TransactionInput) { in.Category = strings.Repeat("x", 41) }, ErrInvalidCategory},
		{"bad date", "U001", func(in *TransactionInput) { in.Date = "12/10/2025" }, ErrInvalidDate},
		{"impossible date", "U001", func(in *TransactionInput) { in.Date = "2025-02-30" }, ErrInvalidDate},
		{"bad method", "U001", func(in *TransactionInput) { in.PaymentMethod = "cash" }, ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := NewTransaction(tt.owner, in)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestCategoryLengthCountsRunes(t *testing.T) {
	if _, err := ValidateCategory(strings.Repeat("é", 40)); err != nil {
		t.Fatalf("40 runes should be accepted: %v", err)
	}
}

func TestIDs(t *testing.T) {
	if got := FormatID(1); got != "T000001" {
		t.Fatalf("expected T000001, got %s", got)
	}
	cases := []struct {
		id string
		n  int
		ok bool
	}{
		{"T000042", 42, true},
		{"T001", 1, true},
		{"T", 0, false},
		{"X000001", 0, false},
		{"T00a001", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		n, ok := ParseIDNumber(tc.id)
		if ok != tc.ok || n != tc.n {
			t.Fatalf("%q: expected (%d,%v), got (%d,%v)", tc.id, tc.n, tc.ok, n, ok)
		}
	}
}

func TestDedupKeys(t *testing.T) {
	a, _ := NewTransaction("U001", validInput())
	in := validInput()
	in.Amount = "12.50"
	in.Category = "Other"
	b, _ := NewTransaction("U001", in)

	if a.ImportKey() != b.ImportKey() {
		t.Fatalf("import keys should ignore category: %v vs %v", a.ImportKey(), b.ImportKey())
	}
	if a.PostingKey() == b.PostingKey() {
		t.Fatalf("posting keys should include category")
	}
}

func TestParseDateAndMonth(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil || d.String() != "2024-02-29" {
		t.Fatalf("leap day: %v %v", d, err)
	}
	for _, bad := range []string{"2024-2-29", "20240229", "2023-02-29", "2024-02-29T00:00:00Z", ""} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q should be rejected, got %v", bad, err)
		}
	}

	m, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	if m.First().String() != "2024-02-01" || m.Last().String() != "2024-02-29" {
		t.Fatalf("unexpected bounds %s..%s", m.First(), m.Last())
	}
	if m.String() != "2024-02" || m.Day(28).String() != "2024-02-28" {
		t.Fatalf("unexpected month rendering %s", m)
	}
	for _, bad := range []string{"2024-13", "2024-00", "2024-1", "24-01"} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q should be rejected, got %v", bad, err)
		}
	}
	if got := MonthOf(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)).String(); got != "2025-12" {
		t.Fatalf("unexpected month %s", got)
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("zero date should fail")
	}
}
