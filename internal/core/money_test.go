package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"12", "12.00", true},
		{"12.5", "12.50", true},
		{"1.23", "1.23", true},
		{"0", "0.00", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"1.004", "1.00", true},
		{"2.675", "2.68", true},
		{" 2.50 ", "2.50", true},
		{".5", "0.50", true},
		{"7.", "7.00", true},
		{"999999999999", "999999999999.00", true},
		{"1234567890123", "", false}, // 13 digits
		{"12345678901.23", "", false},
		{"+10", "", false},
		{"-1", "", false},
		{"1,23", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e5", "", false},
		{".", "", false},
		{"", "", false},
		{"   ", "", false},
		{"١٢", "", false}, // non-ASCII digits
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
		if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected a validation error, got %v", tc.in, err)
		}
	}
}

func TestParseAmountIdempotent(t *testing.T) {
	for _, in := range []string{"12", "0.5", "1.005", "99.999", "000123.4", "7."} {
		first, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		second, err := ParseAmount(first.String())
		if err != nil {
			t.Fatalf("%q reparse: %v", first, err)
		}
		if !first.Equal(second) || first.String() != second.String() {
			t.Fatalf("%q not idempotent: %s then %s", in, first, second)
		}
	}
}

func TestMoneyCents(t *testing.T) {
	if got := MustParseAmount("12.34").Cents(); got != 1234 {
		t.Fatalf("expected 1234 cents, got %d", got)
	}
	if got := NewMoneyFromCents(5).String(); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
	var zero Money
	if zero.String() != "0.00" || !zero.IsZero() {
		t.Fatalf("zero value should be 0.00, got %s", zero)
	}
}

func TestMoneyAdd(t *testing.T) {
	var total Money
	for _, s := range []string{"0.10", "0.20", "12"} {
		total = total.Add(MustParseAmount(s))
	}
	if total.String() != "12.30" {
		t.Fatalf("expected 12.30, got %s", total)
	}
}
