package schedule

import (
	"errors"
	"path/filepath"
	"testing"

	"ledgerkeep/internal/core"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "recurrences.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rent(owner string) Entry {
	return Entry{
		OwnerID:       owner,
		Category:      "Housing",
		Description:   "Rent",
		Kind:          "expense",
		Amount:        "800",
		PaymentMethod: "Bank Transfer",
		DayOfMonth:    1,
	}
}

func TestUpsertOverwritesByKey(t *testing.T) {
	s := openStore(t)
	replaced, err := s.Upsert(rent("U001"))
	if err != nil || replaced {
		t.Fatalf("first upsert: replaced=%v err=%v", replaced, err)
	}
	e := rent("U001")
	e.Amount = "850.5"
	e.DayOfMonth = 3
	replaced, err = s.Upsert(e)
	if err != nil || !replaced {
		t.Fatalf("second upsert: replaced=%v err=%v", replaced, err)
	}

	list, err := s.List("U001")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Amount != "850.50" || list[0].DayOfMonth != 3 {
		t.Fatalf("unexpected entries %+v", list)
	}
}

func TestUpsertRejectsInvalidEntries(t *testing.T) {
	s := openStore(t)
	tests := []struct {
		name   string
		mutate func(e *Entry)
		want   error
	}{
		{"day zero", func(e *Entry) { e.DayOfMonth = 0 }, core.ErrInvalidDay},
		{"day 29", func(e *Entry) { e.DayOfMonth = 29 }, core.ErrInvalidDay},
		{"bad amount", func(e *Entry) { e.Amount = "-5" }, core.ErrInvalidAmount},
		{"bad method", func(e *Entry) { e.PaymentMethod = "Cheque" }, core.ErrInvalidPaymentMethod},
		{"separator", func(e *Entry) { e.Description = "a\x1fb" }, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := rent("U001")
			tt.mutate(&e)
			if _, err := s.Upsert(e); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if list, _ := s.List("U001"); len(list) != 0 {
		t.Fatalf("rejected entries must not be stored: %+v", list)
	}
}

func TestListIsScopedToOwner(t *testing.T) {
	s := openStore(t)
	s.Upsert(rent("U001"))
	s.Upsert(rent("U0010"))
	gym := rent("U001")
	gym.Category = "Health"
	gym.Description = "Gym"
	s.Upsert(gym)

	list, _ := s.List("U001")
	if len(list) != 2 || list[0].Category != "Health" || list[1].Category != "Housing" {
		t.Fatalf("unexpected entries %+v", list)
	}
	owners, _ := s.Owners()
	if len(owners) != 2 || owners[0] != "U001" || owners[1] != "U0010" {
		t.Fatalf("unexpected owners %v", owners)
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	s.Upsert(rent("U001"))
	ok, err := s.Delete("U001", "Housing", "Rent")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, _ = s.Delete("U001", "Housing", "Rent")
	if ok {
		t.Fatal("second delete should report nothing removed")
	}
}

func TestEntryInput(t *testing.T) {
	e := rent("U001")
	e.DayOfMonth = 28
	in := e.Input(core.Month{Year: 2025, Month: 2})
	if in.Date != "2025-02-28" || in.Amount != "800" || in.Category != "Housing" {
		t.Fatalf("unexpected input %+v", in)
	}
}
