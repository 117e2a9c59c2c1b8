package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/memory"
	"ledgerkeep/internal/schedule"
)

func openSchedule(t *testing.T) *schedule.Store {
	t.Helper()
	s, err := schedule.Open(filepath.Join(t.TempDir(), "recurrences.db"))
	if err != nil {
		t.Fatalf("open schedule: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(owner, category, desc, amount string, day int) schedule.Entry {
	return schedule.Entry{
		OwnerID:       owner,
		Category:      category,
		Description:   desc,
		Kind:          "expense",
		Amount:        amount,
		PaymentMethod: "Bank Transfer",
		DayOfMonth:    day,
	}
}

func TestRecurringProcessor_PostDueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sched := openSchedule(t)
	sched.Upsert(entry("U001", "Housing", "Rent", "800", 1))
	sched.Upsert(entry("U001", "Health", "Gym", "35", 15))
	sched.Upsert(entry("U001", "Media", "Streaming", "9.99", 28))

	store := memory.New()
	p := NewRecurringProcessor(sched, store)
	march := core.Month{Year: 2025, Month: time.March}

	posted, present, err := p.PostDue(ctx, "U001", march)
	if err != nil || posted != 3 || present != 0 {
		t.Fatalf("first run: posted=%d present=%d err=%v", posted, present, err)
	}
	posted, present, err = p.PostDue(ctx, "U001", march)
	if err != nil || posted != 0 || present != 3 {
		t.Fatalf("second run: posted=%d present=%d err=%v", posted, present, err)
	}

	rows, _ := store.Scan(ctx, "U001", ledger.Filter{})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].OccurredOn.String() != "2025-03-01" || rows[2].OccurredOn.String() != "2025-03-28" {
		t.Fatalf("unexpected dates %s..%s", rows[0].OccurredOn, rows[2].OccurredOn)
	}

	posted, _, _ = p.PostDue(ctx, "U001", core.Month{Year: 2025, Month: time.April})
	if posted != 3 {
		t.Fatalf("next month should post again, got %d", posted)
	}
}

func TestRecurringProcessor_ChangedAmountPostsAgain(t *testing.T) {
	ctx := context.Background()
	sched := openSchedule(t)
	sched.Upsert(entry("U001", "Housing", "Rent", "800", 1))
	store := memory.New()
	p := NewRecurringProcessor(sched, store)
	may := core.Month{Year: 2025, Month: time.May}

	p.PostDue(ctx, "U001", may)
	sched.Upsert(entry("U001", "Housing", "Rent", "850", 1))
	posted, present, err := p.PostDue(ctx, "U001", may)
	if err != nil || posted != 1 || present != 0 {
		t.Fatalf("changed template: posted=%d present=%d err=%v", posted, present, err)
	}
}

func TestRecurringProcessor_ManualRowCountsAsPresent(t *testing.T) {
	ctx := context.Background()
	sched := openSchedule(t)
	sched.Upsert(entry("U001", "Housing", "Rent", "800", 1))

	manual, _ := core.NewTransaction("U001", core.TransactionInput{
		Kind: "expense", Amount: "800.00", Category: "Housing", Date: "2025-06-01",
		Description: "Rent", PaymentMethod: "Cash",
	})
	store, err := memory.NewFromRows([]core.Transaction{manual})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	posted, present, err := NewRecurringProcessor(sched, store).PostDue(ctx, "U001", core.Month{Year: 2025, Month: time.June})
	if err != nil || posted != 0 || present != 1 {
		t.Fatalf("posted=%d present=%d err=%v", posted, present, err)
	}
}

func TestRecurringProcessor_PostAll(t *testing.T) {
	ctx := context.Background()
	sched := openSchedule(t)
	sched.Upsert(entry("U001", "Housing", "Rent", "800", 1))
	sched.Upsert(entry("U002", "Housing", "Rent", "650", 5))
	store := memory.New()
	p := NewRecurringProcessor(sched, store)
	month := core.Month{Year: 2025, Month: time.July}

	posted, present, err := p.PostAll(ctx, month)
	if err != nil || posted != 2 || present != 0 {
		t.Fatalf("first run: posted=%d present=%d err=%v", posted, present, err)
	}
	posted, present, err = p.PostAll(ctx, month)
	if err != nil || posted != 0 || present != 2 {
		t.Fatalf("second run: posted=%d present=%d err=%v", posted, present, err)
	}
	u2, _ := store.Scan(ctx, "U002", ledger.Filter{})
	if len(u2) != 1 || u2[0].Amount.String() != "650.00" {
		t.Fatalf("unexpected U002 rows %+v", u2)
	}
}

type failingSchedule struct{}

func (failingSchedule) List(string) ([]schedule.Entry, error) { return nil, errors.New("disk gone") }
func (failingSchedule) Owners() ([]string, error)             { return []string{"U001", "U002"}, nil }

func TestRecurringProcessor_PostAllJoinsErrors(t *testing.T) {
	_, _, err := NewRecurringProcessor(failingSchedule{}, memory.New()).PostAll(context.Background(), core.Month{Year: 2025, Month: 1})
	if err == nil {
		t.Fatal("expected joined error")
	}
}
