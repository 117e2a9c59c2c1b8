// Package ledgertest holds the behaviour every ledger backend must share.
// Backend packages run it from their own tests.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
)

// Factory opens a fresh, empty store. Reopen, when set, closes the store and
// opens it again on the same backing data.
type Factory struct {
	Open   func(t *testing.T) ledger.Store
	Reopen func(t *testing.T, s ledger.Store) ledger.Store
}

// Tx builds a valid record for tests.
func Tx(owner, date, amount, category, description string) core.Transaction {
	tx, err := core.NewTransaction(owner, core.TransactionInput{
		Kind:          "expense",
		Amount:        amount,
		Category:      category,
		Date:          date,
		Description:   description,
		PaymentMethod: "Cash",
	})
	if err != nil {
		panic(err)
	}
	return tx
}

// Run executes the shared contract against f.
func Run(t *testing.T, f Factory) {
	ctx := context.Background()

	t.Run("next id on empty store", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		id, err := s.NextID(ctx)
		if err != nil || id != "T000001" {
			t.Fatalf("expected T000001, got %q (err=%v)", id, err)
		}
	})

	t.Run("next id follows the largest id", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		a := Tx("U001", "2025-01-01", "1", "Food", "a")
		a.ID = "T000001"
		b := Tx("U001", "2025-01-02", "2", "Food", "b")
		b.ID = "T000042"
		if _, err := s.Append(ctx, a, b); err != nil {
			t.Fatalf("append: %v", err)
		}
		id, err := s.NextID(ctx)
		if err != nil || id != "T000043" {
			t.Fatalf("expected T000043, got %q (err=%v)", id, err)
		}
	})

	t.Run("append assigns sequential ids", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		ids, err := s.Append(ctx,
			Tx("U001", "2025-01-01", "1", "Food", "a"),
			Tx("U001", "2025-01-02", "2", "Food", "b"),
		)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if len(ids) != 2 || ids[0] != "T000001" || ids[1] != "T000002" {
			t.Fatalf("unexpected ids %v", ids)
		}
		got, err := s.FindByID(ctx, "T000002")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Description != "b" || got.Amount.String() != "2.00" || got.OccurredOn.String() != "2025-01-02" {
			t.Fatalf("unexpected row %+v", got)
		}
	})

	t.Run("duplicate explicit id is a conflict", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		a := Tx("U001", "2025-01-01", "1", "Food", "a")
		a.ID = "T000005"
		if _, err := s.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
		if _, err := s.Append(ctx, a); !errors.Is(err, core.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("invalid record is rejected", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		bad := Tx("U001", "2025-01-01", "1", "Food", "a")
		bad.Kind = "transfer"
		if _, err := s.Append(ctx, bad); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("find missing id", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		if _, err := s.FindByID(ctx, "T000001"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("edit keeps the id", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		ids, _ := s.Append(ctx, Tx("U001", "2025-01-01", "1", "Food", "a"))
		changed, err := s.Edit(ctx, ids[0], func(cur core.Transaction) (core.Transaction, bool) {
			cur.ID = "T999999"
			cur.Amount = core.MustParseAmount("9.99")
			return cur, true
		})
		if err != nil || !changed {
			t.Fatalf("edit: changed=%v err=%v", changed, err)
		}
		got, err := s.FindByID(ctx, ids[0])
		if err != nil || got.Amount.String() != "9.99" {
			t.Fatalf("unexpected row %+v (err=%v)", got, err)
		}
		if _, err := s.FindByID(ctx, "T999999"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("edit must not reassign ids, got %v", err)
		}
	})

	t.Run("edit no-op and missing id", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		ids, _ := s.Append(ctx, Tx("U001", "2025-01-01", "1", "Food", "a"))
		changed, err := s.Edit(ctx, ids[0], func(cur core.Transaction) (core.Transaction, bool) {
			return cur, false
		})
		if err != nil || changed {
			t.Fatalf("no-op edit: changed=%v err=%v", changed, err)
		}
		changed, err = s.Edit(ctx, "T000777", func(cur core.Transaction) (core.Transaction, bool) {
			return cur, true
		})
		if err != nil || changed {
			t.Fatalf("missing id: changed=%v err=%v", changed, err)
		}
	})

	t.Run("edit rejects invalid replacement", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		ids, _ := s.Append(ctx, Tx("U001", "2025-01-01", "1", "Food", "a"))
		_, err := s.Edit(ctx, ids[0], func(cur core.Transaction) (core.Transaction, bool) {
			cur.Category = ""
			return cur, true
		})
		if !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		got, _ := s.FindByID(ctx, ids[0])
		if got.Category != "Food" {
			t.Fatalf("rejected edit must not be stored, got %+v", got)
		}
	})

	t.Run("delete never recycles ids", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		ids, _ := s.Append(ctx,
			Tx("U001", "2025-01-01", "1", "Food", "a"),
			Tx("U001", "2025-01-02", "2", "Food", "b"),
			Tx("U001", "2025-01-03", "3", "Food", "c"),
		)
		removed, err := s.Delete(ctx, ids[2])
		if err != nil || !removed {
			t.Fatalf("delete: removed=%v err=%v", removed, err)
		}
		removed, err = s.Delete(ctx, ids[2])
		if err != nil || removed {
			t.Fatalf("second delete: removed=%v err=%v", removed, err)
		}
		if f.Reopen != nil {
			s = f.Reopen(t, s)
		}
		next, err := s.NextID(ctx)
		if err != nil || next != "T000004" {
			t.Fatalf("expected T000004 after deleting T000003, got %q (err=%v)", next, err)
		}
		more, _ := s.Append(ctx, Tx("U001", "2025-01-04", "4", "Food", "d"))
		if more[0] != "T000004" {
			t.Fatalf("unexpected id %v", more)
		}
	})

	t.Run("ids stay unique across mutations", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		for i := 0; i < 5; i++ {
			if _, err := s.Append(ctx, Tx("U001", "2025-02-01", "1", "Food", "x")); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
		s.Delete(ctx, "T000002")
		s.Delete(ctx, "T000005")
		s.Edit(ctx, "T000003", func(cur core.Transaction) (core.Transaction, bool) {
			cur.Description = "edited"
			return cur, true
		})
		s.Append(ctx, Tx("U001", "2025-02-02", "1", "Food", "y"))

		rows, err := s.Scan(ctx, "U001", ledger.Filter{})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		seen := map[string]bool{}
		for _, r := range rows {
			if seen[r.ID] {
				t.Fatalf("duplicate id %s", r.ID)
			}
			seen[r.ID] = true
		}
		next, _ := s.NextID(ctx)
		if seen[next] {
			t.Fatalf("next id %s collides with an existing row", next)
		}
		if len(rows) != 4 || !seen["T000006"] {
			t.Fatalf("unexpected rows %v", seen)
		}
	})

	t.Run("scan filters and sorts", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		income := Tx("U001", "2025-03-05", "100", "Salary", "pay")
		income.Kind = core.Income
		income.PaymentMethod = core.BankTransfer
		_, err := s.Append(ctx,
			Tx("U001", "2025-03-10", "5", "Food", "late"),
			Tx("U001", "2025-03-01", "6", "Food", "early"),
			income,
			Tx("U002", "2025-03-02", "7", "Food", "other owner"),
			Tx("U001", "2025-04-01", "8", "Rent", "april"),
		)
		if err != nil {
			t.Fatalf("append: %v", err)
		}

		all, _ := s.Scan(ctx, "U001", ledger.Filter{})
		if descs(all) != "early,pay,late,april" {
			t.Fatalf("unexpected order %s", descs(all))
		}
		desc, _ := s.Scan(ctx, "U001", ledger.Filter{Descending: true})
		if descs(desc) != "april,late,pay,early" {
			t.Fatalf("unexpected descending order %s", descs(desc))
		}
		march, _ := s.Scan(ctx, "U001", ledger.Filter{
			From: core.NewDate(2025, 3, 1),
			To:   core.NewDate(2025, 3, 10),
		})
		if descs(march) != "early,pay,late" {
			t.Fatalf("date range should be inclusive, got %s", descs(march))
		}
		food, _ := s.Scan(ctx, "U001", ledger.Filter{Category: "Food", Kind: core.Expense})
		if descs(food) != "early,late" {
			t.Fatalf("unexpected category filter result %s", descs(food))
		}
		bank, _ := s.Scan(ctx, "U001", ledger.Filter{PaymentMethod: core.BankTransfer})
		if descs(bank) != "pay" {
			t.Fatalf("unexpected method filter result %s", descs(bank))
		}
		none, err := s.Scan(ctx, "U404", ledger.Filter{})
		if err != nil || len(none) != 0 {
			t.Fatalf("unknown owner: %v %v", none, err)
		}
	})

	t.Run("same date sorts by id", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		s.Append(ctx,
			Tx("U001", "2025-05-01", "1", "Food", "first"),
			Tx("U001", "2025-05-01", "1", "Food", "second"),
		)
		rows, _ := s.Scan(ctx, "U001", ledger.Filter{})
		if descs(rows) != "first,second" {
			t.Fatalf("unexpected order %s", descs(rows))
		}
	})

	t.Run("ids past six digits sort numerically", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		big := Tx("U001", "2025-05-01", "1", "Food", "big")
		big.ID = "T1000000"
		small := Tx("U001", "2025-05-01", "1", "Food", "small")
		small.ID = "T999999"
		if _, err := s.Append(ctx, big, small); err != nil {
			t.Fatalf("append: %v", err)
		}
		rows, _ := s.Scan(ctx, "U001", ledger.Filter{})
		if descs(rows) != "small,big" {
			t.Fatalf("unexpected order %s", descs(rows))
		}
		rows, _ = s.Scan(ctx, "U001", ledger.Filter{Descending: true})
		if descs(rows) != "big,small" {
			t.Fatalf("unexpected descending order %s", descs(rows))
		}
		if id, err := s.NextID(ctx); err != nil || id != "T1000001" {
			t.Fatalf("expected T1000001, got %q (err=%v)", id, err)
		}
	})

	t.Run("replace category", func(t *testing.T) {
		s := f.Open(t)
		defer s.Close()
		s.Append(ctx,
			Tx("U001", "2025-01-01", "1", "Groceries", "a"),
			Tx("U001", "2025-01-02", "1", "Supermarket", "b"),
			Tx("U001", "2025-01-03", "1", "Rent", "c"),
			Tx("U002", "2025-01-04", "1", "Groceries", "d"),
		)
		n, err := s.ReplaceCategory(ctx, "U001", []string{"Groceries", "Supermarket"}, "Food")
		if err != nil || n != 2 {
			t.Fatalf("expected 2 rows changed, got %d (err=%v)", n, err)
		}
		food, _ := s.Scan(ctx, "U001", ledger.Filter{Category: "Food"})
		if descs(food) != "a,b" {
			t.Fatalf("unexpected rows %s", descs(food))
		}
		other, _ := s.Scan(ctx, "U002", ledger.Filter{Category: "Groceries"})
		if len(other) != 1 {
			t.Fatalf("other owners must be untouched, got %d rows", len(other))
		}
	})

	if f.Reopen != nil {
		t.Run("data survives reopen", func(t *testing.T) {
			s := f.Open(t)
			s.Append(ctx, Tx("U001", "2025-01-01", "1.5", "Food", "kept"))
			s = f.Reopen(t, s)
			defer s.Close()
			got, err := s.FindByID(ctx, "T000001")
			if err != nil || got.Description != "kept" || got.Amount.String() != "1.50" {
				t.Fatalf("unexpected row %+v (err=%v)", got, err)
			}
		})
	}
}

func descs(rows []core.Transaction) string {
	out := ""
	for i, r := range rows {
		if i > 0 {
			out += ","
		}
		out += r.Description
	}
	return out
}
