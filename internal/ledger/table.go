package ledger

import (
	"slices"

	"ledgerkeep/internal/core"
)

// Table is a whole-ledger image held in memory. The memory store keeps one
// for its lifetime; the CSV store loads one per operation and writes it back.
type Table struct {
	Rows []core.Transaction
	// HighWater is the largest id number ever assigned, including ids of
	// rows deleted since.
	HighWater int
}

// NextNumber returns the numeric suffix of the next id.
func (t *Table) NextNumber() int {
	max := t.HighWater
	for _, r := range t.Rows {
		if n, ok := core.ParseIDNumber(r.ID); ok && n > max {
			max = n
		}
	}
	return max + 1
}

// Append validates and adds rows, assigning ids where missing. Nothing is
// added when any row is rejected.
func (t *Table) Append(txs []core.Transaction) ([]string, error) {
	taken := make(map[int]bool, len(t.Rows)+len(txs))
	for _, r := range t.Rows {
		if n, ok := core.ParseIDNumber(r.ID); ok {
			taken[n] = true
		}
	}

	next := t.NextNumber()
	high := t.HighWater
	added := make([]core.Transaction, 0, len(txs))
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		var n int
		if tx.ID == "" {
			for taken[next] {
				next++
			}
			n = next
			tx.ID = core.FormatID(n)
		} else {
			n, _ = core.ParseIDNumber(tx.ID)
			if taken[n] {
				return nil, core.Conflict("transaction %s already exists", tx.ID)
			}
		}
		taken[n] = true
		if n >= next {
			next = n + 1
		}
		if n > high {
			high = n
		}
		added = append(added, tx)
		ids = append(ids, tx.ID)
	}

	t.Rows = append(t.Rows, added...)
	t.HighWater = high
	return ids, nil
}

// Find returns the row with the given id.
func (t *Table) Find(id string) (core.Transaction, bool) {
	i := t.index(id)
	if i < 0 {
		return core.Transaction{}, false
	}
	return t.Rows[i], true
}

// Edit applies fn to the row with the given id.
func (t *Table) Edit(id string, fn Updater) (bool, error) {
	i := t.index(id)
	if i < 0 {
		return false, nil
	}
	repl, ok := fn(t.Rows[i])
	if !ok {
		return false, nil
	}
	repl.ID = t.Rows[i].ID
	if err := repl.Validate(); err != nil {
		return false, err
	}
	t.Rows[i] = repl
	return true, nil
}

// Delete removes the row with the given id.
func (t *Table) Delete(id string) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	if n, ok := core.ParseIDNumber(id); ok && n > t.HighWater {
		t.HighWater = n
	}
	t.Rows = slices.Delete(t.Rows, i, i+1)
	return true
}

// ReplaceCategory rewrites the category of an owner's matching rows.
func (t *Table) ReplaceCategory(owner string, from []string, to string) int {
	changed := 0
	for i, r := range t.Rows {
		if r.OwnerID == owner && slices.Contains(from, r.Category) && r.Category != to {
			t.Rows[i].Category = to
			changed++
		}
	}
	return changed
}

// Scan returns a sorted copy of the owner's rows matching f.
func (t *Table) Scan(owner string, f Filter) []core.Transaction {
	var out []core.Transaction
	for _, r := range t.Rows {
		if r.OwnerID == owner && f.Match(r) {
			out = append(out, r)
		}
	}
	Sort(out, f.Descending)
	return out
}

func (t *Table) index(id string) int {
	return slices.IndexFunc(t.Rows, func(r core.Transaction) bool { return r.ID == id })
}
