// Package ledger defines the transaction store contract shared by the CSV,
// SQLite and in-memory backends, and the query filter external readers use.
package ledger

import (
	"context"
	"sort"

	"ledgerkeep/internal/core"
)

// Updater receives the current row and returns its replacement. Returning
// false leaves the row untouched.
type Updater func(current core.Transaction) (core.Transaction, bool)

// Ports implemented by every backend.
type (
	Appender interface {
		// Append writes validated records. Records without an id get the
		// next free one; the assigned ids are returned in order.
		Append(ctx context.Context, txs ...core.Transaction) ([]string, error)
		// NextID returns the id the next appended record would get.
		NextID(ctx context.Context) (string, error)
	}

	Reader interface {
		// FindByID returns an error matching core.ErrNotFound when absent.
		FindByID(ctx context.Context, id string) (core.Transaction, error)
		// Scan returns an owner's rows matching f, sorted by (date, id).
		Scan(ctx context.Context, owner string, f Filter) ([]core.Transaction, error)
	}

	Rewriter interface {
		// Edit replaces one row and reports whether a change was stored.
		// The row keeps its id whatever the updater returns.
		Edit(ctx context.Context, id string, fn Updater) (bool, error)
		// Delete removes one row and reports whether it existed.
		Delete(ctx context.Context, id string) (bool, error)
		// ReplaceCategory moves an owner's rows from any of the given
		// categories to another one and returns how many rows changed.
		ReplaceCategory(ctx context.Context, owner string, from []string, to string) (int, error)
	}

	Store interface {
		Appender
		Reader
		Rewriter
		Close() error
	}
)

// Filter narrows a scan. Zero-valued fields do not filter.
type Filter struct {
	From          core.Date // inclusive
	To            core.Date // inclusive
	Category      string
	PaymentMethod core.PaymentMethod
	Kind          core.Kind
	Descending    bool
}

// Match reports whether t passes every filter that is set.
func (f Filter) Match(t core.Transaction) bool {
	if !f.From.IsZero() && t.OccurredOn.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.OccurredOn.After(f.To) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.PaymentMethod != "" && t.PaymentMethod != f.PaymentMethod {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	return true
}

// Sort orders rows by (occurred_on, id).
func Sort(txs []core.Transaction, descending bool) {
	sort.SliceStable(txs, func(i, j int) bool {
		if descending {
			i, j = j, i
		}
		a, b := txs[i], txs[j]
		if !a.OccurredOn.Equal(b.OccurredOn.Time) {
			return a.OccurredOn.Before(b.OccurredOn)
		}
		return idLess(a.ID, b.ID)
	})
}

// idLess orders ids by their numeric suffix so T1000000 follows T999999.
func idLess(a, b string) bool {
	na, okA := core.ParseIDNumber(a)
	nb, okB := core.ParseIDNumber(b)
	if okA && okB && na != nb {
		return na < nb
	}
	return a < b
}
