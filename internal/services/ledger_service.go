package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"ledgerkeep/internal/amqp"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
)

// EventPublisher receives change notifications. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// LedgerService is the manual-entry write path: everything goes through the
// codec, then the store, then an optional event.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
}

// NewLedgerService accepts a nil publisher when events are disabled.
func NewLedgerService(store ledger.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// Store exposes the underlying ledger for read-side callers.
func (s *LedgerService) Store() ledger.Store { return s.store }

// CreateTransaction validates raw input and appends one record.
func (s *LedgerService) CreateTransaction(ctx context.Context, owner string, in core.TransactionInput) (core.Transaction, error) {
	tx, err := core.NewTransaction(owner, in)
	if err != nil {
		return core.Transaction{}, err
	}
	ids, err := s.store.Append(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	tx.ID = ids[0]

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", tx.ID,
		"owner_id", tx.OwnerID,
		"kind", tx.Kind,
		"amount", tx.Amount.String(),
		"category", tx.Category)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionCreated, tx.OwnerID, tx.ID))
	return tx, nil
}

// EditTransaction overlays the non-empty fields of patch onto the owner's
// row. It returns the stored row and whether anything changed.
func (s *LedgerService) EditTransaction(ctx context.Context, owner, id string, patch core.TransactionInput) (core.Transaction, bool, error) {
	cur, err := s.ownedRow(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, false, err
	}

	merged := mergeInput(cur.Input(), patch)
	next, err := core.NewTransaction(cur.OwnerID, merged)
	if err != nil {
		return core.Transaction{}, false, err
	}
	next.ID = cur.ID
	if next.Input() == cur.Input() {
		return cur, false, nil
	}

	changed, err := s.store.Edit(ctx, id, func(row core.Transaction) (core.Transaction, bool) {
		if row.OwnerID != owner {
			return row, false
		}
		return next, true
	})
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("edit transaction %s: %w", id, err)
	}
	if !changed {
		return cur, false, nil
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id, "owner_id", owner)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, owner, id))
	return next, true, nil
}

// DeleteTransaction removes one of the owner's rows.
func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) error {
	if _, err := s.ownedRow(ctx, owner, id); err != nil {
		return err
	}
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if !removed {
		return core.NotFound("transaction %s", id)
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "owner_id", owner)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionDeleted, owner, id))
	return nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, owner string, f ledger.Filter) ([]core.Transaction, error) {
	return s.store.Scan(ctx, owner, f)
}

// Categories returns the owner's distinct categories, sorted.
func (s *LedgerService) Categories(ctx context.Context, owner string) ([]string, error) {
	rows, err := s.store.Scan(ctx, owner, ledger.Filter{})
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, r := range rows {
		seen[r.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// RenameCategory moves every row of one category to a new label.
func (s *LedgerService) RenameCategory(ctx context.Context, owner, from, to string) (int, error) {
	return s.MergeCategories(ctx, owner, []string{from}, to)
}

// MergeCategories folds the source categories into target. A source the
// owner never used is reported as not found.
func (s *LedgerService) MergeCategories(ctx context.Context, owner string, sources []string, target string) (int, error) {
	target, err := core.ValidateCategory(target)
	if err != nil {
		return 0, err
	}
	existing, err := s.Categories(ctx, owner)
	if err != nil {
		return 0, err
	}
	from := make([]string, 0, len(sources))
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if !slices.Contains(existing, src) {
			return 0, core.NotFound("category %q", src)
		}
		if src != target {
			from = append(from, src)
		}
	}
	if len(from) == 0 {
		return 0, nil
	}

	n, err := s.store.ReplaceCategory(ctx, owner, from, target)
	if err != nil {
		return 0, fmt.Errorf("replace category: %w", err)
	}

	slog.InfoContext(ctx, "Categories replaced",
		"owner_id", owner,
		"from", from,
		"category", target,
		"rows", n)

	if n > 0 {
		ev := amqp.NewTransactionEvent(amqp.EventCategoryReplaced, owner, "")
		ev.Count = n
		s.publish(ctx, ev)
	}
	return n, nil
}

func (s *LedgerService) ownedRow(ctx context.Context, owner, id string) (core.Transaction, error) {
	cur, err := s.store.FindByID(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if cur.OwnerID != owner {
		return core.Transaction{}, core.NotFound("transaction %s", id)
	}
	return cur, nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		// The ledger write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event", ev.Event,
			"transaction_id", ev.TransactionID,
			"error", err)
	}
}

// Close closes the store and, when it holds a connection, the publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

func mergeInput(base, patch core.TransactionInput) core.TransactionInput {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&base.Kind, patch.Kind)
	set(&base.Amount, patch.Amount)
	set(&base.Category, patch.Category)
	set(&base.Date, patch.Date)
	set(&base.Description, patch.Description)
	set(&base.PaymentMethod, patch.PaymentMethod)
	return base
}
