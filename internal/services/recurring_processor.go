package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/schedule"
)

// ScheduleReader is the part of the schedule store the poster needs.
type ScheduleReader interface {
	List(owner string) ([]schedule.Entry, error)
	Owners() ([]string, error)
}

// RecurringProcessor materializes schedule entries into ledger rows. Posting
// the same month twice adds nothing the second time.
type RecurringProcessor struct {
	schedule ScheduleReader
	store    ledger.Store
}

func NewRecurringProcessor(sched ScheduleReader, store ledger.Store) *RecurringProcessor {
	return &RecurringProcessor{schedule: sched, store: store}
}

// PostDue posts the owner's entries for month. posted counts new rows,
// present counts entries already in the ledger.
func (p *RecurringProcessor) PostDue(ctx context.Context, owner string, month core.Month) (posted, present int, err error) {
	if p.schedule == nil || p.store == nil {
		return 0, 0, fmt.Errorf("processor not properly initialized")
	}

	entries, err := p.schedule.List(owner)
	if err != nil {
		return 0, 0, fmt.Errorf("list schedule for %s: %w", owner, err)
	}
	if len(entries) == 0 {
		return 0, 0, nil
	}

	existing, err := p.store.Scan(ctx, owner, ledger.Filter{From: month.First(), To: month.Last()})
	if err != nil {
		return 0, 0, fmt.Errorf("scan ledger for %s: %w", owner, err)
	}
	seen := make(map[core.PostingKey]struct{}, len(existing))
	for _, t := range existing {
		seen[t.PostingKey()] = struct{}{}
	}

	var batch []core.Transaction
	for _, e := range entries {
		tx, err := core.NewTransaction(owner, e.Input(month))
		if err != nil {
			return 0, 0, fmt.Errorf("entry %s/%s: %w", e.Category, e.Description, err)
		}
		key := tx.PostingKey()
		if _, ok := seen[key]; ok {
			present++
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, tx)
	}

	if len(batch) > 0 {
		if _, err := p.store.Append(ctx, batch...); err != nil {
			return 0, 0, fmt.Errorf("append postings: %w", err)
		}
	}
	posted = len(batch)

	slog.InfoContext(ctx, "Recurring entries posted",
		"owner_id", owner,
		"month", month.String(),
		"posted", posted,
		"present", present)
	return posted, present, nil
}

// PostAll runs PostDue for every owner with a schedule. A failing owner does
// not stop the others; their errors are joined.
func (p *RecurringProcessor) PostAll(ctx context.Context, month core.Month) (posted, present int, err error) {
	owners, err := p.schedule.Owners()
	if err != nil {
		return 0, 0, fmt.Errorf("list schedule owners: %w", err)
	}

	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, m, err := p.PostDue(ctx, owner, month)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to post recurring entries", "owner_id", owner, "error", err)
			errs = append(errs, err)
			continue
		}
		posted += n
		present += m
	}
	return posted, present, errors.Join(errs...)
}
