// Package storage is the SQLite ledger backend. Each mutation runs in one
// database transaction, so a failed append or edit leaves no partial rows.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nextSeq(ctx context.Context, q *Queries) (int64, error) {
	hw, err := q.GetHighWater(ctx)
	if err != nil {
		return 0, fmt.Errorf("get id high-water mark: %w", err)
	}
	top, err := q.GetMaxSeq(ctx)
	if err != nil {
		return 0, fmt.Errorf("get max id: %w", err)
	}
	return max(hw, top) + 1, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, txs ...core.Transaction) ([]string, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	var ids []string
	err := r.inTx(ctx, func(q *Queries) error {
		next, err := nextSeq(ctx, q)
		if err != nil {
			return err
		}
		high := int64(0)
		ids = make([]string, 0, len(txs))
		for _, t := range txs {
			var seq int64
			if t.ID == "" {
				for {
					taken, err := q.SeqExists(ctx, next)
					if err != nil {
						return fmt.Errorf("check id: %w", err)
					}
					if !taken {
						break
					}
					next++
				}
				seq = next
				t.ID = core.FormatID(int(seq))
			} else {
				n, _ := core.ParseIDNumber(t.ID)
				seq = int64(n)
				taken, err := q.SeqExists(ctx, seq)
				if err != nil {
					return fmt.Errorf("check id: %w", err)
				}
				if taken {
					return core.Conflict("transaction %s already exists", t.ID)
				}
			}

			row := toRow(t)
			row.Seq = seq
			if err := q.InsertTransaction(ctx, row); err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
			if seq >= next {
				next = seq + 1
			}
			high = max(high, seq)
			ids = append(ids, t.ID)
		}
		if err := q.RaiseHighWater(ctx, high); err != nil {
			return fmt.Errorf("raise id high-water mark: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Transactions appended to SQLite", "count", len(ids))
	return ids, nil
}

func (r *SQLiteRepository) NextID(ctx context.Context) (string, error) {
	next, err := nextSeq(ctx, r.queries)
	if err != nil {
		return "", err
	}
	return core.FormatID(int(next)), nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction %s", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return fromRow(row)
}

func (r *SQLiteRepository) Scan(ctx context.Context, owner string, f ledger.Filter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ScanParams{
		OwnerID:       owner,
		From:          f.From.String(),
		To:            f.To.String(),
		Category:      f.Category,
		PaymentMethod: string(f.PaymentMethod),
		Kind:          string(f.Kind),
		Descending:    f.Descending,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) Edit(ctx context.Context, id string, fn ledger.Updater) (bool, error) {
	changed := false
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction %s: %w", id, err)
		}
		cur, err := fromRow(row)
		if err != nil {
			return err
		}
		repl, ok := fn(cur)
		if !ok {
			return nil
		}
		repl.ID = cur.ID
		if err := repl.Validate(); err != nil {
			return err
		}
		if err := q.UpdateTransaction(ctx, toRow(repl)); err != nil {
			return fmt.Errorf("update transaction %s: %w", id, err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.DeleteTransaction(ctx, id)
		if err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}
		if n == 0 {
			return nil
		}
		if num, ok := core.ParseIDNumber(id); ok {
			if err := q.RaiseHighWater(ctx, int64(num)); err != nil {
				return fmt.Errorf("raise id high-water mark: %w", err)
			}
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		slog.InfoContext(ctx, "Transaction deleted from SQLite", "transaction_id", id)
	}
	return removed, nil
}

func (r *SQLiteRepository) ReplaceCategory(ctx context.Context, owner string, from []string, to string) (int, error) {
	if len(from) == 0 {
		return 0, nil
	}
	n, err := r.queries.ReplaceCategory(ctx, owner, from, to)
	if err != nil {
		return 0, fmt.Errorf("replace category: %w", err)
	}
	return int(n), nil
}

func toRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		TransactionID: t.ID,
		OwnerID:       t.OwnerID,
		Kind:          string(t.Kind),
		Amount:        t.Amount.String(),
		Category:      t.Category,
		OccurredOn:    t.OccurredOn.String(),
		Description:   t.Description,
		PaymentMethod: string(t.PaymentMethod),
	}
}

func fromRow(row TransactionRow) (core.Transaction, error) {
	t, err := core.NewTransaction(row.OwnerID, core.TransactionInput{
		Kind:          row.Kind,
		Amount:        row.Amount,
		Category:      row.Category,
		Date:          row.OccurredOn,
		Description:   row.Description,
		PaymentMethod: row.PaymentMethod,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", row.TransactionID, err)
	}
	t.ID = row.TransactionID
	return t, nil
}

var _ ledger.Store = (*SQLiteRepository)(nil)
