package storage

import (
	"context"
	"strings"
)

const transactionColumns = `seq, transaction_id, owner_id, kind, amount, category, occurred_on, description, payment_method`

const getHighWater = `SELECT value FROM id_sequence WHERE name = 'transactions'`

func (q *Queries) GetHighWater(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, getHighWater)
	var value int64
	err := row.Scan(&value)
	return value, err
}

const raiseHighWater = `UPDATE id_sequence SET value = MAX(value, ?) WHERE name = 'transactions'`

func (q *Queries) RaiseHighWater(ctx context.Context, value int64) error {
	_, err := q.db.ExecContext(ctx, raiseHighWater, value)
	return err
}

const getMaxSeq = `SELECT COALESCE(MAX(seq), 0) FROM transactions`

func (q *Queries) GetMaxSeq(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, getMaxSeq)
	var top int64
	err := row.Scan(&top)
	return top, err
}

const seqExists = `SELECT EXISTS (SELECT 1 FROM transactions WHERE seq = ?)`

func (q *Queries) SeqExists(ctx context.Context, seq int64) (bool, error) {
	row := q.db.QueryRowContext(ctx, seqExists, seq)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.Seq,
		arg.TransactionID,
		arg.OwnerID,
		arg.Kind,
		arg.Amount,
		arg.Category,
		arg.OccurredOn,
		arg.Description,
		arg.PaymentMethod,
	)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(
		&i.Seq,
		&i.TransactionID,
		&i.OwnerID,
		&i.Kind,
		&i.Amount,
		&i.Category,
		&i.OccurredOn,
		&i.Description,
		&i.PaymentMethod,
	)
	return i, err
}

const updateTransaction = `UPDATE transactions
SET owner_id = ?, kind = ?, amount = ?, category = ?, occurred_on = ?, description = ?, payment_method = ?
WHERE transaction_id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.OwnerID,
		arg.Kind,
		arg.Amount,
		arg.Category,
		arg.OccurredOn,
		arg.Description,
		arg.PaymentMethod,
		arg.TransactionID,
	)
	return err
}

const deleteTransaction = `DELETE FROM transactions WHERE transaction_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReplaceCategory expands one placeholder per source category.
func (q *Queries) ReplaceCategory(ctx context.Context, owner string, from []string, to string) (int64, error) {
	query := `UPDATE transactions SET category = ? WHERE owner_id = ? AND category <> ? AND category IN (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ") + `)`
	args := make([]interface{}, 0, len(from)+3)
	args = append(args, to, owner, to)
	for _, c := range from {
		args = append(args, c)
	}
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ScanParams narrows ListTransactions. Empty strings do not filter.
type ScanParams struct {
	OwnerID       string
	From          string
	To            string
	Category      string
	PaymentMethod string
	Kind          string
	Descending    bool
}

func (q *Queries) ListTransactions(ctx context.Context, arg ScanParams) ([]TransactionRow, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ?`)
	args := []interface{}{arg.OwnerID}
	where := func(clause, value string) {
		if value != "" {
			sb.WriteString(" AND " + clause)
			args = append(args, value)
		}
	}
	where("occurred_on >= ?", arg.From)
	where("occurred_on <= ?", arg.To)
	where("category = ?", arg.Category)
	where("payment_method = ?", arg.PaymentMethod)
	where("kind = ?", arg.Kind)

	dir := "ASC"
	if arg.Descending {
		dir = "DESC"
	}
	sb.WriteString(" ORDER BY occurred_on " + dir + ", seq " + dir)

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.Seq,
			&i.TransactionID,
			&i.OwnerID,
			&i.Kind,
			&i.Amount,
			&i.Category,
			&i.OccurredOn,
			&i.Description,
			&i.PaymentMethod,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
