package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ledgerkeep/internal/core"
)

// Header is the ledger table's column order.
var Header = []string{
	"transaction_id",
	"owner_id",
	"kind",
	"amount",
	"category",
	"occurred_on",
	"description",
	"payment_method",
}

// Encode writes the header followed by one line per record.
func Encode(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range txs {
		rec := []string{
			t.ID,
			t.OwnerID,
			string(t.Kind),
			t.Amount.String(),
			t.Category,
			t.OccurredOn.String(),
			t.Description,
			string(t.PaymentMethod),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a ledger table. Columns are located by header name, so their
// order in the file does not matter. A malformed row fails the whole read.
func Decode(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(head))
	for i, name := range head {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range Header {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("ledger header is missing column %q", name)
		}
	}

	var out []core.Transaction
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		field := func(name string) string {
			if i := col[name]; i < len(rec) {
				return rec[i]
			}
			return ""
		}
		tx, err := core.NewTransaction(field("owner_id"), core.TransactionInput{
			Kind:          field("kind"),
			Amount:        field("amount"),
			Category:      field("category"),
			Date:          field("occurred_on"),
			Description:   field("description"),
			PaymentMethod: field("payment_method"),
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tx.ID = strings.TrimSpace(field("transaction_id"))
		if tx.ID == "" {
			return nil, fmt.Errorf("line %d: %w", line,
				core.Invalid("transaction_id", core.ErrInvalidID, "stored row has no transaction id"))
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, tx)
	}
}
