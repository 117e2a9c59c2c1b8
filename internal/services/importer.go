package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/csvfile"
)

// Import field names and the defaults used when a column is absent.
const (
	DefaultImportKind          = "expense"
	DefaultImportCategory      = "Uncategorized"
	DefaultImportPaymentMethod = "Cash"
)

var fieldAliases = map[string]string{
	"date":    "occurred_on",
	"type":    "kind",
	"user_id": "owner_id",
	"id":      "transaction_id",
}

// ColumnMap renames external CSV headers to ledger field names before any
// row is validated.
type ColumnMap struct {
	Columns map[string]string `yaml:"columns"`
}

// LoadColumnMap reads a YAML file of the form
//
//	columns:
//	  Booking Date: date
//	  Value: amount
func LoadColumnMap(path string) (ColumnMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ColumnMap{}, core.WrapIO("read column map", path, err)
	}
	var cm ColumnMap
	if err := yaml.Unmarshal(raw, &cm); err != nil {
		return ColumnMap{}, fmt.Errorf("parse column map %s: %w", path, err)
	}
	return cm, nil
}

// field resolves one external header to a ledger field name, or "" when the
// column is not a ledger field.
func (cm ColumnMap) field(header string) string {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if mapped, ok := cm.Columns[h]; ok {
		h = mapped
	} else {
		for from, to := range cm.Columns {
			if strings.EqualFold(from, h) {
				h = to
				break
			}
		}
	}
	h = strings.ToLower(strings.TrimSpace(h))
	if alias, ok := fieldAliases[h]; ok {
		h = alias
	}
	for _, known := range csvfile.Header {
		if h == known {
			return h
		}
	}
	return ""
}

// Importer merges external batches into the ledger without duplicating
// events already recorded.
type Importer struct {
	store ledger.Store
}

func NewImporter(store ledger.Store) *Importer {
	return &Importer{store: store}
}

// Import reads a CSV batch with a header row into the owner's ledger. Rows
// that cannot be parsed or fail validation and rows whose (date, amount,
// description) already exist are all counted as skipped. A file without an
// amount or date column skips every row. Row ids and owners in the file are
// ignored; the ledger assigns fresh ids.
func (im *Importer) Import(ctx context.Context, owner string, r io.Reader, cm ColumnMap) (added, skipped int, err error) {
	if strings.TrimSpace(owner) == "" {
		return 0, 0, core.Invalid("owner_id", core.ErrMissingOwner, "missing owner id")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range head {
		if f := cm.field(h); f != "" {
			if _, dup := col[f]; !dup {
				col[f] = i
			}
		}
	}
	for _, required := range []string{"amount", "occurred_on"} {
		if _, ok := col[required]; !ok {
			slog.WarnContext(ctx, "Import file has no "+required+" column, every row will be skipped")
		}
	}

	existing, err := im.store.Scan(ctx, owner, ledger.Filter{})
	if err != nil {
		return 0, 0, fmt.Errorf("scan ledger: %w", err)
	}
	seen := make(map[core.ImportKey]struct{}, len(existing))
	for _, t := range existing {
		seen[t.ImportKey()] = struct{}{}
	}

	invalid := 0
	var batch []core.Transaction
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			slog.DebugContext(ctx, "Skipping unreadable import row", "line", perr.Line, "error", err)
			invalid++
			skipped++
			continue
		}
		if err != nil {
			return 0, 0, fmt.Errorf("read import file: %w", err)
		}
		get := func(field, def string) string {
			i, ok := col[field]
			if !ok || i >= len(rec) {
				return def
			}
			if def != "" && strings.TrimSpace(rec[i]) == "" {
				return def
			}
			return rec[i]
		}
		tx, err := core.NewTransaction(owner, core.TransactionInput{
			Kind:          get("kind", DefaultImportKind),
			Amount:        get("amount", ""),
			Category:      get("category", DefaultImportCategory),
			Date:          get("occurred_on", ""),
			Description:   get("description", ""),
			PaymentMethod: get("payment_method", DefaultImportPaymentMethod),
		})
		if err != nil {
			line, _ := cr.FieldPos(0)
			slog.DebugContext(ctx, "Skipping invalid import row", "line", line, "error", err)
			invalid++
			skipped++
			continue
		}
		key := tx.ImportKey()
		if _, ok := seen[key]; ok {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, tx)
	}

	if len(batch) > 0 {
		if _, err := im.store.Append(ctx, batch...); err != nil {
			return 0, 0, fmt.Errorf("append imported rows: %w", err)
		}
	}
	added = len(batch)

	slog.InfoContext(ctx, "Import complete",
		"owner_id", owner,
		"added", added,
		"skipped", skipped,
		"invalid", invalid)
	return added, skipped, nil
}

// ImportFile opens path and imports it.
func (im *Importer) ImportFile(ctx context.Context, owner, path string, cm ColumnMap) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, core.WrapIO("open import file", path, err)
	}
	defer f.Close()
	return im.Import(ctx, owner, f, cm)
}

// Export writes the owner's rows, oldest first, in the ledger table format.
// The header is written even when the owner has no rows.
func (im *Importer) Export(ctx context.Context, owner string, w io.Writer) (int, error) {
	rows, err := im.store.Scan(ctx, owner, ledger.Filter{})
	if err != nil {
		return 0, fmt.Errorf("scan ledger: %w", err)
	}
	if err := csvfile.Encode(w, rows); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(rows), nil
}
