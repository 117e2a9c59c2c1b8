package csvfile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/ledgertest"
)

func TestStoreContract(t *testing.T) {
	ledgertest.Run(t, ledgertest.Factory{
		Open: func(t *testing.T) ledger.Store {
			s, err := Open(filepath.Join(t.TempDir(), "transactions.csv"))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			return s
		},
		Reopen: func(t *testing.T, s ledger.Store) ledger.Store {
			s.Close()
			re, err := Open(s.(*Store).Path())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			return re
		},
	})
}

func TestAppendWritesHeaderFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s, _ := Open(path)
	if _, err := s.Append(context.Background(), ledgertest.Tx("U001", "2025-01-01", "3.5", "Food", "lunch, with friends")); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "transaction_id,owner_id,kind,amount,category,occurred_on,description,payment_method\n" +
		"T000001,U001,expense,3.50,Food,2025-01-01,\"lunch, with friends\",Cash\n"
	if string(raw) != want {
		t.Fatalf("unexpected file:\n%s", raw)
	}
	seq, _ := os.ReadFile(path + SeqSuffix)
	if strings.TrimSpace(string(seq)) != "1" {
		t.Fatalf("unexpected sequence file %q", seq)
	}
}

func TestDeleteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(filepath.Join(dir, "transactions.csv"))
	ctx := context.Background()
	s.Append(ctx, ledgertest.Tx("U001", "2025-01-01", "1", "Food", "a"))
	if ok, err := s.Delete(ctx, "T000001"); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("expected ledger and sequence files only, got %v", entries)
	}
}

func TestCorruptLedgerIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	content := strings.Join(Header, ",") + "\n" +
		"T000001,U001,expense,1.00,Food,2025-01-01,,Cash\n" +
		"T000002,U001,expense,abc,Food,2025-01-01,,Cash\n"
	os.WriteFile(path, []byte(content), 0o644)

	s, _ := Open(path)
	_, err := s.Scan(context.Background(), "U001", ledger.Filter{})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected amount error, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error should carry the line number: %v", err)
	}
}

func TestDecodeMapsColumnsByName(t *testing.T) {
	in := "payment_method,occurred_on,amount,kind,owner_id,transaction_id,category,description\n" +
		"Wallet,2025-02-03,12,income,U002,T000009,Gift,birthday\n"
	rows, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	r := rows[0]
	if r.ID != "T000009" || r.OwnerID != "U002" || r.Kind != core.Income || r.Amount.String() != "12.00" ||
		r.PaymentMethod != core.Wallet || r.OccurredOn.String() != "2025-02-03" {
		t.Fatalf("unexpected row %+v", r)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, rows); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(Header, ",")+"\n") {
		t.Fatalf("encode must write the canonical header, got %q", buf.String())
	}
}

func TestDecodeRejectsMissingColumn(t *testing.T) {
	_, err := Decode(strings.NewReader("transaction_id,owner_id\nT000001,U001\n"))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	rows, err := Decode(strings.NewReader(""))
	if err != nil || len(rows) != 0 {
		t.Fatalf("empty input: rows=%v err=%v", rows, err)
	}
}
