package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"

	"ledgerkeep/internal/config"
	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/csvfile"
	"ledgerkeep/internal/log"
)

func testApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LEDGER_OWNER", "")
	t.Setenv("LEDGER_PIN", "")
	return &app{
		cfg:    config.Load(),
		logger: log.New(log.Config{Output: io.Discard, Component: log.ComponentCLI}),
	}
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: parse flags: %v", cmd.Name(), err)
	}
	return cmd.Execute(context.Background(), f)
}

func ledgerRows(t *testing.T, a *app) []core.Transaction {
	t.Helper()
	s, err := csvfile.Open(a.cfg.LedgerCSVPath)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	rows, err := s.Scan(context.Background(), "U001", ledger.Filter{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return rows
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		err  error
		want subcommands.ExitStatus
	}{
		{nil, subcommands.ExitSuccess},
		{core.Invalid("amount", core.ErrInvalidAmount, "bad"), subcommands.ExitUsageError},
		{core.NotFound("missing"), subcommands.ExitFailure},
		{errors.New("boom"), subcommands.ExitFailure},
	}
	for _, tt := range tests {
		if got := exit(tt.err); got != tt.want {
			t.Errorf("exit(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestTransactionCommands(t *testing.T) {
	a := testApp(t)

	if got := run(t, &registerCmd{app: a}, "-name", "alice", "-pin", "1234"); got != subcommands.ExitSuccess {
		t.Fatalf("register: %v", got)
	}

	add := []string{"-owner", "U001", "-amount", "12.5", "-category", "Food", "-date", "2025-03-04", "-desc", "lunch"}
	if got := run(t, &addCmd{app: a}, add...); got != subcommands.ExitSuccess {
		t.Fatalf("add: %v", got)
	}
	if got := run(t, &addCmd{app: a}, "-owner", "U999", "-amount", "1", "-category", "Food"); got != subcommands.ExitFailure {
		t.Fatalf("unregistered owner should fail, got %v", got)
	}
	if got := run(t, &addCmd{app: a}, "-owner", "U001", "-amount", "-1", "-category", "Food"); got != subcommands.ExitUsageError {
		t.Fatalf("negative amount should be a usage error, got %v", got)
	}

	if got := run(t, &editCmd{app: a}, "-owner", "U001", "-category", "Dining", "T000001"); got != subcommands.ExitSuccess {
		t.Fatalf("edit: %v", got)
	}
	rows := ledgerRows(t, a)
	if len(rows) != 1 || rows[0].Category != "Dining" || rows[0].Amount.String() != "12.50" {
		t.Fatalf("unexpected rows after edit: %+v", rows)
	}

	if got := run(t, &deleteCmd{app: a}, "-owner", "U001", "T000001"); got != subcommands.ExitSuccess {
		t.Fatalf("delete: %v", got)
	}
	if got := run(t, &addCmd{app: a}, add...); got != subcommands.ExitSuccess {
		t.Fatalf("second add: %v", got)
	}
	rows = ledgerRows(t, a)
	if len(rows) != 1 || rows[0].ID != "T000002" {
		t.Fatalf("deleted id must not be reused: %+v", rows)
	}

	if got := run(t, &editCmd{app: a}, "-owner", "U001"); got != subcommands.ExitUsageError {
		t.Fatalf("edit without id should be a usage error, got %v", got)
	}
}

func TestPostCommandIsIdempotent(t *testing.T) {
	a := testApp(t)

	recur := []string{"-owner", "U001", "-category", "Rent", "-amount", "900", "-day", "5", "-method", "Bank Transfer"}
	if got := run(t, &recurAddCmd{app: a}, recur...); got != subcommands.ExitSuccess {
		t.Fatalf("recur-add: %v", got)
	}
	for i := 0; i < 2; i++ {
		if got := run(t, &postCmd{app: a}, "-owner", "U001", "-month", "2025-02"); got != subcommands.ExitSuccess {
			t.Fatalf("post #%d: %v", i+1, got)
		}
	}
	rows := ledgerRows(t, a)
	if len(rows) != 1 || rows[0].OccurredOn.String() != "2025-02-05" {
		t.Fatalf("expected one posted row, got %+v", rows)
	}

	if got := run(t, &postCmd{app: a}, "-owner", "U001", "-month", "2025-13"); got != subcommands.ExitUsageError {
		t.Fatalf("bad month should be a usage error, got %v", got)
	}
}

func TestImportExportCommands(t *testing.T) {
	a := testApp(t)
	dir := t.TempDir()

	batch := filepath.Join(dir, "bank.csv")
	content := "Booking Date,Value,Memo\n2025-01-02,10,coffee\n2025-01-02,10,coffee\n2025-01-03,oops,bad\n"
	if err := os.WriteFile(batch, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	columns := filepath.Join(dir, "columns.yaml")
	if err := os.WriteFile(columns, []byte("columns:\n  Booking Date: date\n  Value: amount\n  Memo: description\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := run(t, &importCmd{app: a}, "-owner", "U001", "-map", columns, batch); got != subcommands.ExitSuccess {
		t.Fatalf("import: %v", got)
	}
	if rows := ledgerRows(t, a); len(rows) != 1 {
		t.Fatalf("expected one imported row, got %+v", rows)
	}

	out := filepath.Join(dir, "export.csv")
	if got := run(t, &exportCmd{app: a}, "-owner", "U001", "-o", out); got != subcommands.ExitSuccess {
		t.Fatalf("export: %v", got)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	exported, err := csvfile.Decode(f)
	if err != nil || len(exported) != 1 || exported[0].Description != "coffee" {
		t.Fatalf("unexpected export %+v (err=%v)", exported, err)
	}
}

func TestBackupAndRestoreCommands(t *testing.T) {
	a := testApp(t)

	if got := run(t, &registerCmd{app: a}, "-name", "bob", "-pin", "9876"); got != subcommands.ExitSuccess {
		t.Fatalf("register: %v", got)
	}
	if got := run(t, &addCmd{app: a}, "-owner", "U001", "-amount", "3", "-category", "Misc"); got != subcommands.ExitSuccess {
		t.Fatalf("add: %v", got)
	}
	if got := run(t, &backupCmd{app: a}); got != subcommands.ExitSuccess {
		t.Fatalf("backup: %v", got)
	}
	archives, err := a.snapshots().List()
	if err != nil || len(archives) != 1 {
		t.Fatalf("expected one archive, got %v (err=%v)", archives, err)
	}

	if got := run(t, &verifyCmd{app: a}, archives[0].Name); got != subcommands.ExitSuccess {
		t.Fatalf("verify: %v", got)
	}

	dest := t.TempDir()
	if got := run(t, &restoreCmd{app: a}, "-dest", dest, archives[0].Path); got != subcommands.ExitSuccess {
		t.Fatalf("restore: %v", got)
	}
	for _, name := range []string{config.UsersFile, config.LedgerCSVFile} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("%s not restored: %v", name, err)
		}
	}
	if got := run(t, &restoreCmd{app: a}, "-dest", dest, archives[0].Path); got != subcommands.ExitFailure {
		t.Fatalf("restore over existing files should fail, got %v", got)
	}
}

func TestLoginCommand(t *testing.T) {
	a := testApp(t)
	if got := run(t, &registerCmd{app: a}, "-name", "carol", "-pin", "4321"); got != subcommands.ExitSuccess {
		t.Fatalf("register: %v", got)
	}
	if got := run(t, &loginCmd{app: a}, "-name", "carol", "-pin", "4321"); got != subcommands.ExitSuccess {
		t.Fatalf("login: %v", got)
	}
	if got := run(t, &loginCmd{app: a}, "-name", "carol", "-pin", "0000"); got != subcommands.ExitFailure {
		t.Fatalf("wrong PIN should fail, got %v", got)
	}
}
