package storage

import (
	"context"
	"path/filepath"
	"testing"

	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/ledgertest"
)

func openRepo(t *testing.T, path string) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	return repo
}

func TestRepositoryContract(t *testing.T) {
	paths := map[ledger.Store]string{}
	ledgertest.Run(t, ledgertest.Factory{
		Open: func(t *testing.T) ledger.Store {
			path := filepath.Join(t.TempDir(), "ledger.db")
			repo := openRepo(t, path)
			paths[repo] = path
			return repo
		},
		Reopen: func(t *testing.T, s ledger.Store) ledger.Store {
			path := paths[s]
			s.Close()
			repo := openRepo(t, path)
			paths[repo] = path
			return repo
		},
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo := openRepo(t, path)
	repo.Close()

	if err := RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("unexpected schema version=%d dirty=%v", version, dirty)
	}
}

func TestReplaceCategoryWithNoSources(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "ledger.db"))
	defer repo.Close()
	n, err := repo.ReplaceCategory(context.Background(), "U001", nil, "Food")
	if err != nil || n != 0 {
		t.Fatalf("unexpected result n=%d err=%v", n, err)
	}
}
