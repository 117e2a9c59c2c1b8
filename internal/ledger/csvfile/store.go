// Package csvfile stores the ledger as a single delimited text file. Every
// mutation rewrites the whole file through a temporary sibling and a rename.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/fsutil"
	"ledgerkeep/internal/ledger"
)

const filePerm = 0o644

// SeqSuffix names the side file holding the id high-water mark.
const SeqSuffix = ".seq"

type Store struct {
	path string
}

// Open returns a store for the ledger at path. The file is created on the
// first write.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path is required")
	}
	return &Store{path: path}, nil
}

// Path returns the ledger file location.
func (s *Store) Path() string { return s.path }

func (s *Store) seqPath() string { return s.path + SeqSuffix }

func (s *Store) load() (*ledger.Table, error) {
	tbl := &ledger.Table{}

	f, err := os.Open(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, core.WrapIO("open ledger", s.path, err)
	default:
		defer f.Close()
		rows, err := Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
		tbl.Rows = rows
	}

	raw, err := os.ReadFile(s.seqPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, core.WrapIO("read sequence", s.seqPath(), err)
	default:
		n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse sequence %s: %w", s.seqPath(), err)
		}
		tbl.HighWater = n
	}
	return tbl, nil
}

// save writes the sequence before the table so a crash between the two
// can only leave the mark ahead of the rows.
func (s *Store) save(tbl *ledger.Table) error {
	seq := []byte(strconv.Itoa(tbl.HighWater) + "\n")
	if err := fsutil.WriteBytesAtomic(s.seqPath(), seq, filePerm); err != nil {
		return core.WrapIO("write sequence", s.seqPath(), err)
	}
	err := fsutil.WriteFileAtomic(s.path, filePerm, func(w io.Writer) error {
		return Encode(w, tbl.Rows)
	})
	return core.WrapIO("write ledger", s.path, err)
}

func (s *Store) Append(ctx context.Context, txs ...core.Transaction) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tbl, err := s.load()
	if err != nil {
		return nil, err
	}
	ids, err := tbl.Append(txs)
	if err != nil {
		return nil, err
	}
	if err := s.save(tbl); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) NextID(_ context.Context) (string, error) {
	tbl, err := s.load()
	if err != nil {
		return "", err
	}
	return core.FormatID(tbl.NextNumber()), nil
}

func (s *Store) FindByID(_ context.Context, id string) (core.Transaction, error) {
	tbl, err := s.load()
	if err != nil {
		return core.Transaction{}, err
	}
	tx, ok := tbl.Find(id)
	if !ok {
		return core.Transaction{}, core.NotFound("transaction %s", id)
	}
	return tx, nil
}

func (s *Store) Scan(_ context.Context, owner string, f ledger.Filter) ([]core.Transaction, error) {
	tbl, err := s.load()
	if err != nil {
		return nil, err
	}
	return tbl.Scan(owner, f), nil
}

func (s *Store) Edit(ctx context.Context, id string, fn ledger.Updater) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tbl, err := s.load()
	if err != nil {
		return false, err
	}
	changed, err := tbl.Edit(id, fn)
	if err != nil || !changed {
		return false, err
	}
	if err := s.save(tbl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tbl, err := s.load()
	if err != nil {
		return false, err
	}
	if !tbl.Delete(id) {
		return false, nil
	}
	if err := s.save(tbl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ReplaceCategory(ctx context.Context, owner string, from []string, to string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tbl, err := s.load()
	if err != nil {
		return 0, err
	}
	n := tbl.ReplaceCategory(owner, from, to)
	if n == 0 {
		return 0, nil
	}
	if err := s.save(tbl); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Close() error { return nil }

var _ ledger.Store = (*Store)(nil)
