// Package schedule keeps recurring transaction templates in a bbolt file,
// keyed by (owner, category, description).
package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"ledgerkeep/internal/core"
)

const (
	bucketName = "recurrences"
	keySep     = "\x1f"

	MinDay = 1
	MaxDay = 28
)

// Entry is one recurring template.
type Entry struct {
	OwnerID       string `json:"owner_id"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	DayOfMonth    int    `json:"day_of_month"`
}

// Normalize validates an entry through the codec and returns it in
// canonical form.
func (e Entry) Normalize() (Entry, error) {
	if e.DayOfMonth < MinDay || e.DayOfMonth > MaxDay {
		return Entry{}, core.Invalid("day_of_month", core.ErrInvalidDay,
			fmt.Sprintf("day of month must be %d..%d", MinDay, MaxDay))
	}
	for _, s := range []string{e.OwnerID, e.Category, e.Description} {
		if strings.Contains(s, keySep) {
			return Entry{}, core.Invalid("key", nil, "control character 0x1f is not allowed")
		}
	}
	tx, err := core.NewTransaction(e.OwnerID, e.Input(core.Month{Year: 2000, Month: time.January}))
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		OwnerID:       tx.OwnerID,
		Category:      tx.Category,
		Description:   tx.Description,
		Kind:          string(tx.Kind),
		Amount:        tx.Amount.String(),
		PaymentMethod: string(tx.PaymentMethod),
		DayOfMonth:    e.DayOfMonth,
	}, nil
}

// Input renders the entry as the record it posts in month m.
func (e Entry) Input(m core.Month) core.TransactionInput {
	return core.TransactionInput{
		Kind:          e.Kind,
		Amount:        e.Amount,
		Category:      e.Category,
		Date:          m.Day(e.DayOfMonth).String(),
		Description:   e.Description,
		PaymentMethod: e.PaymentMethod,
	}
}

func (e Entry) key() []byte {
	return []byte(e.OwnerID + keySep + e.Category + keySep + e.Description)
}

func ownerPrefix(owner string) []byte {
	return []byte(owner + keySep)
}

type Store struct {
	db *bolt.DB
}

// Open opens or creates the schedule file.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create schedule directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, core.WrapIO("open schedule", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert stores e, replacing any entry with the same key. It reports
// whether an entry was replaced.
func (s *Store) Upsert(e Entry) (bool, error) {
	e, err := e.Normalize()
	if err != nil {
		return false, err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("marshal entry: %w", err)
	}
	replaced := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		replaced = b.Get(e.key()) != nil
		return b.Put(e.key(), body)
	})
	if err != nil {
		return false, fmt.Errorf("store entry: %w", err)
	}
	return replaced, nil
}

// List returns the owner's entries ordered by category then description.
func (s *Store) List(owner string) ([]Entry, error) {
	var out []Entry
	prefix := ownerPrefix(owner)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode entry %q: %w", k, err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Owners returns every owner with at least one entry, sorted.
func (s *Store) Owners() ([]string, error) {
	seen := map[string]struct{}{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, _ []byte) error {
			owner, _, _ := strings.Cut(string(k), keySep)
			seen[owner] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	owners := make([]string, 0, len(seen))
	for o := range seen {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners, nil
}

// Delete removes one entry and reports whether it existed.
func (s *Store) Delete(owner, category, description string) (bool, error) {
	key := Entry{
		OwnerID:     strings.TrimSpace(owner),
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
	}.key()
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get(key) == nil {
			return nil
		}
		found = true
		return b.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	return found, nil
}
