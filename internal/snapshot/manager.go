// Package snapshot writes checksummed zip archives of the data files,
// verifies them against their embedded manifest and restores an allow-listed
// subset.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zip"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/fsutil"
)

const stampLayout = "20060102-150405"

var archiveName = regexp.MustCompile(`^backup-(\d{8}-\d{6})(?:-(\d+))?\.zip$`)

// DefaultAllowed is the set of base names Restore will write.
var DefaultAllowed = []string{"users.json", "transactions.csv", "ledger.db", "recurrences.db"}

// ConflictError reports a restore target that already exists.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("target exists: %s (restore with overwrite to replace it)", e.Path)
}

func (e *ConflictError) Unwrap() error { return core.ErrConflict }

// Archive describes one backup file in the backup directory.
type Archive struct {
	Name      string
	Path      string
	CreatedAt time.Time
	// Counter is the same-second collision suffix, 0 when absent.
	Counter int
	Size    int64
}

type Manager struct {
	Dir     string
	Allowed []string
	Now     func() time.Time
}

func NewManager(dir string) *Manager {
	return &Manager{Dir: dir, Allowed: DefaultAllowed, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

type member struct {
	name string
	data []byte
}

// Create archives the given files and returns the archive path. Files that
// do not exist are skipped.
func (m *Manager) Create(files []string) (string, error) {
	manifest := Manifest{Files: map[string]FileEntry{}}
	var members []member
	for _, p := range files {
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Skipping missing backup source", "path", p)
			continue
		}
		if err != nil {
			return "", core.WrapIO("read backup source", p, err)
		}
		name := filepath.Base(p)
		if name == ManifestName {
			return "", core.Invalid("files", nil, fmt.Sprintf("%s is reserved for the archive manifest", name))
		}
		if _, dup := manifest.Files[name]; dup {
			return "", core.Invalid("files", nil, fmt.Sprintf("two backup sources share the base name %q", name))
		}
		manifest.Files[name] = newEntry(data)
		members = append(members, member{name: name, data: data})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })

	manifestBytes, err := manifest.encode()
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return "", core.WrapIO("create backup directory", m.Dir, err)
	}
	now := m.now()
	path, err := m.freeName(now)
	if err != nil {
		return "", err
	}

	err = fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, mb := range append(members, member{name: ManifestName, data: manifestBytes}) {
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     mb.name,
				Method:   zip.Deflate,
				Modified: now,
			})
			if err != nil {
				return err
			}
			if _, err := fw.Write(mb.data); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return "", core.WrapIO("write archive", path, err)
	}

	slog.Info("Backup created", "archive", path, "files", len(members))
	return path, nil
}

// freeName picks backup-<stamp>.zip, or the first free -N suffix when an
// archive with the same second already exists.
func (m *Manager) freeName(now time.Time) (string, error) {
	stamp := now.Format(stampLayout)
	for n := 0; ; n++ {
		name := "backup-" + stamp + ".zip"
		if n > 0 {
			name = fmt.Sprintf("backup-%s-%d.zip", stamp, n)
		}
		path := filepath.Join(m.Dir, name)
		exists, err := fsutil.Exists(path)
		if err != nil {
			return "", core.WrapIO("stat archive", path, err)
		}
		if !exists {
			return path, nil
		}
	}
}

// List returns the archives in the backup directory, newest first. A
// missing directory yields an empty list.
func (m *Manager) List() ([]Archive, error) {
	entries, err := os.ReadDir(m.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapIO("read backup directory", m.Dir, err)
	}

	var out []Archive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := archiveName.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		created, err := time.Parse(stampLayout, match[1])
		if err != nil {
			continue
		}
		a := Archive{Name: e.Name(), Path: filepath.Join(m.Dir, e.Name()), CreatedAt: created}
		if match[2] != "" {
			a.Counter, _ = strconv.Atoi(match[2])
		}
		if info, err := e.Info(); err == nil {
			a.Size = info.Size()
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Counter > out[j].Counter
	})
	return out, nil
}
