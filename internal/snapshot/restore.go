package snapshot

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zip"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/fsutil"
)

// Restore writes the allow-listed members of archive into destDir and
// returns the written paths in archive order. The manifest and every other
// member are ignored. When a target exists and overwrite is false, Restore
// stops with a *ConflictError; files restored before it stay in place.
func (m *Manager) Restore(archive, destDir string, overwrite bool) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, core.WrapIO("open archive", archive, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, core.WrapIO("create restore directory", destDir, err)
	}

	var restored []string
	for _, f := range zr.File {
		name := f.Name
		if name == ManifestName {
			continue
		}
		if filepath.Base(name) != name || !slices.Contains(m.Allowed, name) {
			slog.Warn("Skipping archive member outside the allow-list", "member", name)
			continue
		}

		target := filepath.Join(destDir, name)
		exists, err := fsutil.Exists(target)
		if err != nil {
			return restored, core.WrapIO("stat restore target", target, err)
		}
		if exists && !overwrite {
			return restored, &ConflictError{Path: target}
		}

		data, err := readMember(f)
		if err != nil {
			return restored, core.WrapIO("read archive member", name, err)
		}
		if err := fsutil.WriteBytesAtomic(target, data, 0o644); err != nil {
			return restored, core.WrapIO("restore file", target, err)
		}
		restored = append(restored, target)
	}

	slog.Info("Backup restored", "archive", archive, "files", len(restored))
	return restored, nil
}
