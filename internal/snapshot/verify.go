package snapshot

import (
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zip"

	"ledgerkeep/internal/core"
)

// Verify checks every manifest entry against the archive. ok is true only
// when problems is empty. err is reserved for failing to open the archive.
func Verify(archive string) (ok bool, problems []string, err error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return false, nil, core.WrapIO("open archive", archive, err)
	}
	defer zr.Close()

	members := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, dup := members[f.Name]; dup {
			problems = append(problems, fmt.Sprintf("%s: appears more than once in archive", f.Name))
			continue
		}
		members[f.Name] = f
	}

	mf, found := members[ManifestName]
	if !found {
		return false, []string{ManifestName + " missing from archive"}, nil
	}
	raw, err := readMember(mf)
	if err != nil {
		return false, []string{fmt.Sprintf("%s: %v", ManifestName, err)}, nil
	}
	manifest, err := decodeManifest(raw)
	if err != nil {
		return false, []string{ManifestName + " is not valid JSON"}, nil
	}

	names := make([]string, 0, len(manifest.Files))
	for name := range manifest.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := manifest.Files[name]
		f, found := members[name]
		if !found {
			problems = append(problems, fmt.Sprintf("%s: not found in archive", name))
			continue
		}
		data, err := readMember(f)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		got := newEntry(data)
		if got.Size != want.Size {
			problems = append(problems, fmt.Sprintf("%s: size mismatch", name))
		}
		if got.SHA256 != want.SHA256 {
			problems = append(problems, fmt.Sprintf("%s: SHA-256 mismatch", name))
		}
	}

	var extra []string
	for name := range members {
		if _, declared := manifest.Files[name]; !declared && name != ManifestName {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		problems = append(problems, fmt.Sprintf("%s: not declared in manifest", name))
	}

	return len(problems) == 0, problems, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open member: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read member: %w", err)
	}
	return data, nil
}
