package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ManifestName is the archive member holding the manifest. It is written
// last and never lists itself.
const ManifestName = "manifest.json"

type FileEntry struct {
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type Manifest struct {
	Files map[string]FileEntry `json:"files"`
}

func newEntry(data []byte) FileEntry {
	sum := sha256.Sum256(data)
	return FileEntry{Size: int64(len(data)), SHA256: hex.EncodeToString(sum[:])}
}

func (m Manifest) encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func decodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	if m.Files == nil {
		m.Files = map[string]FileEntry{}
	}
	return m, nil
}
