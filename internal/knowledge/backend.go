package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// metadataBackend persists the freshness-tracking metadata described in
// spec §4.4. fileMetadataBackend is the default (JSON file); postgres.go
// adds an optional secondary backend selected via
// KnowledgeConfig.MetadataBackend.
type metadataBackend interface {
	load() (metadata, error)
	save(metadata) error
}

type fileMetadataBackend struct {
	path string
}

func newFileMetadataBackend(cacheDir string) *fileMetadataBackend {
	return &fileMetadataBackend{path: filepath.Join(cacheDir, "_metadata.json")}
}

func (b *fileMetadataBackend) load() (metadata, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return metadata{Categories: map[string][]fileRecord{}}, nil
		}
		return metadata{}, err
	}
	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return metadata{}, err
	}
	if m.Categories == nil {
		m.Categories = map[string][]fileRecord{}
	}
	return m, nil
}

func (b *fileMetadataBackend) save(m metadata) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}
