package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MetaDirName is the metadata directory under the dataset root.
const MetaDirName = "meta"

// MetaStore implements ports.MetadataStore with files under <root>/meta.
type MetaStore struct {
	dir string
}

// NewMetaStore creates a store for the dataset rooted at root.
func NewMetaStore(root string) *MetaStore {
	return &MetaStore{dir: filepath.Join(root, MetaDirName)}
}

// Dir returns the metadata directory.
func (s *MetaStore) Dir() string {
	return s.dir
}

// Path returns the full path of an artifact.
func (s *MetaStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteJSON writes v as JSON indented with four spaces.
func (s *MetaStore) WriteJSON(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.write(ctx, name, append(data, '\n'))
}

// WriteJSONLines writes one compact JSON object per line.
func (s *MetaStore) WriteJSONLines(ctx context.Context, name string, rows []any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("marshal %s line %d: %w", name, i+1, err)
		}
	}
	return s.write(ctx, name, buf.Bytes())
}

// write replaces name atomically (write to temp file, then rename).
func (s *MetaStore) write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
