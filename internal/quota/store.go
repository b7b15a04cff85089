// Package quota gates synthesis requests behind per-platform daily budgets
// and a global post-rate-limit cooldown.
package quota

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists one JSON value per key. The key carries the schema
// version; bumping the key abandons old state instead of migrating it.
type Store interface {
	// Load returns the raw value for key, or (nil, nil) when absent.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save writes the raw value for key, replacing any previous value.
	Save(ctx context.Context, key string, raw []byte) error
}

// FileStore keeps each key in its own JSON file under a directory. Used in
// local mode and tests.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return raw, nil
}

func (s *FileStore) Save(_ context.Context, key string, raw []byte) error {
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("replace %q: %w", key, err)
	}
	return nil
}
