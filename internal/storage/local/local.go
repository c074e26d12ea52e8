// Package local stores the diary as a single JSON document on disk, under one
// key, using diskv for atomic writes.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

// Store implements storage.Storage and storage.Watcher on a diskv directory.
type Store struct {
	d        *diskv.Diskv
	basePath string
	key      string
}

// New opens (creating if needed) the local store under dataDir.
func New(dataDir string) (*Store, error) {
	basePath := filepath.Join(dataDir, "kv")
	tempDir := filepath.Join(dataDir, "kv.tmp")
	for _, dir := range []string{basePath, tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", storage.ErrStorage, dir, err)
		}
	}

	return &Store{
		d: diskv.New(diskv.Options{
			BasePath: basePath,
			TempDir:  tempDir,
			PathPerm: 0o755,
			FilePerm: 0o600,
			// No read cache: other processes rewrite the file behind our back.
			CacheSizeMax: 0,
		}),
		basePath: basePath,
		key:      storage.DefaultKey,
	}, nil
}

// Path is the file holding the collection.
func (s *Store) Path() string {
	return filepath.Join(s.basePath, s.key)
}

// Close is a no-op for the local backend.
func (s *Store) Close() error {
	return nil
}

// Load reads the collection. A missing key is an empty diary.
func (s *Store) Load(ctx context.Context) ([]entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.d.Has(s.key) {
		return []entry.Entry{}, nil
	}
	rc, err := s.d.ReadStream(s.key, true)
	if err != nil {
		if os.IsNotExist(err) {
			return []entry.Entry{}, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", storage.ErrStorage, s.key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", storage.ErrStorage, s.key, err)
	}
	return storage.UnmarshalEntries(data)
}

// Save replaces the collection in one atomic write.
func (s *Store) Save(ctx context.Context, entries []entry.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := storage.MarshalEntries(entries)
	if err != nil {
		return err
	}
	if err := s.d.Write(s.key, data); err != nil {
		return fmt.Errorf("%w: writing %s: %v", storage.ErrStorage, s.key, err)
	}
	return nil
}
