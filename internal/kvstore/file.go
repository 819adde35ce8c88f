package kvstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

type fileEntry struct {
	Key       string     `json:"key"`
	Value     []byte     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// FileStore keeps one JSON file per key under a directory.
type FileStore struct {
	fs      afero.Fs
	rootDir string
	now     func() time.Time

	mu sync.Mutex
}

func NewFileStore(fs afero.Fs, rootDir string) *FileStore {
	return &FileStore{
		fs:      fs,
		rootDir: rootDir,
		now:     time.Now,
	}
}

func (f *FileStore) filePath(key string) string {
	return filepath.Join(f.rootDir, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := afero.ReadFile(f.fs, f.filePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("afero.ReadFile > %w", err)
	}

	var entry fileEntry
	if err := json.Unmarshal(contents, &entry); err != nil {
		return nil, false, fmt.Errorf("json.Unmarshal > %w", err)
	}
	if expired(f.now(), entry.ExpiresAt) {
		if err := f.fs.Remove(f.filePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("fs.Remove > %w", err)
		}
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set writes the entry to a temporary file first so a crash never leaves a partial entry.
func (f *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := json.Marshal(fileEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt(f.now(), ttl),
	})
	if err != nil {
		return fmt.Errorf("json.Marshal > %w", err)
	}
	if err := f.fs.MkdirAll(f.rootDir, 0o755); err != nil {
		return fmt.Errorf("fs.MkdirAll(%s) > %w", f.rootDir, err)
	}

	path := f.filePath(key)
	tmp := path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, contents, 0o644); err != nil {
		return fmt.Errorf("afero.WriteFile > %w", err)
	}
	if err := f.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("fs.Rename > %w", err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fs.Remove(f.filePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fs.Remove > %w", err)
	}
	return nil
}
