package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "stockdash/internal/errors"
)

// FileStore keeps the watchlist in <dir>/<namespace>.json.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates dir if needed and returns a store for namespace.
func NewFileStore(dir, namespace string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("file", "open", err)
	}
	return &FileStore{path: filepath.Join(dir, namespace+".json")}, nil
}

// Name returns the backend name.
func (f *FileStore) Name() string { return "file" }

// Path returns the file the watchlist is written to.
func (f *FileStore) Path() string { return f.path }

// Load reads the saved list. A missing file yields an empty list.
func (f *FileStore) Load(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("file", "load", err)
	}

	symbols, err := decode(data)
	if err != nil {
		return nil, apperrors.NewStorageError("file", "load", err)
	}
	return symbols, nil
}

// Save writes the list atomically through a temp file and rename.
func (f *FileStore) Save(ctx context.Context, symbols []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(symbols)
	if err != nil {
		return apperrors.NewStorageError("file", "save", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".watchlist-*.tmp")
	if err != nil {
		return apperrors.NewStorageError("file", "save", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorageError("file", "save", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("file", "save", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("file", "save", fmt.Errorf("replacing %s: %w", f.path, err))
	}
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }
