package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage stores each stream as a file under a root directory.
//
// Layout mirrors the builder tool's data folder, e.g.:
//
//	root/
//	  data/system/events.json
//	  data/system/listeners.json
//	  resources/block/Menu Block/menus.json
type FileStorage struct {
	root string
}

// NewFileStorage creates a FileStorage rooted at dir. The directory is
// created if missing.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("file storage: root directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}
	return &FileStorage{root: dir}, nil
}

// Root returns the storage root directory.
func (s *FileStorage) Root() string {
	return s.root
}

func (s *FileStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes storage root")
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(path, err)
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, readError(path, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, readError(path, err)
	}
	return data, nil
}

// Write replaces the file through a temporary sibling and a rename, so a
// reader never sees a partially written stream.
func (s *FileStorage) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return writeError(path, err)
	}
	full, err := s.resolve(path)
	if err != nil {
		return writeError(path, err)
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*.tmp")
	if err != nil {
		return writeError(path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return writeError(path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return writeError(path, err)
	}
	return nil
}
