// Package storage provides whole-file access to the flat streams backing a
// definitions store.
//
// Every backend reads a stream in full and overwrites it in full; there
// are no partial updates. Paths are slash-separated and relative to the
// backend's root (a directory, a database or a bucket prefix).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// Storage reads and writes complete flat streams by path.
type Storage interface {
	// Read returns the full contents stored at path.
	// A missing path fails with an *IOError for which IsNotExist is true.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write replaces the full contents stored at path.
	Write(ctx context.Context, path string, data []byte) error
}

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// IOError reports a failed storage read or write.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsNotExist returns true if err reports a path with no stored contents.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IsIOError returns true if err wraps an *IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

func readError(path string, err error) error {
	return &IOError{Op: "read", Path: path, Err: err}
}

func writeError(path string, err error) error {
	return &IOError{Op: "write", Path: path, Err: err}
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of file, memory, sqlite or s3. Empty means file.
	Backend string

	// Root is the directory for the file backend and the default location
	// of the sqlite database.
	Root string

	// SQLitePath overrides the database path; defaults to Root/customs.db.
	SQLitePath string

	S3 S3Config
}

// Closer is implemented by backends holding resources.
type Closer interface {
	Close() error
}

// New creates a Storage based on cfg.Backend.
//
// Supported backends:
//
//	"file"   - files under cfg.Root (default)
//	"memory" - in-memory (ephemeral, for testing)
//	"sqlite" - one SQLite database holding every stream
//	"s3"     - objects in an S3-compatible bucket
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStorage(cfg.Root)
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = defaultSQLitePath(cfg.Root)
		}
		return OpenSQLite(path)
	case BackendS3:
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q (supported: file, memory, sqlite, s3)", cfg.Backend)
	}
}
