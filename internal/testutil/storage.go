package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/customs/internal/storage"
)

// ErrInjected is the cause of failures injected by FaultyStorage.
var ErrInjected = errors.New("injected storage failure")

// FaultyStorage wraps a storage.Storage, counting calls and failing reads
// or writes of chosen paths on demand.
//
// Thread-safety: All methods are safe for concurrent use.
type FaultyStorage struct {
	inner storage.Storage

	mu         sync.Mutex
	failRead   map[string]bool
	failWrite  map[string]bool
	reads      map[string]int
	writes     map[string]int
	writeOrder []string
}

// NewFaultyStorage wraps inner. A nil inner uses a fresh MemoryStorage.
func NewFaultyStorage(inner storage.Storage) *FaultyStorage {
	if inner == nil {
		inner = storage.NewMemoryStorage()
	}
	return &FaultyStorage{
		inner:     inner,
		failRead:  make(map[string]bool),
		failWrite: make(map[string]bool),
		reads:     make(map[string]int),
		writes:    make(map[string]int),
	}
}

// FailReads makes reads of path fail until cleared.
func (f *FaultyStorage) FailReads(path string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRead[path] = fail
}

// FailWrites makes writes of path fail until cleared.
func (f *FaultyStorage) FailWrites(path string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrite[path] = fail
}

// Reads returns how many reads of path were attempted.
func (f *FaultyStorage) Reads(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[path]
}

// Writes returns how many writes of path succeeded.
func (f *FaultyStorage) Writes(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[path]
}

// TotalWrites returns how many writes succeeded across all paths.
func (f *FaultyStorage) TotalWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writeOrder)
}

// WriteOrder returns the paths of successful writes in order.
func (f *FaultyStorage) WriteOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writeOrder...)
}

func (f *FaultyStorage) Read(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.reads[path]++
	fail := f.failRead[path]
	f.mu.Unlock()

	if fail {
		return nil, &storage.IOError{Op: "read", Path: path, Err: ErrInjected}
	}
	return f.inner.Read(ctx, path)
}

func (f *FaultyStorage) Write(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	fail := f.failWrite[path]
	f.mu.Unlock()

	if fail {
		return &storage.IOError{Op: "write", Path: path, Err: ErrInjected}
	}
	if err := f.inner.Write(ctx, path, data); err != nil {
		return err
	}

	f.mu.Lock()
	f.writes[path]++
	f.writeOrder = append(f.writeOrder, path)
	f.mu.Unlock()
	return nil
}
