package storage

import (
	"bytes"
	"context"
	"io/fs"
	"sort"
	"sync"
)

// MemoryStorage keeps streams in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStorage struct {
	mu      sync.RWMutex
	streams map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{streams: make(map[string][]byte)}
}

func (m *MemoryStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(path, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.streams[path]
	if !ok {
		return nil, readError(path, fs.ErrNotExist)
	}
	return bytes.Clone(data), nil
}

func (m *MemoryStorage) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return writeError(path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := bytes.Clone(data)
	if cp == nil {
		cp = []byte{}
	}
	m.streams[path] = cp
	return nil
}

// Paths returns every stored path, sorted.
func (m *MemoryStorage) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.streams))
	for p := range m.streams {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
