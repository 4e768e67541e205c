package defs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/storage"
	"github.com/roach88/customs/internal/tasks"
	"github.com/roach88/customs/internal/view"
)

// Store is the definitions store for one collection.
//
// Thread-safety model: mu is held for the whole of every exported
// operation. Under mu:
//   - flat holds a validated encoding for every stream of the collection
//   - cache, when valid, equals Compose of the decoded flat values
//   - dirty names the streams whose flat value may differ from storage
type Store[E any] struct {
	mu sync.Mutex

	coll    Collection[E]
	storage storage.Storage
	opts    options

	pool     *tasks.Pool
	ownsPool bool

	flat  map[string][]byte
	dirty map[string]bool
	cache view.Cache[[]E]
}

// Open creates a Store and loads every stream of coll from st.
func Open[E any](ctx context.Context, st storage.Storage, coll Collection[E], opts ...Option) (*Store[E], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[E]{
		coll:    coll,
		storage: st,
		opts:    o,
		pool:    o.pool,
		dirty:   make(map[string]bool),
	}

	flat, err := s.readStreams(ctx)
	if err != nil {
		return nil, err
	}
	s.flat = flat

	if s.pool == nil {
		s.pool = tasks.NewPool(o.workers)
		s.ownsPool = true
	}

	slog.Info("definitions store opened", "kind", coll.Kind(), "streams", len(flat))
	return s, nil
}

// Close stops the store's own worker pool after queued tasks finish.
// It does not save.
func (s *Store[E]) Close() {
	if s.ownsPool {
		s.pool.Close()
	}
}

// Kind returns the collection kind.
func (s *Store[E]) Kind() string {
	return s.coll.Kind()
}

// List returns a snapshot of the materialized view.
func (s *Store[E]) List() ([]E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.materializeLocked()
	if err != nil {
		return nil, err
	}
	return s.cloneAll(current), nil
}

// Get returns a copy of the first entity whose name/id equals key.
func (s *Store[E]) Get(key string) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero E
	current, err := s.materializeLocked()
	if err != nil {
		return zero, err
	}
	i := s.indexOf(current, key)
	if i < 0 {
		return zero, &NotFoundError{Kind: s.coll.Kind(), Key: key}
	}
	return s.coll.Clone(current[i]), nil
}

// Dirty returns the names of streams with unsaved changes, in stream order.
func (s *Store[E]) Dirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, st := range s.coll.Streams() {
		if s.dirty[st.Name] {
			names = append(names, st.Name)
		}
	}
	return names
}

// Computations returns how many times the view has been recomputed.
func (s *Store[E]) Computations() int64 {
	return s.cache.Computations()
}

// Fetch re-reads every stream from storage and invalidates the view.
// Unsaved local changes are discarded. On error the prior state is kept.
func (s *Store[E]) Fetch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flat, err := s.readStreams(ctx)
	if err != nil {
		return err
	}
	if len(s.dirty) > 0 {
		slog.Warn("fetch discarded unsaved changes", "kind", s.coll.Kind(), "dirty", len(s.dirty))
	}
	s.flat = flat
	clear(s.dirty)
	s.cache.Invalidate()

	slog.Info("definitions fetched", "kind", s.coll.Kind())
	return nil
}

// Save writes every dirty stream to storage. Streams written before a
// failure are no longer dirty; the failing stream and those after it are.
func (s *Store[E]) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(ctx)
}

func (s *Store[E]) saveLocked(ctx context.Context) error {
	written := 0
	for _, st := range s.coll.Streams() {
		if !s.dirty[st.Name] {
			continue
		}
		if err := s.storage.Write(ctx, st.Path, s.flat[st.Name]); err != nil {
			return err
		}
		delete(s.dirty, st.Name)
		written++
	}
	if written > 0 {
		slog.Info("definitions saved", "kind", s.coll.Kind(), "streams", written)
	}
	return nil
}

// readStreams loads, decodes and validates every stream without touching
// store state, so a failure cannot leave a half-updated store.
func (s *Store[E]) readStreams(ctx context.Context) (map[string][]byte, error) {
	flat := make(map[string][]byte, len(s.coll.Streams()))
	for _, st := range s.coll.Streams() {
		data, err := s.storage.Read(ctx, st.Path)
		if err != nil {
			if !(s.opts.createMissing && storage.IsNotExist(err)) {
				return nil, err
			}
			slog.Debug("stream missing, starting empty", "kind", s.coll.Kind(), "stream", st.Name, "path", st.Path)
			data = nil
		}
		if _, err := s.decode(st, data); err != nil {
			return nil, err
		}
		flat[st.Name] = data
	}
	return flat, nil
}

// decode turns one flat value into normalized, validated records.
func (s *Store[E]) decode(st Stream, data []byte) (record.Records, error) {
	rs, err := s.opts.codec.Decode(data)
	if err != nil {
		return nil, record.WithStream(err, st.Name)
	}
	rs = st.Schema.NormalizeAll(rs)
	if err := st.Schema.Validate(rs); err != nil {
		return nil, record.WithStream(err, st.Name)
	}
	return rs, nil
}

// decodeAllLocked decodes the current flat values of every stream.
func (s *Store[E]) decodeAllLocked() (map[string]record.Records, error) {
	streams := make(map[string]record.Records, len(s.flat))
	for _, st := range s.coll.Streams() {
		rs, err := s.decode(st, s.flat[st.Name])
		if err != nil {
			return nil, fmt.Errorf("materialize %s: %w", s.coll.Kind(), err)
		}
		streams[st.Name] = rs
	}
	return streams, nil
}

// materializeLocked returns the cached view, computing it if needed. The
// returned slice is owned by the cache and must not be modified.
func (s *Store[E]) materializeLocked() ([]E, error) {
	return s.cache.Get(func() ([]E, error) {
		streams, err := s.decodeAllLocked()
		if err != nil {
			return nil, err
		}
		entities := s.coll.Compose(streams)
		slog.Debug("view materialized", "kind", s.coll.Kind(), "count", len(entities))
		return entities, nil
	})
}

func (s *Store[E]) indexOf(entities []E, key string) int {
	for i, e := range entities {
		if s.coll.Key(e) == key {
			return i
		}
	}
	return -1
}

func (s *Store[E]) cloneAll(entities []E) []E {
	out := make([]E, len(entities))
	for i, e := range entities {
		out[i] = s.coll.Clone(e)
	}
	return out
}
