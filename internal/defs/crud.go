package defs

import (
	"context"
	"log/slog"
	"maps"

	"github.com/roach88/customs/internal/record"
)

// Add appends e to the collection. Names are not checked for uniqueness;
// an entity with an empty name/id is dropped when flattened.
func (s *Store[E]) Add(ctx context.Context, e E) error {
	return s.mutate(ctx, "add", func(current []E) ([]E, error) {
		return append(current, s.coll.Clone(e)), nil
	})
}

// Remove deletes every entity whose name/id equals key. Removing an
// absent key changes nothing and is not an error.
func (s *Store[E]) Remove(ctx context.Context, key string) error {
	return s.mutate(ctx, "remove", func(current []E) ([]E, error) {
		next := current[:0]
		for _, e := range current {
			if s.coll.Key(e) != key {
				next = append(next, e)
			}
		}
		return next, nil
	})
}

// Edit replaces the first entity named key with edit applied to a copy of
// it, keeping its position. Fails with *NotFoundError if key is absent,
// and with *ConflictResolutionError if edit renames the entity to a name
// held by another entity.
func (s *Store[E]) Edit(ctx context.Context, key string, edit func(E) E) error {
	return s.mutate(ctx, "edit", func(current []E) ([]E, error) {
		i := s.indexOf(current, key)
		if i < 0 {
			return nil, &NotFoundError{Kind: s.coll.Kind(), Key: key}
		}
		edited := edit(current[i])
		if renamed := s.coll.Key(edited); renamed != key {
			for j, other := range current {
				if j != i && s.coll.Key(other) == renamed {
					return nil, &ConflictResolutionError{
						Kind:     s.coll.Kind(),
						Conflict: key,
						Resolved: renamed,
						Reason:   "name already in use",
					}
				}
			}
		}
		current[i] = edited
		return current, nil
	})
}

// mutate runs a full read-modify-write of the collection under the store
// lock. build receives a private copy of the current view.
func (s *Store[E]) mutate(ctx context.Context, op string, build func([]E) ([]E, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.materializeLocked()
	if err != nil {
		return err
	}
	next, err := build(s.cloneAll(current))
	if err != nil {
		return err
	}
	return s.commitLocked(ctx, op, next)
}

// commitLocked flattens next into new flat values and commits them. Only
// streams whose records change are re-encoded and marked dirty. With
// auto-save the dirty streams are written first; if any write fails, the
// streams already written are restored and nothing is committed.
func (s *Store[E]) commitLocked(ctx context.Context, op string, next []E) error {
	current, err := s.decodeAllLocked()
	if err != nil {
		return err
	}

	flattened := s.coll.Flatten(next)
	newFlat := maps.Clone(s.flat)
	var changed []string
	for _, st := range s.coll.Streams() {
		rs := st.Schema.NormalizeAll(flattened[st.Name])
		if rs.Equal(current[st.Name]) {
			continue
		}
		data, err := s.opts.codec.Encode(rs)
		if err != nil {
			return record.WithStream(err, st.Name)
		}
		newFlat[st.Name] = data
		changed = append(changed, st.Name)
	}

	if s.opts.autoSave {
		if err := s.writeThroughLocked(ctx, newFlat, changed); err != nil {
			return err
		}
		s.flat = newFlat
		clear(s.dirty)
	} else {
		s.flat = newFlat
		for _, name := range changed {
			s.dirty[name] = true
		}
	}
	s.cache.Invalidate()

	slog.Debug("definitions committed", "kind", s.coll.Kind(), "op", op, "count", len(next), "changed", changed)
	return nil
}

// writeThroughLocked writes changed and previously dirty streams from
// newFlat, in stream order.
func (s *Store[E]) writeThroughLocked(ctx context.Context, newFlat map[string][]byte, changed []string) error {
	pending := make(map[string]bool, len(changed)+len(s.dirty))
	for name := range s.dirty {
		pending[name] = true
	}
	for _, name := range changed {
		pending[name] = true
	}

	var written []Stream
	for _, st := range s.coll.Streams() {
		if !pending[st.Name] {
			continue
		}
		if err := s.storage.Write(ctx, st.Path, newFlat[st.Name]); err != nil {
			s.rollbackLocked(written)
			return err
		}
		written = append(written, st)
	}
	return nil
}

// rollbackLocked restores streams to their committed in-memory values.
// It uses a fresh context so a cancelled operation can still roll back.
func (s *Store[E]) rollbackLocked(written []Stream) {
	for _, st := range written {
		if err := s.storage.Write(context.Background(), st.Path, s.flat[st.Name]); err != nil {
			slog.Warn("rollback failed; storage differs from memory",
				"kind", s.coll.Kind(), "stream", st.Name, "error", err)
			s.dirty[st.Name] = true
		}
	}
}
