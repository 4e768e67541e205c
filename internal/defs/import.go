package defs

import (
	"context"
	"io"
	"log/slog"
	"slices"
)

// Resolver maps the name shared by an existing and a differing incoming
// entity to the new name for the incoming entity.
//
// Returning the conflicting name unchanged means the incoming entity
// wins and the existing one is removed, as with a nil Resolver.
type Resolver func(conflict string) string

// SuffixResolver returns a Resolver appending suffix to conflicting names.
func SuffixResolver(suffix string) Resolver {
	return func(conflict string) string {
		return conflict + suffix
	}
}

// Import merges incoming into the collection.
//
// For each incoming entity, the first existing entity with the same
// name/id decides the outcome:
//   - none: the incoming entity is accepted unchanged
//   - structurally equal: no conflict; both are kept
//   - different, resolver nil: the existing entity is removed
//   - different, resolver set: the incoming entity is renamed to
//     resolver(name); the existing entity is untouched
//
// A resolved name that is empty, or that names another existing entity or
// another incoming entity, fails with *ConflictResolutionError and the
// import changes nothing. The existing entities followed by the incoming
// ones are committed in one step.
func (s *Store[E]) Import(ctx context.Context, incoming []E, resolve Resolver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.importLocked(ctx, incoming, resolve)
}

// ImportFrom decodes an interchange document from r and imports it.
// A malformed document fails with *record.DecodeError before the store
// is touched.
func (s *Store[E]) ImportFrom(ctx context.Context, r io.Reader, format Format, resolve Resolver) error {
	incoming, err := decodeEntities[E](r, format)
	if err != nil {
		return err
	}
	return s.Import(ctx, incoming, resolve)
}

func (s *Store[E]) importLocked(ctx context.Context, incoming []E, resolve Resolver) error {
	current, err := s.materializeLocked()
	if err != nil {
		return err
	}
	existing := s.cloneAll(current)
	added := s.cloneAll(incoming)

	replaced, renamed := 0, 0
	for i, e := range added {
		name := s.coll.Key(e)
		j := s.indexOf(existing, name)
		if j < 0 {
			continue
		}
		if s.coll.Equal(existing[j], e) {
			continue
		}
		if resolve == nil {
			existing = slices.Delete(existing, j, j+1)
			replaced++
			continue
		}

		resolved := resolve(name)
		if resolved == name {
			existing = slices.Delete(existing, j, j+1)
			replaced++
			continue
		}
		if err := s.checkResolved(existing, added, i, name, resolved); err != nil {
			return err
		}
		added[i] = s.coll.WithKey(e, resolved)
		renamed++
	}

	if err := s.commitLocked(ctx, "import", append(existing, added...)); err != nil {
		return err
	}

	slog.Info("definitions imported", "kind", s.coll.Kind(),
		"count", len(incoming), "replaced", replaced, "renamed", renamed)
	return nil
}

func (s *Store[E]) checkResolved(existing, added []E, self int, conflict, resolved string) error {
	fail := func(reason string) error {
		return &ConflictResolutionError{Kind: s.coll.Kind(), Conflict: conflict, Resolved: resolved, Reason: reason}
	}
	if resolved == "" {
		return fail("resolved name is empty")
	}
	if s.indexOf(existing, resolved) >= 0 {
		return fail("resolved name collides with an existing entity")
	}
	for k, other := range added {
		if k != self && s.coll.Key(other) == resolved {
			return fail("resolved name collides with another incoming entity")
		}
	}
	return nil
}
