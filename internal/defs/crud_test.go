package defs

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/customs/internal/storage"
	"github.com/roach88/customs/internal/testutil"
)

func TestAddThenFind(t *testing.T) {
	ctx := context.Background()
	s := openNotes(t, storage.NewMemoryStorage())

	e := note{Name: "alpha", Body: "a", Tags: []string{"x"}}
	require.NoError(t, s.Add(ctx, e))

	got, err := s.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestAddDoesNotAliasCallerEntity(t *testing.T) {
	ctx := context.Background()
	s := openNotes(t, storage.NewMemoryStorage())

	e := note{Name: "alpha", Tags: []string{"x"}}
	require.NoError(t, s.Add(ctx, e))
	e.Tags[0] = "mutated"

	got, err := s.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Tags)
}

func TestAddEmptyNameIsDropped(t *testing.T) {
	ctx := context.Background()
	s := openNotes(t, storage.NewMemoryStorage())
	require.NoError(t, s.Add(ctx, note{Name: "alpha"}))
	require.NoError(t, s.Add(ctx, note{Name: "", Body: "placeholder"}))

	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names(got))
}

func TestAddDuplicateNamesAreKept(t *testing.T) {
	ctx := context.Background()
	s := openNotes(t, storage.NewMemoryStorage())
	require.NoError(t, s.Add(ctx, note{Name: "alpha", Body: "1"}))
	require.NoError(t, s.Add(ctx, note{Name: "alpha", Body: "2"}))

	got, err := s.List()
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Lookups resolve to the first match
	first, err := s.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "1", first.Body)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	seedNotes(t, st, note{Name: "alpha", Tags: []string{"x"}}, note{Name: "beta", Tags: []string{"y"}})
	s := openNotes(t, st)

	require.NoError(t, s.Remove(ctx, "alpha"))
	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []note{{Name: "beta", Tags: []string{"y"}}}, got)
	assert.Equal(t, []string{"notes", "tags"}, s.Dirty())
}

func TestRemoveAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFaultyStorage(nil)
	seedNotes(t, fs, note{Name: "alpha", Tags: []string{"x"}})
	s := openNotes(t, fs, WithAutoSave(true))
	before, err := s.List()
	require.NoError(t, err)
	writes := fs.TotalWrites()
	stored, err := fs.Read(ctx, notesPath)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "missing"))
	require.NoError(t, s.Remove(ctx, "missing"))

	after, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, s.Dirty())
	assert.Equal(t, writes, fs.TotalWrites(), "storage untouched")

	again, err := fs.Read(ctx, notesPath)
	require.NoError(t, err)
	assert.Equal(t, stored, again)
}

func TestEditPreservesPosition(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	seedNotes(t, st,
		note{Name: "alpha", Body: "a"},
		note{Name: "beta", Body: "b", Tags: []string{"t"}},
		note{Name: "gamma", Body: "c"},
	)
	s := openNotes(t, st)

	require.NoError(t, s.Edit(ctx, "beta", func(n note) note {
		n.Body = "edited"
		return n
	}))

	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []note{
		{Name: "alpha", Body: "a"},
		{Name: "beta", Body: "edited", Tags: []string{"t"}},
		{Name: "gamma", Body: "c"},
	}, got)
}

func TestEditCanRename(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	seedNotes(t, st, note{Name: "alpha", Tags: []string{"x"}}, note{Name: "beta"})
	s := openNotes(t, st)

	require.NoError(t, s.Edit(ctx, "alpha", func(n note) note {
		return notesCollection{}.WithKey(n, "renamed")
	}))

	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"renamed", "beta"}, names(got))
	assert.Equal(t, []string{"x"}, got[0].Tags, "dependent records follow the rename")
}

func TestEditMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := openNotes(t, storage.NewMemoryStorage())

	called := false
	err := s.Edit(ctx, "missing", func(n note) note {
		called = true
		return n
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, called)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "notes", nf.Kind)
	assert.Equal(t, "missing", nf.Key)
}

func TestEditRenameIntoTakenNameFails(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	seedNotes(t, st, note{Name: "alpha", Body: "a"}, note{Name: "beta", Body: "b"})
	s := openNotes(t, st)

	err := s.Edit(ctx, "alpha", func(n note) note {
		return notesCollection{}.WithKey(n, "beta")
	})
	require.Error(t, err)
	assert.True(t, IsConflictResolution(err))

	var ce *ConflictResolutionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "alpha", ce.Conflict)
	assert.Equal(t, "beta", ce.Resolved)

	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []note{{Name: "alpha", Body: "a"}, {Name: "beta", Body: "b"}}, got)
	assert.Empty(t, s.Dirty())
}

func TestEditKeepingNameAmongDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openNotes(t, storage.NewMemoryStorage())
	require.NoError(t, s.Add(ctx, note{Name: "alpha", Body: "1"}))
	require.NoError(t, s.Add(ctx, note{Name: "alpha", Body: "2"}))

	require.NoError(t, s.Edit(ctx, "alpha", func(n note) note {
		n.Body = "edited"
		return n
	}))

	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []note{{Name: "alpha", Body: "edited"}, {Name: "alpha", Body: "2"}}, got)
}

func TestEditMutatorCannotCorruptStore(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	seedNotes(t, st, note{Name: "alpha", Tags: []string{"x"}})
	s := openNotes(t, st)

	var leaked note
	require.NoError(t, s.Edit(ctx, "alpha", func(n note) note {
		leaked = n
		return n
	}))
	leaked.Tags[0] = "corrupted"

	got, err := s.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Tags)
}

func TestCacheCoherence(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	seedNotes(t, st, note{Name: "alpha"})
	s := openNotes(t, st)

	_, err := s.List()
	require.NoError(t, err)
	_, err = s.List()
	require.NoError(t, err)
	_, err = s.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Computations(), "reads without mutation reuse the view")

	require.NoError(t, s.Add(ctx, note{Name: "beta"}))
	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names(got))
	assert.Equal(t, int64(2), s.Computations(), "mutation reuses the view, next read recomputes")

	require.NoError(t, s.Fetch(ctx))
	_, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Computations())
}

func TestAutoSavePersistsBeforeReturning(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := openNotes(t, st, WithAutoSave(true))

	require.NoError(t, s.Add(ctx, note{Name: "alpha", Tags: []string{"x"}}))
	assert.Empty(t, s.Dirty())

	data, err := st.Read(ctx, tagsPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"note":"alpha","tag":"x"}]`, string(data))
}

func TestAutoSaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFaultyStorage(nil)
	seedNotes(t, fs, note{Name: "alpha"})
	s := openNotes(t, fs, WithAutoSave(true))
	notesBefore, err := fs.Read(ctx, notesPath)
	require.NoError(t, err)

	fs.FailWrites(tagsPath, true)
	err = s.Add(ctx, note{Name: "beta", Tags: []string{"t"}})
	require.ErrorIs(t, err, testutil.ErrInjected)

	got, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names(got), "in-memory state unchanged")
	assert.Empty(t, s.Dirty())

	notesAfter, err := fs.Read(ctx, notesPath)
	require.NoError(t, err)
	assert.JSONEq(t, string(notesBefore), string(notesAfter), "written stream restored")
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := openNotes(t, st, WithAutoSave(true))

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Add(ctx, note{Name: fmt.Sprintf("note-%02d", i), Tags: []string{fmt.Sprint(i)}})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.List()
	require.NoError(t, err)
	assert.Len(t, got, n)

	reopened := openNotes(t, st)
	persisted, err := reopened.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, names(got), names(persisted))
}

func TestConcurrentMixedOperations(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := openNotes(t, st)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(4)
		go func(i int) {
			defer wg.Done()
			_ = s.Add(ctx, note{Name: fmt.Sprintf("n%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.List()
		}()
		go func() {
			defer wg.Done()
			_ = s.Save(ctx)
		}()
		go func(i int) {
			defer wg.Done()
			_ = s.Remove(ctx, fmt.Sprintf("n%d", i-1))
		}(i)
	}
	wg.Wait()

	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Fetch(ctx))
	got, err := s.List()
	require.NoError(t, err)
	for _, n := range got {
		assert.NotEmpty(t, n.Name)
	}
}
