package defs

import (
	"context"
	"io"

	"github.com/roach88/customs/internal/tasks"
)

// FetchAsync runs Fetch on the store's pool. callback may be nil.
func (s *Store[E]) FetchAsync(ctx context.Context, callback func()) *tasks.Task {
	return s.pool.Submit(ctx, s.coll.Kind()+".fetch", s.Fetch, callback)
}

// SaveAsync runs Save on the store's pool. callback may be nil.
func (s *Store[E]) SaveAsync(ctx context.Context, callback func()) *tasks.Task {
	return s.pool.Submit(ctx, s.coll.Kind()+".save", s.Save, callback)
}

// ImportAsync runs ImportFrom on the store's pool. callback may be nil.
func (s *Store[E]) ImportAsync(ctx context.Context, r io.Reader, format Format, resolve Resolver, callback func()) *tasks.Task {
	return s.pool.Submit(ctx, s.coll.Kind()+".import", func(ctx context.Context) error {
		return s.ImportFrom(ctx, r, format, resolve)
	}, callback)
}

// ExportAsync runs Export on the store's pool. The result is stored in
// *result when result is non-nil and the export succeeds.
func (s *Store[E]) ExportAsync(ctx context.Context, w io.Writer, format Format, result *ExportResult, callback func()) *tasks.Task {
	return s.pool.Submit(ctx, s.coll.Kind()+".export", func(ctx context.Context) error {
		res, err := s.Export(ctx, w, format)
		if err != nil {
			return err
		}
		if result != nil {
			*result = res
		}
		return nil
	}, callback)
}
