// Package menus stores custom menu entries in a single flat stream.
package menus

import (
	"context"

	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/schema"
	"github.com/roach88/customs/internal/storage"
)

const (
	// Kind is the collection kind used in logs and errors.
	Kind = "menus"

	// Stream is the name of the only stream of the collection.
	Stream = "menus"

	DefaultPath = "resources/block/Menu Block/menus.json"
)

// Menu is a custom menu entry. ID is persisted as the record's "name".
type Menu struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Data  string `json:"data" yaml:"data"`
}

// Store is a definitions store of menus.
type Store = defs.Store[Menu]

// Open loads the menus stored at path in st. An empty path uses
// DefaultPath.
func Open(ctx context.Context, st storage.Storage, path string, opts ...defs.Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	return defs.Open[Menu](ctx, st, Collection{Path: path}, opts...)
}

// Collection maps menus to the menus stream.
type Collection struct {
	Path string
}

var _ defs.Collection[Menu] = Collection{}

func (Collection) Kind() string { return Kind }

func (c Collection) Streams() []defs.Stream {
	return []defs.Stream{{Name: Stream, Path: c.Path, Schema: schema.Menus}}
}

func (Collection) Compose(streams map[string]record.Records) []Menu {
	rs := streams[Stream]
	out := make([]Menu, 0, len(rs))
	for _, r := range rs {
		out = append(out, Menu{ID: r.Get("name"), Title: r.Get("title"), Data: r.Get("data")})
	}
	return out
}

// Flatten drops menus with an empty ID.
func (Collection) Flatten(menus []Menu) map[string]record.Records {
	var rs record.Records
	for _, m := range menus {
		if m.ID == "" {
			continue
		}
		rs = append(rs, record.Record{"name": m.ID, "title": m.Title, "data": m.Data})
	}
	return map[string]record.Records{Stream: rs}
}

func (Collection) Key(m Menu) string { return m.ID }

func (Collection) WithKey(m Menu, key string) Menu {
	m.ID = key
	return m
}

func (Collection) Equal(a, b Menu) bool { return a == b }

func (Collection) Clone(m Menu) Menu { return m }
