// Package listeners stores custom listener groups.
//
// A group is persisted as one record in the listeners stream plus one
// record per event in the events stream, correlated by the event's
// "listener" field. Events whose listener field is empty belong to the
// implicit activity group, which always ends the materialized list.
package listeners

import (
	"context"

	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/storage"
)

// Kind is the collection kind used in logs and errors.
const Kind = "listeners"

// Default storage paths, relative to the storage root.
const (
	DefaultEventsPath    = "data/system/events.json"
	DefaultListenersPath = "data/system/listeners.json"
)

// Event is one custom event of a listener group.
type Event struct {
	// Spec is the block header spec split on single spaces.
	Spec        []string `json:"spec,omitempty" yaml:"spec,omitempty"`
	Icon        int      `json:"icon" yaml:"icon"`
	Var         string   `json:"var" yaml:"var"`
	Description string   `json:"description" yaml:"description"`
	Parameters  string   `json:"parameters" yaml:"parameters"`
	Name        string   `json:"name" yaml:"name"`
	Code        string   `json:"code" yaml:"code"`
}

// Group is a named listener group and its events.
type Group struct {
	Name        string  `json:"name" yaml:"name"`
	Independent bool    `json:"independent" yaml:"independent"`
	Imports     string  `json:"imports" yaml:"imports"`
	Code        string  `json:"code" yaml:"code"`
	Events      []Event `json:"events,omitempty" yaml:"events,omitempty"`
}

// IsActivity reports whether g is the implicit activity group.
func (g Group) IsActivity() bool {
	return g.Name == ""
}

// Paths locates the two streams of a listeners collection.
type Paths struct {
	Events    string
	Listeners string
}

// DefaultPaths returns the conventional stream locations.
func DefaultPaths() Paths {
	return Paths{Events: DefaultEventsPath, Listeners: DefaultListenersPath}
}

// Store is a definitions store of listener groups.
type Store = defs.Store[Group]

// Open loads the listener groups stored at paths in st. Empty paths use
// the defaults.
func Open(ctx context.Context, st storage.Storage, paths Paths, opts ...defs.Option) (*Store, error) {
	if paths.Events == "" {
		paths.Events = DefaultEventsPath
	}
	if paths.Listeners == "" {
		paths.Listeners = DefaultListenersPath
	}
	return defs.Open[Group](ctx, st, Collection{Paths: paths}, opts...)
}
