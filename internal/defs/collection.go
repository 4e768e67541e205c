package defs

import (
	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/schema"
)

// Stream names one flat stream backing a collection.
type Stream struct {
	// Name is the logical stream name used as the key in Compose and Flatten.
	Name string

	// Path is the storage path of the stream.
	Path string

	Schema schema.Schema
}

// Collection adapts one entity type to the flat record model.
//
// Compose and Flatten are pure and total: they never perform I/O and
// never fail on records that passed schema validation. Compose receives
// normalized records for every stream listed by Streams.
type Collection[E any] interface {
	// Kind names the collection in logs and errors (e.g. "listeners").
	Kind() string

	Streams() []Stream

	Compose(streams map[string]record.Records) []E
	Flatten(entities []E) map[string]record.Records

	// Key returns the entity's name/id.
	Key(e E) string

	// WithKey returns a copy of e renamed to key.
	WithKey(e E, key string) E

	// Equal reports structural equality.
	Equal(a, b E) bool

	// Clone returns a deep copy sharing no mutable state with e.
	Clone(e E) E
}
