// Package schema describes the record layout of each flat stream and
// validates decoded records against it.
package schema

import (
	_ "embed"
	"fmt"
	"strconv"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/customs/internal/record"
)

//go:embed schemas.cue
var schemaSource string

// Schema is the fixed field layout of one record stream.
type Schema struct {
	// Name identifies the stream kind (e.g. "events").
	Name string

	// Definition is the CUE definition records are checked against.
	// Empty skips validation.
	Definition string

	// Fields lists the field names in declaration order.
	Fields []string

	// Ints lists fields holding an int; "" is allowed and reads as 0.
	Ints []string
}

// Built-in layouts.
var (
	Events = Schema{
		Name:       "events",
		Definition: "#Event",
		Fields:     []string{"headerSpec", "icon", "var", "description", "parameters", "name", "code", "listener"},
		Ints:       []string{"icon"},
	}

	Listeners = Schema{
		Name:       "listeners",
		Definition: "#Listener",
		Fields:     []string{"name", "s", "imports", "code"},
	}

	Menus = Schema{
		Name:       "menus",
		Definition: "#Menu",
		Fields:     []string{"name", "title", "data"},
	}
)

// Normalize returns a copy of r holding exactly the schema's fields.
// Absent fields read as ""; unknown fields are dropped.
func (s Schema) Normalize(r record.Record) record.Record {
	out := make(record.Record, len(s.Fields))
	for _, f := range s.Fields {
		out[f] = r[f]
	}
	return out
}

// NormalizeAll applies Normalize to every record.
func (s Schema) NormalizeAll(rs record.Records) record.Records {
	out := make(record.Records, len(rs))
	for i, r := range rs {
		out[i] = s.Normalize(r)
	}
	return out
}

// Validate checks normalized records against the schema's CUE definition
// and checks that every Ints field fits an int. The first violation is
// returned as a *record.DecodeError.
func (s Schema) Validate(rs record.Records) error {
	if s.Definition != "" {
		if err := defaultValidator.validate(s, rs); err != nil {
			return err
		}
	}
	return s.checkInts(rs)
}

func (s Schema) checkInts(rs record.Records) error {
	for i, r := range rs {
		for _, f := range s.Ints {
			v := r[f]
			if v == "" {
				continue
			}
			if _, err := strconv.Atoi(v); err != nil {
				return &record.DecodeError{Stream: s.Name, Index: i, Field: f, Message: "not an int", Err: err}
			}
		}
	}
	return nil
}

// validator compiles the embedded CUE source once. A cue.Context is not
// safe for concurrent use, so every evaluation holds mu.
type validator struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
	err  error
}

var defaultValidator = &validator{}

func (v *validator) load() error {
	v.once.Do(func() {
		v.ctx = cuecontext.New()
		v.root = v.ctx.CompileString(schemaSource, cue.Filename("schemas.cue"))
		v.err = v.root.Err()
	})
	return v.err
}

func (v *validator) validate(s Schema, rs record.Records) error {
	if err := v.load(); err != nil {
		return fmt.Errorf("compile record schemas: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.root.LookupPath(cue.ParsePath(s.Definition))
	if !def.Exists() {
		return fmt.Errorf("schema %s: definition %s not found", s.Name, s.Definition)
	}

	for i, r := range rs {
		unified := def.Unify(v.ctx.Encode(map[string]string(r)))
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return toDecodeError(s.Name, i, err)
		}
	}
	return nil
}

// toDecodeError converts the first CUE error into a DecodeError naming the
// offending field.
func toDecodeError(stream string, index int, err error) error {
	de := &record.DecodeError{Stream: stream, Index: index, Message: "record does not match schema", Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return de
	}
	first := errs[0]
	if path := first.Path(); len(path) > 0 {
		de.Field = path[len(path)-1]
	}
	de.Err = first
	return de
}
