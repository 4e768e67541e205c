package defs

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/schema"
	"github.com/roach88/customs/internal/storage"
)

// note is a test entity: a primary "notes" record plus dependent "tags"
// records correlated by the note name.
type note struct {
	Name string   `json:"name" yaml:"name"`
	Body string   `json:"body" yaml:"body"`
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

const (
	notesPath = "notes/notes.json"
	tagsPath  = "notes/tags.json"
)

type notesCollection struct{}

func (notesCollection) Kind() string { return "notes" }

func (notesCollection) Streams() []Stream {
	return []Stream{
		{Name: "notes", Path: notesPath, Schema: schema.Schema{Name: "notes", Fields: []string{"name", "body"}}},
		{Name: "tags", Path: tagsPath, Schema: schema.Schema{Name: "tags", Fields: []string{"note", "tag"}}},
	}
}

func (notesCollection) Compose(streams map[string]record.Records) []note {
	out := make([]note, 0, len(streams["notes"]))
	for _, r := range streams["notes"] {
		n := note{Name: r.Get("name"), Body: r.Get("body")}
		for _, t := range streams["tags"] {
			if t.Get("note") == n.Name {
				n.Tags = append(n.Tags, t.Get("tag"))
			}
		}
		out = append(out, n)
	}
	return out
}

func (notesCollection) Flatten(notes []note) map[string]record.Records {
	var ns, ts record.Records
	tagged := make(map[string]bool)
	for _, n := range notes {
		if n.Name == "" {
			continue
		}
		ns = append(ns, record.Record{"name": n.Name, "body": n.Body})
		if tagged[n.Name] {
			continue
		}
		tagged[n.Name] = true
		for _, tag := range n.Tags {
			ts = append(ts, record.Record{"note": n.Name, "tag": tag})
		}
	}
	return map[string]record.Records{"notes": ns, "tags": ts}
}

func (notesCollection) Key(n note) string { return n.Name }

func (notesCollection) WithKey(n note, key string) note {
	n.Tags = slices.Clone(n.Tags)
	n.Name = key
	return n
}

func (notesCollection) Equal(a, b note) bool {
	return a.Name == b.Name && a.Body == b.Body && slices.Equal(a.Tags, b.Tags)
}

func (notesCollection) Clone(n note) note {
	n.Tags = slices.Clone(n.Tags)
	return n
}

// seedNotes writes flat streams for notes directly into st.
func seedNotes(t *testing.T, st storage.Storage, notes ...note) {
	t.Helper()
	flat := notesCollection{}.Flatten(notes)
	for _, s := range (notesCollection{}).Streams() {
		data, err := record.JSONCodec{}.Encode(s.Schema.NormalizeAll(flat[s.Name]))
		require.NoError(t, err)
		require.NoError(t, st.Write(context.Background(), s.Path, data))
	}
}

func openNotes(t *testing.T, st storage.Storage, opts ...Option) *Store[note] {
	t.Helper()
	s, err := Open[note](context.Background(), st, notesCollection{}, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func names(notes []note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Name
	}
	return out
}
