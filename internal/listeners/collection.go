package listeners

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/schema"
)

// Stream names.
const (
	EventsStream    = "events"
	ListenersStream = "listeners"
)

// Collection maps listener groups to the events and listeners streams.
type Collection struct {
	Paths Paths
}

var _ defs.Collection[Group] = Collection{}

func (Collection) Kind() string { return Kind }

func (c Collection) Streams() []defs.Stream {
	return []defs.Stream{
		{Name: EventsStream, Path: c.Paths.Events, Schema: schema.Events},
		{Name: ListenersStream, Path: c.Paths.Listeners, Schema: schema.Listeners},
	}
}

// Compose builds one group per listener record, in record order, followed
// by the activity group. Events naming no group are not shown.
func (Collection) Compose(streams map[string]record.Records) []Group {
	events := streams[EventsStream]
	listeners := streams[ListenersStream]

	groups := make([]Group, 0, len(listeners)+1)
	for _, r := range listeners {
		groups = append(groups, Group{
			Name:        r.Get("name"),
			Independent: strings.EqualFold(r.Get("s"), "true"),
			Imports:     r.Get("imports"),
			Code:        r.Get("code"),
		})
	}
	groups = append(groups, Group{Name: "", Independent: true})

	for i := range groups {
		for _, r := range events {
			if r.Get("listener") == groups[i].Name {
				groups[i].Events = append(groups[i].Events, eventFromRecord(r))
			}
		}
	}
	return groups
}

// Flatten writes a listener record for every named group and event
// records for every group, the activity group included. Events are keyed
// only by group name, so groups sharing a name contribute the events of
// the first of them; Compose hands those events back to each.
func (Collection) Flatten(groups []Group) map[string]record.Records {
	var events, listeners record.Records
	flattened := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.Name != "" {
			listeners = append(listeners, record.Record{
				"name":    g.Name,
				"s":       strconv.FormatBool(g.Independent),
				"imports": g.Imports,
				"code":    g.Code,
			})
		}
		if flattened[g.Name] {
			continue
		}
		flattened[g.Name] = true
		for _, e := range g.Events {
			events = append(events, eventToRecord(e, g.Name))
		}
	}
	return map[string]record.Records{
		EventsStream:    events,
		ListenersStream: listeners,
	}
}

func (Collection) Key(g Group) string { return g.Name }

func (c Collection) WithKey(g Group, key string) Group {
	g = c.Clone(g)
	g.Name = key
	return g
}

func (Collection) Equal(a, b Group) bool {
	return a.Name == b.Name &&
		a.Independent == b.Independent &&
		a.Imports == b.Imports &&
		a.Code == b.Code &&
		slices.EqualFunc(a.Events, b.Events, eventsEqual)
}

// Clone deep-copies g. Event specs are copied in the form they read back
// from storage, so a spec of one empty field becomes nil.
func (Collection) Clone(g Group) Group {
	if g.Events != nil {
		events := make([]Event, len(g.Events))
		for i, e := range g.Events {
			e.Spec = SplitSpec(JoinSpec(e.Spec))
			events[i] = e
		}
		g.Events = events
	}
	return g
}

func eventsEqual(a, b Event) bool {
	return slices.Equal(a.Spec, b.Spec) &&
		a.Icon == b.Icon &&
		a.Var == b.Var &&
		a.Description == b.Description &&
		a.Parameters == b.Parameters &&
		a.Name == b.Name &&
		a.Code == b.Code
}

func eventFromRecord(r record.Record) Event {
	return Event{
		Spec:        SplitSpec(r.Get("headerSpec")),
		Icon:        parseIcon(r.Get("icon")),
		Var:         r.Get("var"),
		Description: r.Get("description"),
		Parameters:  r.Get("parameters"),
		Name:        r.Get("name"),
		Code:        r.Get("code"),
	}
}

func eventToRecord(e Event, listener string) record.Record {
	return record.Record{
		"headerSpec":  JoinSpec(e.Spec),
		"icon":        strconv.Itoa(e.Icon),
		"var":         e.Var,
		"description": e.Description,
		"parameters":  e.Parameters,
		"name":        e.Name,
		"code":        e.Code,
		"listener":    listener,
	}
}

// SplitSpec splits a header spec on single spaces. The empty spec has no
// fields.
func SplitSpec(spec string) []string {
	if spec == "" {
		return nil
	}
	return strings.Split(spec, " ")
}

// JoinSpec is the inverse of SplitSpec.
func JoinSpec(fields []string) string {
	return strings.Join(fields, " ")
}

// parseIcon reads an icon id; an empty value is 0. The events schema
// rejects values that do not parse, so the error case is not reached for
// validated records.
func parseIcon(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
