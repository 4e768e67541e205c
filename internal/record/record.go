package record

import (
	"maps"
	"slices"
)

// Record is the atomic persisted unit: field name to string value.
type Record map[string]string

// Records is an ordered list of records forming one flat stream.
type Records []Record

// Get returns the value of field, or "" when absent.
func (r Record) Get(field string) string {
	return r[field]
}

// Clone returns a copy of the record that shares no state with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Equal reports whether two records hold the same fields and values.
func (r Record) Equal(other Record) bool {
	return maps.Equal(r, other)
}

// Clone returns a deep copy of the list.
func (rs Records) Clone() Records {
	if rs == nil {
		return nil
	}
	out := make(Records, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Equal reports whether both lists hold equal records in the same order.
func (rs Records) Equal(other Records) bool {
	return slices.EqualFunc(rs, other, func(a, b Record) bool { return a.Equal(b) })
}

// Filter returns the records for which keep returns true, in order.
func (rs Records) Filter(keep func(Record) bool) Records {
	out := make(Records, 0, len(rs))
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
