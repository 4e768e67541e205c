// Package record provides the flat persisted representation of custom
// definitions.
//
// A Record is one mapping from field name to string value. A flat stream
// is an ordered list of records encoded as text by a Codec. This package
// imports nothing internal; every other package builds on it.
//
// Key constraints:
//   - Values are always strings; absent fields read as "".
//   - Record order inside a stream is preserved across encode/decode.
//   - Decode(Encode(x)) == x for every well-formed record list.
package record
