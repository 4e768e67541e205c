package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec converts between a flat stream and its record list.
type Codec interface {
	Name() string
	Encode(Records) ([]byte, error)
	Decode([]byte) (Records, error)
}

// JSONCodec encodes a stream as a JSON array of string-valued objects.
// This is the on-disk format of the builder tool.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

// Encode writes records as a JSON array. Keys are emitted in sorted order
// and HTML characters are not escaped, since code fields carry source text.
func (JSONCodec) Encode(rs Records) ([]byte, error) {
	if rs == nil {
		rs = Records{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rs); err != nil {
		return nil, fmt.Errorf("encode json records: %w", err)
	}
	// json.Encoder adds a trailing newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Decode parses a JSON array of objects. Empty input is an empty stream.
func (JSONCodec) Decode(data []byte) (Records, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Records{}, nil
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Index: -1, Message: "expected a JSON array of objects", Err: err}
	}
	return fromAny(raw)
}

// YAMLCodec encodes a stream as a YAML sequence of string mappings.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Encode(rs Records) ([]byte, error) {
	if rs == nil {
		rs = Records{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rs); err != nil {
		return nil, fmt.Errorf("encode yaml records: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml records: %w", err)
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Decode(data []byte) (Records, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Records{}, nil
	}
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Index: -1, Message: "expected a YAML sequence of mappings", Err: err}
	}
	return fromAny(raw)
}

// fromAny converts decoded documents into records, rejecting non-string
// values rather than coercing them.
func fromAny(raw []map[string]any) (Records, error) {
	out := make(Records, len(raw))
	for i, m := range raw {
		if m == nil {
			return nil, &DecodeError{Index: i, Message: "record is null"}
		}
		r := make(Record, len(m))
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return nil, &DecodeError{Index: i, Field: k, Message: fmt.Sprintf("value must be a string, got %T", v)}
			}
			r[k] = s
		}
		out[i] = r
	}
	return out, nil
}

// CodecFor returns the codec registered under name ("json" or "yaml").
func CodecFor(name string) (Codec, error) {
	switch name {
	case "json", "":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (supported: json, yaml)", name)
	}
}
