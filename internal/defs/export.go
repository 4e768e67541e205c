package defs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/customs/internal/record"
)

// Format is the interchange encoding of exported entities.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat returns the Format named s. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: json, yaml)", s)
	}
}

// ExportResult summarizes an export.
type ExportResult struct {
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
	Digest string `json:"digest"`
}

// Export writes the current view to w. It reads through the cache and
// never touches storage; Save first if the snapshot must match storage.
//
// Digest fingerprints the flattened records of the exported entities and
// is independent of the interchange format.
func (s *Store[E]) Export(ctx context.Context, w io.Writer, format Format) (ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ExportResult{}, err
	}
	current, err := s.materializeLocked()
	if err != nil {
		return ExportResult{}, err
	}

	data, err := encodeEntities(current, format)
	if err != nil {
		return ExportResult{}, err
	}
	digest, err := s.digestLocked(current)
	if err != nil {
		return ExportResult{}, err
	}
	if _, err := w.Write(data); err != nil {
		return ExportResult{}, fmt.Errorf("export %s: %w", s.coll.Kind(), err)
	}

	res := ExportResult{Kind: s.coll.Kind(), Count: len(current), Digest: digest}
	slog.Info("definitions exported", "kind", res.Kind, "count", res.Count, "format", string(format))
	return res, nil
}

func (s *Store[E]) digestLocked(entities []E) (string, error) {
	flattened := s.coll.Flatten(entities)
	doc := make(map[string]any, len(flattened))
	for _, st := range s.coll.Streams() {
		doc[st.Name] = st.Schema.NormalizeAll(flattened[st.Name])
	}
	return record.Digest(record.DomainExport, doc)
}

func encodeEntities[E any](entities []E, format Format) ([]byte, error) {
	if entities == nil {
		entities = []E{}
	}
	var buf bytes.Buffer
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entities); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(entities); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return buf.Bytes(), nil
}

func decodeEntities[E any](r io.Reader, format Format) ([]E, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import document: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out []E
	switch format {
	case FormatJSON, "":
		err = json.Unmarshal(data, &out)
	case FormatYAML:
		err = yaml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, &record.DecodeError{Stream: "import", Index: -1, Message: "malformed import document", Err: err}
	}
	return out, nil
}
