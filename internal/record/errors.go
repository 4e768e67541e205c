package record

import (
	"errors"
	"fmt"
)

// DecodeError reports flat text that does not match the expected record
// layout. Index is -1 when the failure is not tied to a single record.
type DecodeError struct {
	Stream  string
	Index   int
	Field   string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	prefix := "decode"
	if e.Stream != "" {
		prefix = fmt.Sprintf("decode %s", e.Stream)
	}
	switch {
	case e.Index >= 0 && e.Field != "":
		prefix = fmt.Sprintf("%s: record %d field %q", prefix, e.Index, e.Field)
	case e.Index >= 0:
		prefix = fmt.Sprintf("%s: record %d", prefix, e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// WithStream returns err annotated with the stream name when it is a
// *DecodeError without one. Other errors are returned unchanged.
func WithStream(err error, stream string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Stream == "" {
		cp := *de
		cp.Stream = stream
		return &cp
	}
	return err
}
