package defs

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a lookup by name/id matched nothing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConflictResolution indicates an import resolver or a rename
	// produced an unusable name.
	ErrCodeConflictResolution ErrorCode = "CONFLICT_RESOLUTION"
)

// NotFoundError reports an edit or lookup for a name/id absent from the
// collection.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %q not found", ErrCodeNotFound, e.Kind, e.Key)
}

// ConflictResolutionError reports a new name that would collide, either a
// resolver result during import or the target of a rename. The operation
// is aborted without any state change.
type ConflictResolutionError struct {
	Kind     string
	Conflict string // name being replaced
	Resolved string // colliding new name
	Reason   string
}

func (e *ConflictResolutionError) Error() string {
	return fmt.Sprintf("%s: %s %q resolved to %q: %s", ErrCodeConflictResolution, e.Kind, e.Conflict, e.Resolved, e.Reason)
}

// IsNotFound returns true if err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflictResolution returns true if err wraps a *ConflictResolutionError.
func IsConflictResolution(err error) bool {
	var ce *ConflictResolutionError
	return errors.As(err, &ce)
}
