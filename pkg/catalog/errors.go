package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayload is returned for payloads that are not valid JSON or
	// lack the nodes/links arrays.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrDuplicateNode is returned when a payload repeats a node id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDanglingLink is returned when a link references an unknown node.
	ErrDanglingLink = errors.New("link references unknown node")

	// ErrSecondRoot is returned when a merge would produce more than one root.
	ErrSecondRoot = errors.New("catalog already has a root node")

	// ErrUnknownNode is returned by lookups of ids not in the catalog.
	ErrUnknownNode = errors.New("unknown node")
)

// ValidationError describes why a payload was rejected. It wraps one of the
// sentinel errors above so callers can branch with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Err: err}
}
