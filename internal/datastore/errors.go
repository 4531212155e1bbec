package datastore

import (
	"context"
	"errors"
	"fmt"
)

// Error wraps backend failures with repository error categories.
type Error struct {
	Op          string
	Err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("datastore: %s", e.Op)
	}
	return fmt.Sprintf("datastore: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the failure was a missing record.
func (e *Error) IsNotFound() bool { return e != nil && e.notFound }

// IsConflict reports whether the failure was a write conflict.
func (e *Error) IsConflict() bool { return e != nil && e.conflict }

// IsUnavailable reports whether the store was unreachable or timed out. Such
// failures are worth retrying.
func (e *Error) IsUnavailable() bool { return e != nil && e.unavailable }

// Category selects how WrapError classifies a failure.
type Category int

const (
	CategoryInternal Category = iota
	CategoryNotFound
	CategoryConflict
	CategoryUnavailable
)

// WrapError annotates err with op and a category. Context cancellation is
// returned unchanged; deadlines are classified as unavailable.
func WrapError(op string, err error, category Category) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		category = CategoryUnavailable
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{
		Op:          op,
		Err:         err,
		notFound:    category == CategoryNotFound,
		conflict:    category == CategoryConflict,
		unavailable: category == CategoryUnavailable,
	}
}
