package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Micevski239/gerbera-sub000/internal/repositories"
)

// FetchError reports a failed read from the data store. Retryable is set for
// timeouts and unavailable backends; callers decide whether to retry.
type FetchError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: fetch failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsRetryable reports whether err is a FetchError marked retryable.
func IsRetryable(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Retryable
}

func newFetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *FetchError
	if errors.As(err, &existing) {
		return err
	}
	return &FetchError{Op: op, Err: err, Retryable: retryable(err)}
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
