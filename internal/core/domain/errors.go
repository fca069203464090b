package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown adapter type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidConfig indicates a source's configuration is missing or
	// malformed. Fatal at startup, before any scheduling begins.
	ErrInvalidConfig = errors.New("invalid source configuration")

	// ErrCollectInProgress indicates a collect run is already active
	// for the source.
	ErrCollectInProgress = errors.New("collect in progress")

	// Fetch errors.

	// ErrRateLimited indicates a remote API rejected the call for
	// exceeding its quota. Transient.
	ErrRateLimited = errors.New("rate limited")

	// ErrContentNotFound indicates the item has no content at the
	// endpoint. Permanent; falls through to the next endpoint without
	// retrying.
	ErrContentNotFound = errors.New("content not found")

	// ErrEmptyContent indicates an endpoint returned a successful but
	// empty payload. Permanent for that endpoint.
	ErrEmptyContent = errors.New("empty content")

	// ErrTooLarge indicates the item's declared size exceeds the
	// configured ceiling. The item is skipped before any network call.
	ErrTooLarge = errors.New("skipped: content too large")

	// ErrAllEndpointsFailed indicates every declared endpoint failed
	// for an item. Not fatal to the run.
	ErrAllEndpointsFailed = errors.New("all endpoints failed")

	// ErrDeadlineReached indicates the run deadline elapsed before the
	// item was admitted.
	ErrDeadlineReached = errors.New("run deadline reached")

	// ErrAdapterClosed indicates the adapter has been closed.
	ErrAdapterClosed = errors.New("adapter closed")

	// Storage errors.

	// ErrStorageFailed indicates the blob store could not persist
	// content. A local-environment problem, logged distinctly from
	// fetch failures.
	ErrStorageFailed = errors.New("storage failed")
)

// RetryableError marks a fetch failure as transient: the scheduler may
// retry the same endpoint before falling through to the next one.
type RetryableError struct {
	Err error
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err as transient. Returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked transient. Rate-limit
// rejections are always considered transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var re *RetryableError
	return errors.As(err, &re)
}
