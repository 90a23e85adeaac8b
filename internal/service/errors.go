package service

import "errors"

// Error taxonomy of the settlement pipeline. Handlers map these to HTTP
// status codes; everything else surfaces as an internal error.
var (
	// ErrValidation marks malformed or missing input, rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrPrecondition marks an operation against an entity in the wrong state,
	// e.g. re-finalizing a scored trip or re-allocating a finalized period.
	// The operation is a no-op.
	ErrPrecondition = errors.New("precondition failed")

	// ErrConflict marks an optimistic update invalidated by a concurrent
	// writer after the internal retry budget was exhausted.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
)
