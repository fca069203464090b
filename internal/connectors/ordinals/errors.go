package ordinals

import "errors"

// Ordinals-specific errors.
var (
	// ErrInvalidCursor indicates the cursor is not a decimal offset.
	ErrInvalidCursor = errors.New("ordinals: invalid cursor format")

	// ErrUnknownEndpoint indicates a fetch was requested against an
	// endpoint this adapter never declared.
	ErrUnknownEndpoint = errors.New("ordinals: unknown endpoint")
)
