package stack

import "errors"

var (
	// ErrNotInitialized is returned when operating on a nil or closed stack.
	ErrNotInitialized = errors.New("stack: not initialized")

	// ErrNilBuffer is returned by New when no backing buffer is supplied.
	ErrNilBuffer = errors.New("stack: nil buffer")

	// ErrBadSize is returned for zero or negative allocation sizes.
	ErrBadSize = errors.New("stack: invalid size")

	// ErrBadAlign is returned when alignment is not a power of two.
	ErrBadAlign = errors.New("stack: alignment must be a power of two")

	// ErrNoSpace is returned when the request does not fit in the buffer.
	ErrNoSpace = errors.New("stack: out of space")

	// ErrOverflow is returned when a size computation overflows.
	ErrOverflow = errors.New("stack: size overflow")

	// ErrInvalidPtr is returned by Free for pointers the stack does not own.
	ErrInvalidPtr = errors.New("stack: pointer not owned by stack")

	// ErrBadMarker is returned by Restore for markers that are out of range.
	ErrBadMarker = errors.New("stack: invalid marker")
)
