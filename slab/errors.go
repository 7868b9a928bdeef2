package slab

import "errors"

var (
	// ErrNotInitialized is returned when operating on a nil or closed slab.
	ErrNotInitialized = errors.New("slab: not initialized")

	// ErrNilBuffer is returned by New when no backing buffer is supplied.
	ErrNilBuffer = errors.New("slab: nil buffer")

	// ErrNoClasses is returned by New when the size-class list is empty.
	ErrNoClasses = errors.New("slab: no size classes")

	// ErrTooManyClasses is returned when the class list exceeds the
	// configured maximum.
	ErrTooManyClasses = errors.New("slab: too many size classes")

	// ErrInvalidClass is returned for zero or negative class sizes.
	ErrInvalidClass = errors.New("slab: invalid size class")

	// ErrDuplicateClass is returned when two classes have the same size.
	ErrDuplicateClass = errors.New("slab: duplicate size class")

	// ErrBadAlign is returned when alignment is not a power of two.
	ErrBadAlign = errors.New("slab: alignment must be a power of two")

	// ErrBufferTooSmall is returned when some class region cannot hold
	// even one slot.
	ErrBufferTooSmall = errors.New("slab: buffer too small")

	// ErrBadSize is returned for zero or negative allocation sizes.
	ErrBadSize = errors.New("slab: invalid size")

	// ErrTooLarge is returned when the request exceeds the largest class.
	ErrTooLarge = errors.New("slab: size exceeds largest class")

	// ErrExhausted is returned when the routed class has no free slots.
	// Classes do not borrow from each other.
	ErrExhausted = errors.New("slab: size class exhausted")

	// ErrNilPtr is returned by Free for a nil pointer.
	ErrNilPtr = errors.New("slab: nil pointer")

	// ErrInvalidPtr is returned by Free for pointers the slab does not own.
	ErrInvalidPtr = errors.New("slab: pointer not owned by slab")

	// ErrOverflow is returned when a size computation overflows.
	ErrOverflow = errors.New("slab: size overflow")
)
