package pool

import "errors"

var (
	// ErrNilPool indicates an operation on a nil or torn-down pool.
	ErrNilPool = errors.New("pool: nil or destroyed pool")

	// ErrNilBuffer indicates a nil or empty backing buffer.
	ErrNilBuffer = errors.New("pool: nil buffer")

	// ErrBufferTooSmall indicates the buffer cannot hold even one slot
	// after alignment (and, in debug mode, bitmap) overhead.
	ErrBufferTooSmall = errors.New("pool: buffer too small for even one slot")

	// ErrInvalidSlotSize indicates a zero or negative slot size.
	ErrInvalidSlotSize = errors.New("pool: invalid slot size")

	// ErrInvalidAlignment indicates an alignment that is not a power of two.
	ErrInvalidAlignment = errors.New("pool: alignment is not a power of two")

	// ErrNilPtr indicates a nil pointer argument to Free.
	ErrNilPtr = errors.New("pool: nil pointer")

	// ErrInvalidPtr indicates a pointer outside the pool's buffer range or
	// not aligned to a slot boundary.
	ErrInvalidPtr = errors.New("pool: pointer not owned by pool")

	// ErrExhausted indicates no free slots remain.
	ErrExhausted = errors.New("pool: exhausted")
)
