package arena

import "errors"

var (
	// ErrNotInitialized indicates an operation on a nil, closed, or never
	// initialized arena.
	ErrNotInitialized = errors.New("arena: not initialized")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("arena: alignment must be a power of two")

	// ErrBadSize indicates a negative allocation size.
	ErrBadSize = errors.New("arena: invalid size")

	// ErrNoSpace indicates the request does not fit in the remaining
	// capacity and no growth is available. The arena stays fully usable.
	ErrNoSpace = errors.New("arena: out of space")

	// ErrOverflow indicates a size or alignment combination that would
	// overflow offset arithmetic.
	ErrOverflow = errors.New("arena: size arithmetic overflow")

	// ErrBadMarker indicates a marker whose block or offset is out of
	// bounds for the current arena state.
	ErrBadMarker = errors.New("arena: marker out of bounds")

	// ErrDebugDisabled indicates a debug-only operation on an arena that
	// was not constructed with WithDebug.
	ErrDebugDisabled = errors.New("arena: debug instrumentation disabled")
)
