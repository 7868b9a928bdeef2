package arena

import (
	"unsafe"

	"github.com/bronxdo/alloc/internal/arith"
)

// Alloc allocates one T in the arena at T's natural alignment. The memory
// is uninitialized (poisoned on debug arenas); use AllocZero for a zeroed
// value. The pointer is valid until the arena is reset past it or closed.
func Alloc[T any](a *Arena) (*T, error) {
	var zero T
	p, err := a.Alloc(int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return (*T)(addrOf(p)), nil
}

// AllocZero allocates one zeroed T in the arena.
func AllocZero[T any](a *Arena) (*T, error) {
	var zero T
	p, err := a.AllocZero(int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return (*T)(addrOf(p)), nil
}

// AllocSlice allocates an uninitialized slice of n elements of T.
// The n * sizeof(T) computation is overflow-checked and fails with
// ErrOverflow rather than wrapping. n of zero returns a nil slice.
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	return allocSlice[T](a, n, false)
}

// AllocSliceZero allocates a zeroed slice of n elements of T.
func AllocSliceZero[T any](a *Arena, n int) ([]T, error) {
	return allocSlice[T](a, n, true)
}

func allocSlice[T any](a *Arena, n int, zero bool) ([]T, error) {
	if n < 0 {
		return nil, ErrBadSize
	}
	if n == 0 {
		return nil, nil
	}
	var elem T
	total, ok := arith.Mul(n, int(unsafe.Sizeof(elem)))
	if !ok {
		return nil, ErrOverflow
	}
	p, err := a.alloc(total, int(unsafe.Alignof(elem)), zero)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(addrOf(p)), n), nil
}
