// Package arith provides the overflow-safe integer and address arithmetic
// shared by the allocator packages. All offset and size computations in this
// module go through these helpers so that a request near the top of the
// address space fails cleanly instead of wrapping into a bogus offset.
package arith

import "math"

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Up returns n aligned up to the next multiple of align.
// align must be a power of two. Returns ok = false when the result
// would overflow int.
//
// Example:
//
//	Up(1, 8)  = 8
//	Up(8, 8)  = 8
//	Up(9, 8)  = 16
func Up(n, align int) (int, bool) {
	mask := align - 1
	sum, ok := Add(n, mask)
	if !ok {
		return 0, false
	}
	return sum &^ mask, true
}

// UpAddr returns addr aligned up to the next multiple of align.
// align must be a power of two. Returns ok = false when the aligned
// address wraps around the address space.
func UpAddr(addr, align uintptr) (uintptr, bool) {
	mask := align - 1
	aligned := (addr + mask) &^ mask
	if aligned < addr {
		return 0, false
	}
	return aligned, true
}

// Add adds a and b, returning ok = false when the result would overflow int.
func Add(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Mul multiplies a and b, returning ok = false when the result would
// overflow int. This is essential for count * elementSize calculations.
func Mul(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > 0 && b > 0 {
		if a > math.MaxInt/b {
			return 0, false
		}
	}
	if a < 0 && b < 0 {
		if a < math.MaxInt/b {
			return 0, false
		}
	}
	if a > 0 && b < 0 {
		if b < math.MinInt/a {
			return 0, false
		}
	}
	if a < 0 && b > 0 {
		if a < math.MinInt/b {
			return 0, false
		}
	}
	return a * b, true
}
