// Package membuf provides page-aligned anonymous memory buffers, intended
// as backing regions for the allocators in this module. Buffers come from
// the operating system rather than the Go heap, so the garbage collector
// never scans them and their pages return to the OS on release.
package membuf

import "errors"

// ErrBadSize is returned for zero or negative sizes.
var ErrBadSize = errors.New("membuf: invalid size")

// Alloc reserves at least size bytes of zeroed, page-aligned memory. The
// returned buffer may be longer than requested because the reservation is
// rounded up to whole pages. The release func returns the memory to the
// OS; the buffer must not be touched afterwards.
func Alloc(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, ErrBadSize
	}
	return alloc(size)
}

func roundToPages(size, pageSize int) int {
	return (size + pageSize - 1) / pageSize * pageSize
}
