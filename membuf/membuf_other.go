//go:build !unix

package membuf

import "os"

// Heap-backed fallback for platforms without anonymous mmap. Still page
// sized and zeroed, but the memory stays under the Go runtime.
func alloc(size int) ([]byte, func() error, error) {
	data := make([]byte, roundToPages(size, os.Getpagesize()))
	release := func() error { return nil }
	return data, release, nil
}
