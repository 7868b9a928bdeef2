//go:build unix

package membuf

import (
	"os"

	"golang.org/x/sys/unix"
)

func alloc(size int) ([]byte, func() error, error) {
	rounded := roundToPages(size, os.Getpagesize())
	data, err := unix.Mmap(-1, 0, rounded,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	release := func() error {
		err := unix.Munmap(data)
		if err == unix.EINVAL {
			// Already unmapped.
			return nil
		}
		return err
	}
	return data, release, nil
}
