package slab_test

import (
	"fmt"

	"github.com/bronxdo/alloc/slab"
)

func Example() {
	sizes := []int{32, 64, 128}
	buf := make([]byte, slab.BufferSizeNeeded(sizes, 16))
	s, err := slab.New(buf, sizes)
	if err != nil {
		panic(err)
	}
	defer s.Close()

	// A 50-byte request routes to the 64-byte class.
	p, err := s.Alloc(50)
	if err != nil {
		panic(err)
	}
	usable, _ := s.UsableSize(p)

	fmt.Println(len(p), usable)

	if err := s.Free(p); err != nil {
		panic(err)
	}
	// Output:
	// 50 64
}
