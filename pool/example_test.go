package pool_test

import (
	"encoding/binary"
	"fmt"

	"github.com/bronxdo/alloc/pool"
)

func Example() {
	buf := make([]byte, pool.RequiredSize(64, 8))
	p, err := pool.New(buf, 64)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	slot, err := p.Alloc()
	if err != nil {
		panic(err)
	}
	binary.LittleEndian.PutUint32(slot, 42)

	fmt.Println(binary.LittleEndian.Uint32(slot))
	fmt.Println(p.Used())

	if err := p.Free(slot); err != nil {
		panic(err)
	}
	fmt.Println(p.Used())
	// Output:
	// 42
	// 1
	// 0
}

func ExamplePool_Free() {
	buf := make([]byte, pool.RequiredSize(32, 4))
	p, err := pool.New(buf, 32)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	a, _ := p.Alloc()
	b, _ := p.Alloc()

	// Freed slots are reused most-recent-first.
	p.Free(b)
	p.Free(a)
	c, _ := p.Alloc()

	fmt.Println(&c[0] == &a[0])
	// Output:
	// true
}
