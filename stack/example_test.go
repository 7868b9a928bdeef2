package stack_test

import (
	"fmt"

	"github.com/bronxdo/alloc/stack"
)

func Example() {
	s, err := stack.New(make([]byte, 1024))
	if err != nil {
		panic(err)
	}
	defer s.Close()

	a, _ := s.Alloc(100)
	b, _ := s.Alloc(200)

	// Last in, first out.
	s.Free(b)
	s.Free(a)

	fmt.Println(s.Used())
	// Output:
	// 0
}

func ExampleStack_Restore() {
	s, err := stack.New(make([]byte, 1024))
	if err != nil {
		panic(err)
	}
	defer s.Close()

	s.Alloc(64)
	before := s.Used()

	m := s.Save()
	s.Alloc(128)
	s.Alloc(256)
	s.Restore(m)

	fmt.Println(s.Used() == before)
	// Output:
	// true
}
