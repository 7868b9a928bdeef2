// Package stack implements a LIFO allocator over a caller-supplied byte
// region. Allocation and free are both O(1).
//
// Each allocation is preceded by a hidden machine-word header recording the
// stack top before the allocation was made, so Free can rewind without any
// external bookkeeping. The price is a strict discipline: free the most
// recent allocation first. Freeing an older allocation is legal but
// releases everything allocated after it in the same step. WithValidateLIFO
// turns out-of-order frees into panics during development.
//
// Unlike package arena, zero-size allocations are rejected here with
// ErrBadSize. There is no meaningful address to hand out when every
// allocation carries a header.
//
// Stacks are not safe for concurrent use.
package stack

import (
	"encoding/binary"
	"unsafe"

	"github.com/bronxdo/alloc/internal/arith"
)

const (
	// headerSize is the width of the hidden back-offset word written
	// immediately before each allocation.
	headerSize = 8

	poisonFreed = 0xCD
)

// Stack is a LIFO allocator. Not safe for concurrent use.
type Stack struct {
	buf   []byte
	off   int
	valid bool
	dbg   *debugState
}

// Marker is an opaque snapshot of the stack top, for Save and Restore.
type Marker struct {
	off int
}

// Stats is a point-in-time snapshot. The lifetime counters are only
// populated on stacks constructed WithDebug.
type Stats struct {
	Capacity  int
	Used      int
	Remaining int

	AllocCount     int
	TotalRequested int
	PeakUsage      int
}

// New wraps the caller's buffer as a stack allocator. The buffer is
// borrowed, never released by the stack.
func New(buf []byte, opts ...Option) (*Stack, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(buf) == 0 {
		return nil, ErrNilBuffer
	}
	s := &Stack{buf: buf, valid: true}
	if cfg.debug {
		s.dbg = &debugState{strictLIFO: cfg.strictLIFO}
	}
	return s, nil
}

// Alloc pushes size bytes with DefaultAlign alignment.
func (s *Stack) Alloc(size int) ([]byte, error) {
	return s.AllocAligned(size, DefaultAlign)
}

// AllocAligned pushes size bytes aligned to align, which must be a power
// of two. Alignments below DefaultAlign are rounded up so the header word
// stays naturally aligned.
func (s *Stack) AllocAligned(size, align int) ([]byte, error) {
	if s == nil || !s.valid {
		return nil, ErrNotInitialized
	}
	if size <= 0 {
		return nil, ErrBadSize
	}
	if !arith.IsPow2(align) {
		return nil, ErrBadAlign
	}
	if align < DefaultAlign {
		align = DefaultAlign
	}

	// Align the user region, not the header: pad between the current top
	// and the header so the byte after the header lands on the boundary.
	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf)))
	want := base + uintptr(s.off) + headerSize
	aligned, ok := arith.UpAddr(want, uintptr(align))
	if !ok {
		return nil, ErrOverflow
	}
	userOff := s.off + headerSize + int(aligned-want)

	end, ok := arith.Add(userOff, size)
	if !ok {
		return nil, ErrOverflow
	}
	if end > len(s.buf) {
		return nil, ErrNoSpace
	}

	prev := s.off
	binary.LittleEndian.PutUint64(s.buf[userOff-headerSize:], uint64(prev))
	s.off = end

	if s.dbg != nil {
		s.dbg.notePush(userOff, size)
		if s.off > s.dbg.peakUsage {
			s.dbg.peakUsage = s.off
		}
	}
	return s.buf[userOff:end:end], nil
}

// Calloc pushes num elements of size bytes each, zeroed. The product is
// checked for overflow.
func (s *Stack) Calloc(num, size int) ([]byte, error) {
	if num <= 0 || size <= 0 {
		return nil, ErrBadSize
	}
	total, ok := arith.Mul(num, size)
	if !ok {
		return nil, ErrOverflow
	}
	p, err := s.Alloc(total)
	if err != nil {
		return nil, err
	}
	clear(p)
	return p, nil
}

// Free pops the allocation holding ptr, rewinding the stack to the top
// recorded in its header. Freeing a non-top allocation also releases
// everything pushed after it. Free(nil) is a no-op.
func (s *Stack) Free(ptr []byte) error {
	if ptr == nil {
		return nil
	}
	if s == nil || !s.valid {
		return ErrNotInitialized
	}

	userOff, ok := s.offsetOf(ptr)
	if !ok {
		if s.dbg != nil {
			panic("stack: freeing pointer not owned by stack")
		}
		return ErrInvalidPtr
	}

	prev := int(binary.LittleEndian.Uint64(s.buf[userOff-headerSize:]))
	if prev < 0 || prev > userOff-headerSize {
		// Corrupted or stale header.
		if s.dbg != nil {
			panic("stack: corrupted allocation header")
		}
		return ErrInvalidPtr
	}

	if s.dbg != nil {
		s.dbg.notePop(userOff)
	}

	old := s.off
	s.off = prev
	if s.dbg != nil {
		fill(s.buf[prev:old], poisonFreed)
	}
	return nil
}

// Save captures the current stack top.
func (s *Stack) Save() Marker {
	if s == nil || !s.valid {
		return Marker{}
	}
	return Marker{off: s.off}
}

// Restore rewinds the stack to a previously saved marker, releasing every
// allocation made after Save. Markers ahead of the current top are
// rejected with ErrBadMarker.
func (s *Stack) Restore(m Marker) error {
	if s == nil || !s.valid {
		return ErrNotInitialized
	}
	if m.off < 0 || m.off > s.off {
		return ErrBadMarker
	}
	old := s.off
	s.off = m.off
	if s.dbg != nil {
		s.dbg.dropAbove(m.off)
		fill(s.buf[m.off:old], poisonFreed)
	}
	return nil
}

// Reset releases every allocation.
func (s *Stack) Reset() {
	if s == nil || !s.valid {
		return
	}
	if s.dbg != nil {
		fill(s.buf[:s.off], poisonFreed)
		s.dbg.dropAbove(0)
	}
	s.off = 0
}

// Remaining returns the bytes left before the buffer end. Each future
// allocation still spends a header and padding out of this figure.
func (s *Stack) Remaining() int {
	if s == nil || !s.valid {
		return 0
	}
	return len(s.buf) - s.off
}

// Used returns the current stack top, headers and padding included.
func (s *Stack) Used() int {
	if s == nil || !s.valid {
		return 0
	}
	return s.off
}

// Capacity returns the backing buffer size.
func (s *Stack) Capacity() int {
	if s == nil || !s.valid {
		return 0
	}
	return len(s.buf)
}

// IsValid reports whether the stack is usable.
func (s *Stack) IsValid() bool {
	return s != nil && s.valid
}

// Owns reports whether ptr points into the live region of the stack. A
// freed pointer stops being owned as soon as the top rewinds past it.
func (s *Stack) Owns(ptr []byte) bool {
	if s == nil || !s.valid || ptr == nil {
		return false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf)))
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(ptr)))
	return addr >= base && addr < base+uintptr(s.off)
}

// Stats returns a point-in-time snapshot.
func (s *Stack) Stats() Stats {
	if s == nil || !s.valid {
		return Stats{}
	}
	st := Stats{
		Capacity:  len(s.buf),
		Used:      s.off,
		Remaining: len(s.buf) - s.off,
	}
	if s.dbg != nil {
		st.AllocCount = len(s.dbg.live)
		st.TotalRequested = s.dbg.totalRequested
		st.PeakUsage = s.dbg.peakUsage
	}
	return st
}

// Close invalidates the stack. The caller's buffer is never released. In
// debug mode the live region is poisoned first.
func (s *Stack) Close() {
	if s == nil || !s.valid {
		return
	}
	if s.dbg != nil {
		fill(s.buf[:s.off], poisonFreed)
	}
	*s = Stack{}
}

// offsetOf recovers the user offset of ptr, validating that a header can
// precede it and that it lies below the current top.
func (s *Stack) offsetOf(ptr []byte) (int, bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf)))
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(ptr)))
	if addr < base+headerSize {
		return 0, false
	}
	off := int(addr - base)
	if off >= s.off || off+len(ptr) > s.off {
		return 0, false
	}
	return off, true
}

func fill(p []byte, v byte) {
	for i := range p {
		p[i] = v
	}
}
