// Package pool implements a fixed-size slot allocator over a caller-supplied
// byte region, with O(1) allocation and free.
//
// The free list is embedded directly in unused slot memory: the first machine
// word of a free slot stores the offset of the next free slot, so the pool
// carries zero per-slot overhead while allocated slots hold only user data.
// Freed slots are reused in LIFO order (the most recently freed slot is
// returned first).
//
// Pools are not safe for concurrent use; callers must synchronize externally.
// Without WithDebug, a double free silently corrupts the free list; always
// exercise new code against a debug pool first.
package pool

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/bronxdo/alloc/internal/arith"
)

const (
	// linkSize is the width of the in-slot free-list link word.
	linkSize = 8

	// magicFree marks a free slot in debug mode, written just past the
	// link word. Reading it back during Free is the second, independent
	// double-free detector (the bitmap is the first).
	magicFree uint64 = 0xDEADC0DEDEADC0DE

	poisonByte = 0xFE

	// freeListEnd terminates the embedded free list.
	freeListEnd = -1
)

// Pool is a fixed-size slot allocator. Not safe for concurrent use.
type Pool struct {
	buf  []byte
	base int // aligned start of the slot region within buf

	slotSize  int // effective slot size after minimum and alignment rounding
	slotCount int
	freeCount int
	freeHead  int // offset of the first free slot relative to base, or freeListEnd

	align       int
	zeroOnAlloc bool
	zeroOnFree  bool
	valid       bool

	dbg *debugState
}

// Stats is a snapshot of pool occupancy. The lifetime counters are only
// populated on pools constructed WithDebug.
type Stats struct {
	SlotSize  int
	SlotCount int
	FreeCount int
	UsedCount int

	TotalAllocs int
	TotalFrees  int
	PeakUsed    int
}

// New formats the caller's buffer as a pool of fixed-size slots. The
// effective slot size is max(slotSize, one machine word) rounded up to the
// configured alignment; Capacity reports how many such slots fit after
// alignment overhead. The buffer is borrowed, never released by the pool.
func New(buf []byte, slotSize int, opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(buf) == 0 {
		return nil, ErrNilBuffer
	}
	if slotSize <= 0 {
		return nil, ErrInvalidSlotSize
	}
	if !arith.IsPow2(cfg.align) {
		return nil, ErrInvalidAlignment
	}

	eff, ok := effectiveSlotSize(slotSize, cfg.align, cfg.debug)
	if !ok {
		return nil, ErrInvalidSlotSize
	}

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	aligned, ok := arith.UpAddr(addr, uintptr(cfg.align))
	if !ok {
		return nil, ErrBufferTooSmall
	}
	overhead := int(aligned - addr)
	if overhead >= len(buf) {
		return nil, ErrBufferTooSmall
	}
	usable := len(buf) - overhead

	var bitmapLen int
	if cfg.debug {
		// The tail of the buffer is reserved for the per-slot bitmap,
		// sized for the pre-reservation slot count (an upper bound).
		upper := usable / eff
		bitmapLen, ok = arith.Up((upper+7)/8, cfg.align)
		if !ok || usable <= bitmapLen {
			return nil, ErrBufferTooSmall
		}
		usable -= bitmapLen
	}

	slotCount := usable / eff
	if slotCount == 0 {
		return nil, ErrBufferTooSmall
	}

	p := &Pool{
		buf:         buf,
		base:        overhead,
		slotSize:    eff,
		slotCount:   slotCount,
		align:       cfg.align,
		zeroOnAlloc: cfg.zeroOnAlloc,
		zeroOnFree:  cfg.zeroOnFree,
		valid:       true,
	}
	if cfg.debug {
		p.dbg = newDebugState(cfg.logw, overhead+slotCount*eff, bitmapLen)
		clear(buf[p.dbg.bitmapOff : p.dbg.bitmapOff+bitmapLen])
	}
	p.buildFreeList()
	return p, nil
}

func effectiveSlotSize(slotSize, align int, debug bool) (int, bool) {
	eff := slotSize
	if eff < linkSize {
		eff = linkSize
	}
	eff, ok := arith.Up(eff, align)
	if !ok {
		return 0, false
	}
	if debug && eff < linkSize+8 {
		// Room for the link word plus the free magic.
		eff, ok = arith.Up(linkSize+8, align)
		if !ok {
			return 0, false
		}
	}
	return eff, true
}

// buildFreeList chains every slot into the free list. Built backwards so
// slot 0 ends up at the head: the first allocations walk the buffer front
// to back.
func (p *Pool) buildFreeList() {
	p.freeHead = freeListEnd
	for i := p.slotCount; i > 0; i-- {
		off := (i - 1) * p.slotSize
		p.writeLink(off, p.freeHead)
		p.freeHead = off
		if p.dbg != nil {
			if p.slotSize >= linkSize+8 {
				p.writeMagic(off)
			}
			p.poisonSlot(off)
			p.dbg.bitmapClear(p.buf, i-1)
		}
	}
	p.freeCount = p.slotCount
}

// Alloc pops the free-list head and returns the slot as a full-size slice.
// Fails with ErrExhausted when no slots remain; the pool stays usable.
func (p *Pool) Alloc() ([]byte, error) {
	if p == nil || !p.valid {
		return nil, ErrNilPool
	}
	if p.freeHead == freeListEnd {
		return nil, ErrExhausted
	}

	off := p.freeHead
	p.freeHead = p.readLink(off)
	p.freeCount--

	if p.dbg != nil {
		idx := off / p.slotSize
		if p.dbg.bitmapGet(p.buf, idx) {
			panic(fmt.Sprintf("pool: allocating already-allocated slot %d", idx))
		}
		p.dbg.bitmapSet(p.buf, idx)
		p.dbg.totalAllocs++
		if used := p.slotCount - p.freeCount; used > p.dbg.peakUsed {
			p.dbg.peakUsed = used
		}
		// Scrub the free magic so a live slot never false-positives the
		// double-free check.
		if p.slotSize >= linkSize+8 {
			binary.LittleEndian.PutUint64(p.buf[p.base+off+linkSize:], 0)
		}
	}

	s := p.slot(off)
	if p.zeroOnAlloc {
		clear(s)
	}
	return s, nil
}

// Free returns a slot to the pool. ptr must be a slice handed out by Alloc
// (or any slice starting at a slot boundary inside the pool). On debug
// pools a double free or foreign pointer panics; otherwise Free reports
// ErrInvalidPtr for unowned pointers and leaves double frees undetected
// (undefined behavior, as documented).
func (p *Pool) Free(ptr []byte) error {
	if p == nil || !p.valid {
		return ErrNilPool
	}
	if ptr == nil {
		return ErrNilPtr
	}

	off, ok := p.offsetOf(ptr)
	if !ok {
		if p.dbg != nil {
			panic(fmt.Sprintf("pool: freeing pointer not owned by pool (len=%d)", len(ptr)))
		}
		return ErrInvalidPtr
	}

	if p.dbg != nil {
		// Both double-free detectors run before any state is mutated.
		idx := off / p.slotSize
		if !p.dbg.bitmapGet(p.buf, idx) {
			panic(fmt.Sprintf("pool: double free detected at slot %d", idx))
		}
		if p.slotSize >= linkSize+8 && p.hasMagic(off) {
			panic(fmt.Sprintf("pool: double free detected via magic at slot %d", idx))
		}
		p.dbg.bitmapClear(p.buf, idx)
		p.dbg.totalFrees++
	}

	if p.zeroOnFree {
		clear(p.slot(off))
	}

	// LIFO reuse: the freed slot becomes the new head.
	p.writeLink(off, p.freeHead)
	p.freeHead = off
	p.freeCount++

	if p.dbg != nil && !p.zeroOnFree && p.slotSize >= linkSize+8 {
		p.writeMagic(off)
		p.poisonSlot(off)
	}
	return nil
}

// Reset rebuilds the free list from scratch: every slot becomes free and
// all outstanding pointers are invalidated. Debug bitmap and counters are
// cleared.
func (p *Pool) Reset() {
	if p == nil || !p.valid {
		return
	}
	if p.zeroOnFree {
		clear(p.buf[p.base : p.base+p.slotCount*p.slotSize])
	}
	if p.dbg != nil {
		clear(p.buf[p.dbg.bitmapOff : p.dbg.bitmapOff+p.dbg.bitmapLen])
		p.dbg.totalAllocs = 0
		p.dbg.totalFrees = 0
		p.dbg.peakUsed = 0
	}
	p.buildFreeList()
}

// Close tears the pool down. On debug pools, outstanding allocations are a
// leak: every leaked slot index is reported in the panic message. The
// caller's buffer is never released; only the pool's own metadata is
// cleared.
func (p *Pool) Close() {
	if p == nil || !p.valid {
		return
	}
	if p.dbg != nil {
		if leaked := p.slotCount - p.freeCount; leaked > 0 {
			var idxs []int
			for i := 0; i < p.slotCount; i++ {
				if p.dbg.bitmapGet(p.buf, i) {
					idxs = append(idxs, i)
				}
			}
			panic(fmt.Sprintf("pool: destroyed with %d leaked slots (indices %v)", leaked, idxs))
		}
	}
	*p = Pool{}
}

// IsFull reports whether no slots are available.
func (p *Pool) IsFull() bool {
	return p == nil || !p.valid || p.freeCount == 0
}

// IsEmpty reports whether every slot is available.
func (p *Pool) IsEmpty() bool {
	return p == nil || !p.valid || p.freeCount == p.slotCount
}

// SlotSize returns the effective slot size after minimum and alignment
// rounding (what len() of an allocated slice reports).
func (p *Pool) SlotSize() int {
	if p == nil || !p.valid {
		return 0
	}
	return p.slotSize
}

// Capacity returns the total slot count.
func (p *Pool) Capacity() int {
	if p == nil || !p.valid {
		return 0
	}
	return p.slotCount
}

// Available returns the number of free slots.
func (p *Pool) Available() int {
	if p == nil || !p.valid {
		return 0
	}
	return p.freeCount
}

// Used returns the number of allocated slots.
func (p *Pool) Used() int {
	if p == nil || !p.valid {
		return 0
	}
	return p.slotCount - p.freeCount
}

// Owns reports whether ptr lies within the pool's slot region on a slot
// boundary. This is a shape check only; it says nothing about whether the
// slot is currently allocated (see IsAllocated for that, on debug pools).
func (p *Pool) Owns(ptr []byte) bool {
	if p == nil || !p.valid || ptr == nil {
		return false
	}
	_, ok := p.offsetOf(ptr)
	return ok
}

// Stats returns an occupancy snapshot.
func (p *Pool) Stats() Stats {
	if p == nil || !p.valid {
		return Stats{}
	}
	s := Stats{
		SlotSize:  p.slotSize,
		SlotCount: p.slotCount,
		FreeCount: p.freeCount,
		UsedCount: p.slotCount - p.freeCount,
	}
	if p.dbg != nil {
		s.TotalAllocs = p.dbg.totalAllocs
		s.TotalFrees = p.dbg.totalFrees
		s.PeakUsed = p.dbg.peakUsed
	}
	return s
}

// RequiredSize computes the minimum buffer size that guarantees a pool of
// slotCount slots of slotSize bytes under the given options, including
// worst-case alignment slack and, WithDebug, the bitmap reservation.
// Returns 0 for invalid inputs or on arithmetic overflow.
func RequiredSize(slotSize, slotCount int, opts ...Option) int {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if slotSize <= 0 || slotCount <= 0 || !arith.IsPow2(cfg.align) {
		return 0
	}
	eff, ok := effectiveSlotSize(slotSize, cfg.align, cfg.debug)
	if !ok {
		return 0
	}
	total, ok := arith.Mul(slotCount, eff)
	if !ok {
		return 0
	}
	if cfg.debug {
		bitmap, ok2 := arith.Up((slotCount+7)/8, cfg.align)
		if !ok2 {
			return 0
		}
		total, ok = arith.Add(total, bitmap)
		if !ok {
			return 0
		}
	}
	total, ok = arith.Add(total, cfg.align-1)
	if !ok {
		return 0
	}
	return total
}

func (p *Pool) slot(off int) []byte {
	start := p.base + off
	return p.buf[start : start+p.slotSize : start+p.slotSize]
}

// offsetOf recovers a slot offset from the slice's data pointer, validating
// range and slot alignment.
func (p *Pool) offsetOf(ptr []byte) (int, bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.buf))) + uintptr(p.base)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(ptr)))
	if addr < base {
		return 0, false
	}
	off := int(addr - base)
	if off >= p.slotCount*p.slotSize {
		return 0, false
	}
	if off%p.slotSize != 0 {
		return 0, false
	}
	return off, true
}

func (p *Pool) writeLink(off, next int) {
	v := ^uint64(0)
	if next != freeListEnd {
		v = uint64(next)
	}
	binary.LittleEndian.PutUint64(p.buf[p.base+off:], v)
}

func (p *Pool) readLink(off int) int {
	v := binary.LittleEndian.Uint64(p.buf[p.base+off:])
	if v == ^uint64(0) {
		return freeListEnd
	}
	return int(v)
}

func (p *Pool) writeMagic(off int) {
	binary.LittleEndian.PutUint64(p.buf[p.base+off+linkSize:], magicFree)
}

func (p *Pool) hasMagic(off int) bool {
	return binary.LittleEndian.Uint64(p.buf[p.base+off+linkSize:]) == magicFree
}

// poisonSlot fills the slot past the link word and free magic.
func (p *Pool) poisonSlot(off int) {
	skip := linkSize
	if p.slotSize >= linkSize+8 {
		skip = linkSize + 8
	}
	s := p.slot(off)
	for i := skip; i < len(s); i++ {
		s[i] = poisonByte
	}
}
