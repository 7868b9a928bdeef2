// Package slab implements a multi-class slot allocator: one caller-supplied
// buffer cut into equal regions, one region per size class, each region
// running its own embedded free list.
//
// Requests route to the smallest class that fits. Classes never borrow
// slots from each other, so exhausting one class leaves the rest untouched
// and allocation latency stays O(log classes) for the routing lookup plus
// O(1) for the slot pop.
//
// Allocated slices have len equal to the requested size and cap equal to
// the full slot, so a caller that knows it owns the slot can reslice up to
// cap without a second allocation.
//
// Slabs are not safe for concurrent use.
package slab

import (
	"encoding/binary"
	"fmt"
	"sort"
	"unsafe"

	"github.com/bronxdo/alloc/internal/arith"
)

const (
	linkSize = 8

	// magicFree marks a free slot in debug mode, stored just past the
	// link word. Seeing it again during Free means a double free.
	magicFree uint64 = 0xDEADC0DEDEADC0DE

	poisonByte = 0xFE

	freeListEnd = -1
)

type class struct {
	size     int // user-facing class size
	slotSize int // effective slot size after minimum and alignment rounding
	slots    int
	freeHead int // offset within the class region, or freeListEnd
	free     int

	totalAllocs int
	totalFrees  int
	peakUsed    int
}

// Slab is a multi-class slot allocator. Not safe for concurrent use.
type Slab struct {
	buf        []byte
	base       int // aligned start of the first class region
	regionSize int
	classes    []class
	debug      bool
	valid      bool
}

// ClassStats is a per-class snapshot. The lifetime counters are only
// populated on slabs constructed WithDebug.
type ClassStats struct {
	Size      int
	SlotSize  int
	SlotCount int
	FreeCount int
	UsedCount int

	TotalAllocs int
	TotalFrees  int
	PeakUsed    int
}

// Stats aggregates occupancy across all classes.
type Stats struct {
	Classes int
	Slots   int
	Used    int
	Free    int

	TotalAllocs int
	TotalFrees  int
}

// New cuts the caller's buffer into one equal region per size class. The
// class list is sorted; duplicate sizes are rejected with
// ErrDuplicateClass rather than collapsed, since they would silently
// change the partition arithmetic. Each region must hold at least one
// slot of its class. The buffer is borrowed, never released by the slab.
func New(buf []byte, sizes []int, opts ...Option) (*Slab, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(buf) == 0 {
		return nil, ErrNilBuffer
	}
	if len(sizes) == 0 {
		return nil, ErrNoClasses
	}
	if cfg.maxClasses <= 0 || len(sizes) > cfg.maxClasses {
		return nil, ErrTooManyClasses
	}
	for _, sz := range sizes {
		if sz <= 0 {
			return nil, ErrInvalidClass
		}
	}
	if !arith.IsPow2(cfg.align) {
		return nil, ErrBadAlign
	}

	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, ErrDuplicateClass
		}
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

	// Equal partition, truncated so every region starts aligned.
	region := usable / len(sorted) / cfg.align * cfg.align
	if region == 0 {
		return nil, ErrBufferTooSmall
	}

	s := &Slab{
		buf:        buf,
		base:       overhead,
		regionSize: region,
		classes:    make([]class, len(sorted)),
		debug:      cfg.debug,
		valid:      true,
	}
	for i, sz := range sorted {
		eff, ok := effectiveSlotSize(sz, cfg.align, cfg.debug)
		if !ok {
			return nil, ErrOverflow
		}
		slots := region / eff
		if slots == 0 {
			return nil, ErrBufferTooSmall
		}
		s.classes[i] = class{size: sz, slotSize: eff, slots: slots}
	}
	for i := range s.classes {
		s.buildFreeList(i)
	}
	return s, nil
}

func effectiveSlotSize(size, align int, debug bool) (int, bool) {
	eff := size
	if eff < linkSize {
		eff = linkSize
	}
	if debug && eff < linkSize+8 {
		eff = linkSize + 8
	}
	return arith.Up(eff, align)
}

// buildFreeList chains every slot of class i, front to back, so slot 0 is
// the head.
func (s *Slab) buildFreeList(i int) {
	c := &s.classes[i]
	c.freeHead = freeListEnd
	for n := c.slots; n > 0; n-- {
		off := (n - 1) * c.slotSize
		s.writeLink(i, off, c.freeHead)
		c.freeHead = off
		if s.debug {
			s.writeMagic(i, off)
			s.poisonSlot(i, off)
		}
	}
	c.free = c.slots
}

// Alloc routes size to the smallest class that fits and pops a slot from
// it. The returned slice has len size and cap equal to the full slot.
// Classes do not fall back to each other: a full class reports
// ErrExhausted even when larger classes have room.
func (s *Slab) Alloc(size int) ([]byte, error) {
	if s == nil || !s.valid {
		return nil, ErrNotInitialized
	}
	if size <= 0 {
		return nil, ErrBadSize
	}

	idx := sort.Search(len(s.classes), func(i int) bool {
		return s.classes[i].size >= size
	})
	if idx == len(s.classes) {
		return nil, ErrTooLarge
	}

	c := &s.classes[idx]
	if c.freeHead == freeListEnd {
		return nil, ErrExhausted
	}
	off := c.freeHead
	c.freeHead = s.readLink(idx, off)
	c.free--

	if s.debug {
		// Scrub the free magic so a live slot never false-positives the
		// double-free check.
		binary.LittleEndian.PutUint64(s.slotBytes(idx, off)[linkSize:], 0)
		c.totalAllocs++
		if used := c.slots - c.free; used > c.peakUsed {
			c.peakUsed = used
		}
	}

	slot := s.slotBytes(idx, off)
	return slot[:size], nil
}

// Calloc is Alloc with the full slot zeroed, and an overflow-checked
// num*size element count.
func (s *Slab) Calloc(num, size int) ([]byte, error) {
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
	clear(p[:cap(p)])
	return p, nil
}

// Free returns a slot to its class. The owning class is found from the
// pointer's region; the pointer must sit on a slot boundary. Foreign
// pointers report ErrInvalidPtr, or panic on debug slabs.
func (s *Slab) Free(ptr []byte) error {
	if s == nil || !s.valid {
		return ErrNotInitialized
	}
	if ptr == nil {
		return ErrNilPtr
	}

	idx, off, ok := s.locate(ptr)
	if !ok {
		if s.debug {
			panic(fmt.Sprintf("slab: freeing pointer not owned by slab (len=%d)", len(ptr)))
		}
		return ErrInvalidPtr
	}

	c := &s.classes[idx]
	if s.debug {
		if s.hasMagic(idx, off) {
			panic(fmt.Sprintf("slab: double free in class %d (size %d)", idx, c.size))
		}
		c.totalFrees++
	}

	s.writeLink(idx, off, c.freeHead)
	c.freeHead = off
	c.free++

	if s.debug {
		s.writeMagic(idx, off)
		s.poisonSlot(idx, off)
	}
	return nil
}

// Reset rebuilds every class's free list and clears the debug counters.
// All outstanding pointers are invalidated.
func (s *Slab) Reset() {
	if s == nil || !s.valid {
		return
	}
	for i := range s.classes {
		c := &s.classes[i]
		c.totalAllocs = 0
		c.totalFrees = 0
		c.peakUsed = 0
		s.buildFreeList(i)
	}
}

// Close invalidates the slab. On debug slabs outstanding allocations are a
// leak and panic with a per-class account. The caller's buffer is never
// released.
func (s *Slab) Close() {
	if s == nil || !s.valid {
		return
	}
	if s.debug {
		var leaks []string
		for i := range s.classes {
			c := &s.classes[i]
			if used := c.slots - c.free; used > 0 {
				leaks = append(leaks, fmt.Sprintf("class %d (size %d): %d slots", i, c.size, used))
			}
		}
		if len(leaks) > 0 {
			panic(fmt.Sprintf("slab: destroyed with leaked slots: %v", leaks))
		}
	}
	*s = Slab{}
}

// ClassCount returns the number of distinct size classes.
func (s *Slab) ClassCount() int {
	if s == nil || !s.valid {
		return 0
	}
	return len(s.classes)
}

// ClassSlotSize returns the effective slot size of class i, or 0 for an
// out-of-range index.
func (s *Slab) ClassSlotSize(i int) int {
	if s == nil || !s.valid || i < 0 || i >= len(s.classes) {
		return 0
	}
	return s.classes[i].slotSize
}

// ClassStats returns the snapshot for class i.
func (s *Slab) ClassStats(i int) (ClassStats, error) {
	if s == nil || !s.valid {
		return ClassStats{}, ErrNotInitialized
	}
	if i < 0 || i >= len(s.classes) {
		return ClassStats{}, ErrInvalidClass
	}
	c := &s.classes[i]
	return ClassStats{
		Size:        c.size,
		SlotSize:    c.slotSize,
		SlotCount:   c.slots,
		FreeCount:   c.free,
		UsedCount:   c.slots - c.free,
		TotalAllocs: c.totalAllocs,
		TotalFrees:  c.totalFrees,
		PeakUsed:    c.peakUsed,
	}, nil
}

// Stats aggregates occupancy across every class.
func (s *Slab) Stats() Stats {
	if s == nil || !s.valid {
		return Stats{}
	}
	st := Stats{Classes: len(s.classes)}
	for i := range s.classes {
		c := &s.classes[i]
		st.Slots += c.slots
		st.Free += c.free
		st.Used += c.slots - c.free
		st.TotalAllocs += c.totalAllocs
		st.TotalFrees += c.totalFrees
	}
	return st
}

// MaxAlloc returns the largest servable request size.
func (s *Slab) MaxAlloc() int {
	if s == nil || !s.valid {
		return 0
	}
	return s.classes[len(s.classes)-1].size
}

// Owns reports whether ptr sits on a slot boundary inside some class
// region. A shape check only; it does not say whether the slot is live.
func (s *Slab) Owns(ptr []byte) bool {
	if s == nil || !s.valid || ptr == nil {
		return false
	}
	_, _, ok := s.locate(ptr)
	return ok
}

// UsableSize returns the full slot capacity behind ptr, which may exceed
// the size originally requested.
func (s *Slab) UsableSize(ptr []byte) (int, error) {
	if s == nil || !s.valid {
		return 0, ErrNotInitialized
	}
	if ptr == nil {
		return 0, ErrNilPtr
	}
	idx, _, ok := s.locate(ptr)
	if !ok {
		return 0, ErrInvalidPtr
	}
	return s.classes[idx].slotSize, nil
}

// BufferSizeNeeded computes a buffer size guaranteeing at least
// slotsPerClass slots in every class under the given options, including
// worst-case alignment slack. Returns 0 for invalid inputs or on overflow.
func BufferSizeNeeded(sizes []int, slotsPerClass int, opts ...Option) int {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(sizes) == 0 || slotsPerClass <= 0 || !arith.IsPow2(cfg.align) {
		return 0
	}
	if cfg.maxClasses <= 0 || len(sizes) > cfg.maxClasses {
		return 0
	}
	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return 0
		}
	}

	// The largest class constrains the shared region size.
	maxEff, ok := effectiveSlotSize(sorted[len(sorted)-1], cfg.align, cfg.debug)
	if !ok {
		return 0
	}
	if sorted[0] <= 0 {
		return 0
	}
	region, ok := arith.Mul(maxEff, slotsPerClass)
	if !ok {
		return 0
	}
	total, ok := arith.Mul(region, len(sorted))
	if !ok {
		return 0
	}
	total, ok = arith.Add(total, cfg.align-1)
	if !ok {
		return 0
	}
	return total
}

func (s *Slab) regionStart(i int) int {
	return s.base + i*s.regionSize
}

func (s *Slab) slotBytes(i, off int) []byte {
	start := s.regionStart(i) + off
	end := start + s.classes[i].slotSize
	return s.buf[start:end:end]
}

// locate resolves ptr to its class index and in-region slot offset,
// validating range and stride.
func (s *Slab) locate(ptr []byte) (int, int, bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf))) + uintptr(s.base)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(ptr)))
	if addr < base {
		return 0, 0, false
	}
	off := int(addr - base)
	if off >= len(s.classes)*s.regionSize {
		return 0, 0, false
	}
	idx := off / s.regionSize
	rel := off % s.regionSize
	c := &s.classes[idx]
	if rel%c.slotSize != 0 || rel >= c.slots*c.slotSize {
		return 0, 0, false
	}
	return idx, rel, true
}

func (s *Slab) writeLink(i, off, next int) {
	v := ^uint64(0)
	if next != freeListEnd {
		v = uint64(next)
	}
	binary.LittleEndian.PutUint64(s.buf[s.regionStart(i)+off:], v)
}

func (s *Slab) readLink(i, off int) int {
	v := binary.LittleEndian.Uint64(s.buf[s.regionStart(i)+off:])
	if v == ^uint64(0) {
		return freeListEnd
	}
	return int(v)
}

func (s *Slab) writeMagic(i, off int) {
	binary.LittleEndian.PutUint64(s.buf[s.regionStart(i)+off+linkSize:], magicFree)
}

func (s *Slab) hasMagic(i, off int) bool {
	return binary.LittleEndian.Uint64(s.buf[s.regionStart(i)+off+linkSize:]) == magicFree
}

// poisonSlot fills the slot past the link word and free magic.
func (s *Slab) poisonSlot(i, off int) {
	b := s.slotBytes(i, off)
	for j := linkSize + 8; j < len(b); j++ {
		b[j] = poisonByte
	}
}
