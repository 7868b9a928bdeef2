package arena

import (
	"unsafe"

	"github.com/bronxdo/alloc/internal/arith"
)

const (
	// DefaultAlign is the alignment used by the typed helpers when the
	// element type imposes none, and the minimum block alignment.
	DefaultAlign = 8

	// DefaultBlockSize is the minimum block size for growth-enabled
	// arenas. Blocks are sized to at least the request when larger.
	DefaultBlockSize = 4096

	poisonFreed  = 0xFE
	poisonUninit = 0xCD
)

// block is one contiguous region the arena bumps into. Growth-enabled
// arenas keep an ordered chain of blocks; fixed arenas have exactly one.
type block struct {
	buf []byte
	off int
}

// Arena is a linear (bump) allocator. Not safe for concurrent use.
type Arena struct {
	blocks []block
	cur    int // index of the block being bumped; always the tail in growth mode
	grow   bool
	min    int // minimum size for new blocks
	valid  bool

	dbg *debugState
}

// Marker is an opaque snapshot of arena state for later rollback.
type Marker struct {
	block int
	off   int

	allocCount     int
	totalRequested int
}

// Stats describes arena occupancy. The debug counters are zero unless the
// arena was constructed with WithDebug.
type Stats struct {
	Capacity   int
	Used       int
	Remaining  int
	BlockCount int

	AllocCount      int
	TotalRequested  int
	PeakUsage       int
	WastedAlignment int
}

// New creates a fixed-capacity arena over the caller's buffer. The buffer
// is borrowed for the arena's lifetime and never released by the arena.
// A nil or empty buffer yields a valid degenerate arena in which every
// nonzero-size allocation fails.
func New(buf []byte, opts ...Option) (*Arena, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	a := &Arena{
		blocks: []block{{buf: buf}},
		min:    cfg.blockMin,
		valid:  true,
	}
	if cfg.debug {
		a.dbg = newDebugState("unnamed")
	}
	return a, nil
}

// NewDynamic creates a growth-enabled arena that owns its memory. The first
// block is sized to at least initialSize (minimum DefaultBlockSize, or the
// WithBlockSize override); further blocks are chained on demand.
func NewDynamic(initialSize int, opts ...Option) (*Arena, error) {
	if initialSize < 0 {
		return nil, ErrBadSize
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	size := initialSize
	if size < cfg.blockMin {
		size = cfg.blockMin
	}
	a := &Arena{
		blocks: []block{{buf: make([]byte, size)}},
		grow:   true,
		min:    cfg.blockMin,
		valid:  true,
	}
	if cfg.debug {
		a.dbg = newDebugState("unnamed_dynamic")
	}
	return a, nil
}

// Alloc returns a size-byte slice of the arena aligned to align, which must
// be a power of two. Alloc(0, align) succeeds and returns an empty slice at
// the current bump address without advancing it; successive zero-size
// allocations alias the same address.
func (a *Arena) Alloc(size, align int) ([]byte, error) {
	return a.alloc(size, align, false)
}

// AllocZero is Alloc followed by clearing the returned region.
func (a *Arena) AllocZero(size, align int) ([]byte, error) {
	return a.alloc(size, align, true)
}

func (a *Arena) alloc(size, align int, zero bool) ([]byte, error) {
	if a == nil || !a.valid {
		return nil, ErrNotInitialized
	}
	if size < 0 {
		return nil, ErrBadSize
	}
	if !arith.IsPow2(align) {
		return nil, ErrBadAlign
	}

	b := &a.blocks[a.cur]
	if size == 0 {
		return b.buf[b.off:b.off], nil
	}

	off, pad, ok := fit(b, size, align)
	if !ok {
		if !a.grow {
			return nil, ErrNoSpace
		}
		need, okAdd := arith.Add(size, align-1)
		if !okAdd {
			return nil, ErrOverflow
		}
		a.addBlock(need)
		b = &a.blocks[a.cur]
		off, pad, ok = fit(b, size, align)
		if !ok {
			return nil, ErrNoSpace
		}
	}

	p := b.buf[off : off+size : off+size]
	b.off = off + size

	if zero {
		clear(p)
	} else if a.dbg != nil {
		fill(p, poisonUninit)
	}
	if a.dbg != nil {
		a.noteAlloc(size, pad)
	}
	return p, nil
}

// fit computes the aligned offset for a request within b. Alignment uses
// the block's real base address so arbitrarily unaligned buffers still
// produce aligned results. ok = false when the request does not fit or the
// aligned address would wrap.
func fit(b *block, size, align int) (off, pad int, ok bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(b.buf)))
	addr := base + uintptr(b.off)
	aligned, ok := arith.UpAddr(addr, uintptr(align))
	if !ok {
		return 0, 0, false
	}
	pad = int(aligned - addr)
	off, ok = arith.Add(b.off, pad)
	if !ok || off > len(b.buf) {
		return 0, 0, false
	}
	if size > len(b.buf)-off {
		return 0, 0, false
	}
	return off, pad, true
}

// addBlock appends an owned block of at least min bytes.
func (a *Arena) addBlock(min int) {
	size := min
	if size < a.min {
		size = a.min
	}
	a.blocks = append(a.blocks, block{buf: make([]byte, size)})
	a.cur = len(a.blocks) - 1
}

// Reset rolls the arena back to empty. All blocks are kept (not released)
// so reuse cycles do not churn allocations.
func (a *Arena) Reset() {
	if a == nil || !a.valid {
		return
	}
	for i := range a.blocks {
		b := &a.blocks[i]
		if a.dbg != nil && b.off > 0 {
			fill(b.buf[:b.off], poisonFreed)
		}
		b.off = 0
	}
	a.cur = 0
	if a.dbg != nil {
		a.dbg.noteReset()
	}
}

// Save captures the current cursor for a later ResetTo.
func (a *Arena) Save() Marker {
	if a == nil || !a.valid {
		return Marker{}
	}
	m := Marker{block: a.cur, off: a.blocks[a.cur].off}
	if a.dbg != nil {
		m.allocCount = a.dbg.allocCount
		m.totalRequested = a.dbg.totalRequested
	}
	return m
}

// ResetTo rolls back to a previously saved marker, invalidating every
// allocation made since. In growth mode the blocks chained after the
// marker's block are released. Only offset bounds are validated; rolling
// back to a stale marker is the caller's contract.
func (a *Arena) ResetTo(m Marker) error {
	if a == nil || !a.valid {
		return ErrNotInitialized
	}
	if m.block < 0 || m.block >= len(a.blocks) {
		return ErrBadMarker
	}
	b := &a.blocks[m.block]
	if m.off > len(b.buf) {
		return ErrBadMarker
	}
	if m.block == a.cur && m.off > b.off {
		return ErrBadMarker
	}

	if a.grow && m.block < len(a.blocks)-1 {
		for i := m.block + 1; i < len(a.blocks); i++ {
			a.blocks[i] = block{}
		}
		a.blocks = a.blocks[: m.block+1 : m.block+1]
	}
	a.cur = m.block
	b = &a.blocks[a.cur]
	if a.dbg != nil && m.off < b.off {
		fill(b.buf[m.off:b.off], poisonFreed)
	}
	b.off = m.off

	if a.dbg != nil {
		a.dbg.rollBack(m)
	}
	return nil
}

// Remaining returns the bytes available in the block currently being
// bumped (not the sum across all blocks).
func (a *Arena) Remaining() int {
	if a == nil || !a.valid {
		return 0
	}
	b := &a.blocks[a.cur]
	if b.off > len(b.buf) {
		return 0
	}
	return len(b.buf) - b.off
}

// Capacity returns the total capacity, summed across all blocks.
func (a *Arena) Capacity() int {
	if a == nil || !a.valid {
		return 0
	}
	total := 0
	for i := range a.blocks {
		total, _ = arith.Add(total, len(a.blocks[i].buf))
	}
	return total
}

// Used returns the total bytes allocated, summed across all blocks.
func (a *Arena) Used() int {
	if a == nil || !a.valid {
		return 0
	}
	total := 0
	for i := range a.blocks {
		total, _ = arith.Add(total, a.blocks[i].off)
	}
	return total
}

// IsValid reports whether the arena is initialized and structurally sound.
func (a *Arena) IsValid() bool {
	if a == nil || !a.valid {
		return false
	}
	return a.blocks[a.cur].off <= len(a.blocks[a.cur].buf)
}

// Stats returns an occupancy snapshot.
func (a *Arena) Stats() Stats {
	if a == nil || !a.valid {
		return Stats{}
	}
	s := Stats{
		Capacity:   a.Capacity(),
		Used:       a.Used(),
		Remaining:  a.Remaining(),
		BlockCount: len(a.blocks),
	}
	if a.dbg != nil {
		s.AllocCount = a.dbg.allocCount
		s.TotalRequested = a.dbg.totalRequested
		s.PeakUsage = a.dbg.peakUsage
		s.WastedAlignment = a.dbg.wastedAlign
	}
	return s
}

// Close tears the arena down. Owned blocks are released; a borrowed buffer
// is never released (it belongs to the caller). Debug arenas poison the
// used portion of every block first. The arena is unusable afterwards.
func (a *Arena) Close() {
	if a == nil || !a.valid {
		return
	}
	if a.dbg != nil {
		for i := range a.blocks {
			b := &a.blocks[i]
			if b.off > 0 {
				fill(b.buf[:b.off], poisonFreed)
			}
		}
	}
	*a = Arena{}
}

// Temp is a temporary allocation scope: a marker paired with
// guaranteed-once rollback.
type Temp struct {
	a *Arena
	m Marker
}

// TempBegin opens a temporary scope at the current cursor.
func (a *Arena) TempBegin() Temp {
	if a == nil || !a.valid {
		return Temp{}
	}
	return Temp{a: a, m: a.Save()}
}

// End rolls the arena back to the scope's marker. The first call performs
// the rollback and invalidates the scope; further calls are no-ops.
func (t *Temp) End() {
	if t == nil || t.a == nil {
		return
	}
	_ = t.a.ResetTo(t.m)
	t.a = nil
}

func addrOf(p []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(p))
}

func fill(p []byte, v byte) {
	for i := range p {
		p[i] = v
	}
}
