package pool

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// debugState holds instrumentation that only exists on pools constructed
// WithDebug. The allocation bitmap lives at the tail of the caller's buffer
// so the pool itself stays heap-free.
type debugState struct {
	bitmapOff int
	bitmapLen int

	totalAllocs int
	totalFrees  int
	peakUsed    int

	logw io.Writer
}

func newDebugState(logw io.Writer, bitmapOff, bitmapLen int) *debugState {
	if logw == nil {
		logw = os.Stderr
	}
	return &debugState{
		bitmapOff: bitmapOff,
		bitmapLen: bitmapLen,
		logw:      logw,
	}
}

func (d *debugState) bitmapGet(buf []byte, idx int) bool {
	return buf[d.bitmapOff+idx/8]&(1<<(idx%8)) != 0
}

func (d *debugState) bitmapSet(buf []byte, idx int) {
	buf[d.bitmapOff+idx/8] |= 1 << (idx % 8)
}

func (d *debugState) bitmapClear(buf []byte, idx int) {
	buf[d.bitmapOff+idx/8] &^= 1 << (idx % 8)
}

// IsAllocated reports whether the slot holding ptr is currently allocated.
// Only debug pools track per-slot state; on release pools this always
// returns false, even for live allocations. Contrast with Owns, which is a
// pure shape check and works on every pool.
func (p *Pool) IsAllocated(ptr []byte) bool {
	if p == nil || !p.valid || p.dbg == nil || ptr == nil {
		return false
	}
	off, ok := p.offsetOf(ptr)
	if !ok {
		return false
	}
	return p.dbg.bitmapGet(p.buf, off/p.slotSize)
}

// AllocTraced is Alloc plus a log line on failure naming the call site.
// Useful while sizing a pool: exhaustion events show exactly where demand
// exceeded capacity.
func (p *Pool) AllocTraced() ([]byte, error) {
	s, err := p.Alloc()
	if err != nil && p != nil && p.dbg != nil {
		fmt.Fprintf(p.dbg.logw, "pool: alloc failed at %s: %v (used %d/%d)\n",
			callSite(2), err, p.Used(), p.Capacity())
	}
	return s, err
}

// FreeTraced is Free plus a log line on failure naming the call site.
func (p *Pool) FreeTraced(ptr []byte) error {
	err := p.Free(ptr)
	if err != nil && p != nil && p.dbg != nil {
		fmt.Fprintf(p.dbg.logw, "pool: free failed at %s: %v\n", callSite(2), err)
	}
	return err
}

// DumpStats writes a human-readable occupancy report.
func (p *Pool) DumpStats(w io.Writer) {
	if p == nil || !p.valid {
		fmt.Fprintln(w, "pool: <invalid>")
		return
	}
	s := p.Stats()
	fmt.Fprintf(w, "pool: %d slots x %d bytes, %d used, %d free\n",
		s.SlotCount, s.SlotSize, s.UsedCount, s.FreeCount)
	if p.dbg != nil {
		fmt.Fprintf(w, "  lifetime: %d allocs, %d frees, peak %d\n",
			s.TotalAllocs, s.TotalFrees, s.PeakUsed)
	}
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
