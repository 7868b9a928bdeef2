package arena

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

// Record describes one tracked allocation. Records are only collected on
// debug arenas after EnableTracking.
type Record struct {
	Addr    uintptr
	Size    int
	Padding int
	Site    string
	Seq     int
}

// debugState is the optional companion carrying instrumentation, kept out
// of Arena so release-mode layout is untouched.
type debugState struct {
	name           string
	allocCount     int
	totalRequested int
	peakUsage      int
	wastedAlign    int
	records        []Record
	tracking       bool
}

func newDebugState(name string) *debugState {
	return &debugState{name: name}
}

func (a *Arena) noteAlloc(size, pad int) {
	d := a.dbg
	d.allocCount++
	d.totalRequested += size
	d.wastedAlign += pad
	if u := a.Used(); u > d.peakUsage {
		d.peakUsage = u
	}
	if d.tracking && len(d.records) < cap(d.records) {
		b := &a.blocks[a.cur]
		d.records = append(d.records, Record{
			Addr:    uintptr(addrOf(b.buf[b.off-size:])),
			Size:    size,
			Padding: pad,
			Site:    callSite(4),
			Seq:     d.allocCount - 1,
		})
	}
}

func (d *debugState) noteReset() {
	d.records = d.records[:0]
}

func (d *debugState) rollBack(m Marker) {
	d.allocCount = m.allocCount
	d.totalRequested = m.totalRequested
	for len(d.records) > 0 && d.records[len(d.records)-1].Seq >= m.allocCount {
		d.records = d.records[:len(d.records)-1]
	}
}

// SetName labels the arena for DumpStats output.
func (a *Arena) SetName(name string) {
	if a == nil || !a.valid || a.dbg == nil {
		return
	}
	if name == "" {
		name = "unnamed"
	}
	a.dbg.name = name
}

// EnableTracking starts collecting a bounded ring of allocation records.
// maxRecords of zero disables tracking and drops collected records.
// Fails with ErrDebugDisabled on arenas built without WithDebug.
func (a *Arena) EnableTracking(maxRecords int) error {
	if a == nil || !a.valid {
		return ErrNotInitialized
	}
	if a.dbg == nil {
		return ErrDebugDisabled
	}
	if maxRecords <= 0 {
		a.dbg.records = nil
		a.dbg.tracking = false
		return nil
	}
	a.dbg.records = make([]Record, 0, maxRecords)
	a.dbg.tracking = true
	return nil
}

// Records returns the collected allocation records (oldest first).
func (a *Arena) Records() []Record {
	if a == nil || !a.valid || a.dbg == nil {
		return nil
	}
	return a.dbg.records
}

// DumpStats writes a human-readable statistics report, including the most
// recent tracked allocations when tracking is enabled.
func (a *Arena) DumpStats(w io.Writer) {
	if a == nil || !a.valid {
		fmt.Fprintln(w, "Arena: <invalid>")
		return
	}
	s := a.Stats()
	name := "unnamed"
	if a.dbg != nil {
		name = a.dbg.name
	}
	pct := 0.0
	if s.Capacity > 0 {
		pct = 100.0 * float64(s.Used) / float64(s.Capacity)
	}
	fmt.Fprintf(w, "Arena Statistics: %s\n", name)
	fmt.Fprintf(w, "  Capacity:          %d bytes\n", s.Capacity)
	fmt.Fprintf(w, "  Used:              %d bytes (%.1f%%)\n", s.Used, pct)
	fmt.Fprintf(w, "  Remaining:         %d bytes\n", s.Remaining)
	fmt.Fprintf(w, "  Allocations:       %d\n", s.AllocCount)
	fmt.Fprintf(w, "  Total Requested:   %d bytes\n", s.TotalRequested)
	fmt.Fprintf(w, "  Peak Usage:        %d bytes\n", s.PeakUsage)
	fmt.Fprintf(w, "  Wasted (align):    %d bytes\n", s.WastedAlignment)
	fmt.Fprintf(w, "  Blocks:            %d\n", s.BlockCount)

	if a.dbg != nil && len(a.dbg.records) > 0 {
		fmt.Fprintf(w, "\n  Recent allocations:\n")
		start := 0
		if len(a.dbg.records) > 10 {
			start = len(a.dbg.records) - 10
		}
		for _, rec := range a.dbg.records[start:] {
			fmt.Fprintf(w, "    [%d] %d bytes at 0x%x (%s)\n",
				rec.Seq, rec.Size, rec.Addr, rec.Site)
		}
	}
}

// CheckIntegrity validates the arena's structure: per-block offset bounds
// and a sane current-block index.
func (a *Arena) CheckIntegrity() bool {
	if a == nil || !a.valid {
		return false
	}
	if a.cur < 0 || a.cur >= len(a.blocks) {
		return false
	}
	for i := range a.blocks {
		b := &a.blocks[i]
		if b.off < 0 || b.off > len(b.buf) {
			return false
		}
	}
	return true
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
