// Package arena implements a linear (bump) allocator over a caller-supplied
// byte region.
//
// # Overview
//
// An arena hands out sub-slices of its backing buffer by advancing a single
// offset cursor. Individual allocations cannot be freed; memory is reclaimed
// in bulk with Reset, rolled back to a saved Marker with ResetTo, or scoped
// with TempBegin/End. Every operation is a bounded, synchronous O(1) call
// (O(block count) for the bulk queries in growth mode).
//
// # Basic usage
//
//	buf := make([]byte, 4096)
//	a, err := arena.New(buf)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	p, err := a.Alloc(256, 8)   // 256 bytes, 8-byte aligned
//	q, err := a.AllocZero(64, 16)
//
//	a.Reset() // O(1) bulk reclaim, buffer is reused
//
// Typed allocation is available through the generic helpers:
//
//	v, err := arena.Alloc[Vertex](a)           // one Vertex, naturally aligned
//	vs, err := arena.AllocSlice[Vertex](a, 100)
//
// # Markers and temporary scopes
//
// Save captures the current cursor; ResetTo rolls back to it, invalidating
// everything allocated since. A Temp pairs the two and guarantees the
// rollback runs exactly once:
//
//	tmp := a.TempBegin()
//	scratch, _ := a.Alloc(1024, 8)
//	// ... use scratch ...
//	tmp.End() // scratch is reclaimed; a second End is a no-op
//
// ResetTo is only valid for a previously captured, not-yet-invalidated
// marker. Beyond bounds checks, staleness is not validated.
//
// # Growth
//
// Arenas created with New never grow: when the buffer is exhausted, Alloc
// returns ErrNoSpace and the arena remains fully usable. NewDynamic creates
// an arena that owns its memory and chains new blocks on demand; Reset keeps
// the chain (avoiding allocation churn across reuse cycles) while ResetTo
// releases every block created after its marker.
//
// # Zero-size allocations
//
// Alloc(0, align) succeeds and returns an empty slice whose data pointer is
// the current bump address, without advancing the cursor. Consecutive
// zero-size allocations therefore alias the same address. This is a
// documented quirk, not an error. (Note the deliberate asymmetry with
// package stack, where zero-size allocations fail.)
//
// # Debug instrumentation
//
// Constructing with WithDebug enables allocation counters, peak and
// alignment-waste tracking, poisoning of reclaimed bytes (0xFE) and fresh
// allocations (0xCD), an optional bounded ring of allocation records with
// call sites (EnableTracking), and CheckIntegrity. Debug state lives in a
// companion structure, so release-mode arenas carry no extra layout.
//
// # Thread safety
//
// Arenas perform no internal locking. Sharing an arena across goroutines
// without external synchronization is undefined behavior.
package arena
