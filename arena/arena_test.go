package arena

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBufferSize = 8192

func newTestArena(t *testing.T, size int, opts ...Option) *Arena {
	t.Helper()
	a, err := New(make([]byte, size), opts...)
	require.NoError(t, err)
	return a
}

func TestNew_Degenerate(t *testing.T) {
	a, err := New(nil)
	require.NoError(t, err, "nil buffer with zero size is a valid empty arena")
	assert.True(t, a.IsValid())
	assert.Zero(t, a.Capacity())

	_, err = a.Alloc(1, 8)
	assert.ErrorIs(t, err, ErrNoSpace, "nonzero allocation from empty arena must fail")

	p, err := a.Alloc(0, 8)
	require.NoError(t, err, "zero-size allocation succeeds even on the empty arena")
	assert.Len(t, p, 0)
}

func TestAlloc_Basic(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	p, err := a.Alloc(100, 8)
	require.NoError(t, err)
	require.Len(t, p, 100)

	q, err := a.Alloc(200, 8)
	require.NoError(t, err)
	require.Len(t, q, 200)

	// Writes through one allocation must not clobber another.
	for i := range p {
		p[i] = 0xAA
	}
	for i := range q {
		q[i] = 0xBB
	}
	assert.Equal(t, byte(0xAA), p[0])
	assert.Equal(t, byte(0xAA), p[99])
	assert.Equal(t, byte(0xBB), q[0])

	assert.GreaterOrEqual(t, a.Used(), 300)
}

func TestAlloc_CapacityConservation(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	check := func() {
		assert.Equal(t, a.Capacity(), a.Used()+a.Remaining(),
			"used + remaining must equal capacity at every observation point")
	}

	check()
	for _, size := range []int{1, 7, 64, 100, 513} {
		_, err := a.Alloc(size, 8)
		require.NoError(t, err)
		check()
	}
	a.Reset()
	check()
}

func TestAlloc_Alignment(t *testing.T) {
	// Deliberately misaligned base: slice one byte into the buffer.
	backing := make([]byte, 3*testBufferSize)
	a, err := New(backing[1:])
	require.NoError(t, err)

	for align := 1; align <= 4096; align *= 2 {
		p, err := a.Alloc(24, align)
		require.NoError(t, err, "Alloc(24, %d)", align)
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
		assert.Zero(t, addr%uintptr(align), "address must be %d-byte aligned", align)
	}
}

func TestAlloc_NonPowerOfTwoAlignFails(t *testing.T) {
	a := newTestArena(t, testBufferSize)
	for _, align := range []int{0, -8, 3, 6, 12, 100} {
		_, err := a.Alloc(16, align)
		assert.ErrorIs(t, err, ErrBadAlign, "align=%d", align)
	}
}

func TestAlloc_ZeroSizeAliases(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	_, err := a.Alloc(13, 1)
	require.NoError(t, err)
	used := a.Used()

	p1, err := a.Alloc(0, 8)
	require.NoError(t, err)
	p2, err := a.Alloc(0, 8)
	require.NoError(t, err)

	// Multiple zero-size allocations alias the same address and never
	// advance the cursor.
	assert.Equal(t, unsafe.SliceData(p1), unsafe.SliceData(p2))
	assert.Equal(t, used, a.Used())
}

func TestAlloc_FailureLeavesArenaUsable(t *testing.T) {
	a := newTestArena(t, 1024)

	_, err := a.Alloc(2000, 8)
	require.ErrorIs(t, err, ErrNoSpace)

	p, err := a.Alloc(10, 8)
	require.NoError(t, err, "a failed allocation must not poison subsequent ones")
	require.Len(t, p, 10)

	b := newTestArena(t, 256)
	_, err = b.Alloc(1000, 8)
	require.ErrorIs(t, err, ErrNoSpace)
	_, err = b.Alloc(10, 8)
	require.NoError(t, err)
}

func TestAlloc_OverflowSafe(t *testing.T) {
	a := newTestArena(t, 256)

	_, err := a.Alloc(math.MaxInt, 8)
	require.Error(t, err, "near-SIZE_MAX request must fail safely, not wrap")

	_, err = a.Alloc(math.MaxInt-4, 4096)
	require.Error(t, err)

	// Arena state must be intact afterwards.
	p, err := a.Alloc(16, 8)
	require.NoError(t, err)
	require.Len(t, p, 16)
	assert.True(t, a.CheckIntegrity() || a.IsValid())
}

func TestAlloc_ExactCapacity(t *testing.T) {
	a := newTestArena(t, 256)

	p, err := a.Alloc(256, 1)
	require.NoError(t, err)
	require.Len(t, p, 256)
	assert.Zero(t, a.Remaining())

	_, err = a.Alloc(1, 1)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestAllocZero(t *testing.T) {
	a := newTestArena(t, testBufferSize, WithDebug())

	p, err := a.Alloc(64, 8)
	require.NoError(t, err)
	// Debug arenas poison fresh allocations.
	assert.Equal(t, byte(poisonUninit), p[0])

	q, err := a.AllocZero(64, 8)
	require.NoError(t, err)
	for i, b := range q {
		require.Zero(t, b, "byte %d of zeroed allocation", i)
	}
}

func TestReset(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	_, err := a.Alloc(1000, 8)
	require.NoError(t, err)
	_, err = a.Alloc(500, 8)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Used(), 1500)

	a.Reset()
	assert.Zero(t, a.Used())
	assert.Equal(t, testBufferSize, a.Remaining())

	// A full capacity's worth of allocations succeeds again.
	count := 0
	for {
		if _, err := a.Alloc(100, 4); err != nil {
			break
		}
		count++
	}
	assert.GreaterOrEqual(t, count, testBufferSize/128)
}

func TestSaveResetTo(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	_, err := a.Alloc(100, 8)
	require.NoError(t, err)
	saved := a.Used()

	m := a.Save()
	require.NoError(t, a.ResetTo(m), "immediate rollback with no allocations in between")
	assert.Equal(t, saved, a.Used(), "round-trip must leave used unchanged")

	_, err = a.Alloc(200, 8)
	require.NoError(t, err)
	_, err = a.Alloc(300, 8)
	require.NoError(t, err)
	assert.Greater(t, a.Used(), saved)

	require.NoError(t, a.ResetTo(m))
	assert.Equal(t, saved, a.Used(), "rollback must restore used to the saved value")
}

func TestResetTo_BadMarker(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	m := a.Save()
	_, err := a.Alloc(64, 8)
	require.NoError(t, err)

	forward := a.Save()
	require.NoError(t, a.ResetTo(m))
	assert.ErrorIs(t, a.ResetTo(Marker{block: 5}), ErrBadMarker)
	assert.ErrorIs(t, a.ResetTo(forward), ErrBadMarker,
		"marker ahead of the cursor is rejected")
}

func TestTempScope(t *testing.T) {
	a := newTestArena(t, testBufferSize)

	_, err := a.Alloc(128, 8)
	require.NoError(t, err)
	before := a.Used()

	tmp := a.TempBegin()
	_, err = a.Alloc(512, 8)
	require.NoError(t, err)
	assert.Greater(t, a.Used(), before)

	tmp.End()
	assert.Equal(t, before, a.Used())

	// Second End is a no-op, even after further allocations.
	_, err = a.Alloc(64, 8)
	require.NoError(t, err)
	after := a.Used()
	tmp.End()
	assert.Equal(t, after, a.Used())
}

func TestQueriesOnClosedArena(t *testing.T) {
	a := newTestArena(t, 512)
	a.Close()

	assert.False(t, a.IsValid())
	assert.Zero(t, a.Capacity())
	assert.Zero(t, a.Used())
	assert.Zero(t, a.Remaining())

	_, err := a.Alloc(8, 8)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
