package stack

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilBuffer)
	_, err = New([]byte{})
	require.ErrorIs(t, err, ErrNilBuffer)

	s, err := New(make([]byte, 256))
	require.NoError(t, err)
	require.True(t, s.IsValid())
	assert.Equal(t, 256, s.Capacity())
	assert.Zero(t, s.Used())
}

func TestAlloc_Basic(t *testing.T) {
	s, err := New(make([]byte, 1024))
	require.NoError(t, err)

	p, err := s.Alloc(100)
	require.NoError(t, err)
	require.Len(t, p, 100)

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	assert.Zero(t, addr%DefaultAlign)

	// Header and padding are part of the accounting.
	assert.GreaterOrEqual(t, s.Used(), 108)
	assert.Equal(t, s.Capacity(), s.Used()+s.Remaining())
}

func TestAllocAligned(t *testing.T) {
	s, err := New(make([]byte, 4096))
	require.NoError(t, err)

	for _, align := range []int{1, 2, 8, 64, 256} {
		p, err := s.AllocAligned(10, align)
		require.NoError(t, err)
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
		// Alignments below the header word are rounded up to it.
		want := align
		if want < DefaultAlign {
			want = DefaultAlign
		}
		assert.Zero(t, addr%uintptr(want), "align %d", align)
	}

	_, err = s.AllocAligned(10, 3)
	require.ErrorIs(t, err, ErrBadAlign)
}

func TestAlloc_Errors(t *testing.T) {
	s, err := New(make([]byte, 64))
	require.NoError(t, err)

	_, err = s.Alloc(0)
	require.ErrorIs(t, err, ErrBadSize)
	_, err = s.Alloc(-1)
	require.ErrorIs(t, err, ErrBadSize)

	_, err = s.Alloc(1000)
	require.ErrorIs(t, err, ErrNoSpace)

	// Failure leaves the stack usable.
	p, err := s.Alloc(16)
	require.NoError(t, err)
	require.Len(t, p, 16)

	_, err = s.Alloc(math.MaxInt)
	require.ErrorIs(t, err, ErrOverflow)

	var closed *Stack
	_, err = closed.Alloc(8)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestCalloc(t *testing.T) {
	s, err := New(make([]byte, 1024))
	require.NoError(t, err)

	p, err := s.Calloc(10, 16)
	require.NoError(t, err)
	require.Len(t, p, 160)
	for _, b := range p {
		require.Zero(t, b)
	}

	_, err = s.Calloc(0, 16)
	require.ErrorIs(t, err, ErrBadSize)
	_, err = s.Calloc(math.MaxInt/2, 3)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestFree_LIFO(t *testing.T) {
	s, err := New(make([]byte, 1024))
	require.NoError(t, err)

	a, err := s.Alloc(100)
	require.NoError(t, err)
	usedA := s.Used()

	b, err := s.Alloc(200)
	require.NoError(t, err)

	require.NoError(t, s.Free(b))
	assert.Equal(t, usedA, s.Used())

	// The freed region is handed out again at the same address.
	b2, err := s.Alloc(200)
	require.NoError(t, err)
	assert.Equal(t, unsafe.SliceData(b), unsafe.SliceData(b2))

	require.NoError(t, s.Free(b2))
	require.NoError(t, s.Free(a))
	assert.Zero(t, s.Used())
}

func TestFree_NonTopReleasesAbove(t *testing.T) {
	s, err := New(make([]byte, 1024))
	require.NoError(t, err)

	a, err := s.Alloc(64)
	require.NoError(t, err)
	_, err = s.Alloc(64)
	require.NoError(t, err)
	_, err = s.Alloc(64)
	require.NoError(t, err)

	// Rewinding to a's header releases b and c with it.
	require.NoError(t, s.Free(a))
	assert.Zero(t, s.Used())
}

func TestFree_NilAndForeign(t *testing.T) {
	s, err := New(make([]byte, 1024))
	require.NoError(t, err)

	require.NoError(t, s.Free(nil))

	_, err = s.Alloc(64)
	require.NoError(t, err)
	require.ErrorIs(t, s.Free(make([]byte, 64)), ErrInvalidPtr)
}

func TestSaveRestore(t *testing.T) {
	s, err := New(make([]byte, 2048))
	require.NoError(t, err)

	a, err := s.Alloc(100)
	require.NoError(t, err)
	m := s.Save()
	usedA := s.Used()

	_, err = s.Alloc(200)
	require.NoError(t, err)
	_, err = s.Alloc(100)
	require.NoError(t, err)

	require.NoError(t, s.Restore(m))
	assert.Equal(t, usedA, s.Used())

	require.NoError(t, s.Free(a))
	assert.Zero(t, s.Used())
}

func TestRestore_BadMarker(t *testing.T) {
	s, err := New(make([]byte, 256))
	require.NoError(t, err)

	_, err = s.Alloc(64)
	require.NoError(t, err)
	m := s.Save()
	s.Reset()

	// The marker now points past the top.
	require.ErrorIs(t, s.Restore(m), ErrBadMarker)
}

func TestReset(t *testing.T) {
	s, err := New(make([]byte, 256))
	require.NoError(t, err)

	_, err = s.Alloc(64)
	require.NoError(t, err)
	_, err = s.Alloc(64)
	require.NoError(t, err)

	s.Reset()
	assert.Zero(t, s.Used())
	assert.Equal(t, 256, s.Remaining())
}

func TestOwns(t *testing.T) {
	s, err := New(make([]byte, 1024))
	require.NoError(t, err)

	p, err := s.Alloc(64)
	require.NoError(t, err)
	assert.True(t, s.Owns(p))
	assert.True(t, s.Owns(p[10:]))
	assert.False(t, s.Owns(make([]byte, 64)))
	assert.False(t, s.Owns(nil))

	// Ownership ends when the top rewinds past the allocation.
	require.NoError(t, s.Free(p))
	assert.False(t, s.Owns(p))
}

func TestClose(t *testing.T) {
	s, err := New(make([]byte, 256))
	require.NoError(t, err)
	s.Close()

	require.False(t, s.IsValid())
	_, err = s.Alloc(8)
	require.ErrorIs(t, err, ErrNotInitialized)
	s.Close() // idempotent
}

func TestDebug_Counters(t *testing.T) {
	s, err := New(make([]byte, 2048), WithDebug())
	require.NoError(t, err)

	a, _ := s.Alloc(100)
	b, _ := s.Alloc(200)

	st := s.Stats()
	assert.Equal(t, 2, st.AllocCount)
	assert.Equal(t, 300, st.TotalRequested)
	assert.Equal(t, s.Used(), st.PeakUsage)

	require.NoError(t, s.Free(b))
	st = s.Stats()
	assert.Equal(t, 1, st.AllocCount)
	// Peak survives frees.
	assert.Greater(t, st.PeakUsage, s.Used())

	require.NoError(t, s.Free(a))
	assert.Zero(t, s.Stats().AllocCount)
}

func TestDebug_PoisonOnFree(t *testing.T) {
	s, err := New(make([]byte, 1024), WithDebug())
	require.NoError(t, err)

	p, err := s.Alloc(64)
	require.NoError(t, err)
	for i := range p {
		p[i] = 0xAB
	}
	require.NoError(t, s.Free(p))

	for _, b := range p {
		require.EqualValues(t, poisonFreed, b)
	}
}

func TestValidateLIFO_OutOfOrderPanics(t *testing.T) {
	s, err := New(make([]byte, 1024), WithValidateLIFO())
	require.NoError(t, err)

	a, err := s.Alloc(64)
	require.NoError(t, err)
	b, err := s.Alloc(64)
	require.NoError(t, err)

	assert.Panics(t, func() { _ = s.Free(a) })

	// In-order frees pass.
	require.NoError(t, s.Free(b))
	require.NoError(t, s.Free(a))
}
