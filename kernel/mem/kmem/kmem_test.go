package kmem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukash09/riscv-kernel/kernel/mem"
)

// newTestPool backs Kmem's global state with a host byte slice sized for
// poolPages pages plus one extra page for the root table, and resets the
// package-level state so tests don't bleed into each other.
func newTestPool(t *testing.T, poolPagesWanted uint64) []byte {
	t.Helper()

	// One extra page for the root table, one more to absorb the alignment
	// of the backing slice's base.
	backing := make([]byte, (poolPagesWanted+2)*uint64(mem.PageSize))
	base := uintptr(unsafe.Pointer(&backing[0]))
	// Keep the pages the test pool hands out 4 KiB-aligned regardless of
	// where the Go allocator happened to place the backing slice.
	base = mem.AlignUp(base, mem.PageShift)

	next := base
	zeroAlloc := func(pages uint64) uintptr {
		addr := next
		n := uintptr(pages) * uintptr(mem.PageSize)
		region := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(n))
		for i := range region {
			region[i] = 0
		}
		next += n
		return addr
	}

	require.Nil(t, Init(poolPagesWanted, zeroAlloc))
	return backing
}

func TestInitSeedsOneFreeChunkSpanningThePool(t *testing.T) {
	newTestPool(t, 4)

	h := headerAt(Head())
	assert.True(t, h.isFree())
	assert.Equal(t, uint64(4)*uint64(mem.PageSize), h.size())
}

// Two successive allocations from a fresh pool never overlap: the second
// chunk starts at or after the end of the first's payload.
func TestKmallocSequentialChunksDoNotOverlap(t *testing.T) {
	newTestPool(t, 4)

	a := Kmalloc(32)
	require.NotZero(t, a)
	b := Kmalloc(64)
	require.NotZero(t, b)

	assert.True(t, b >= a+32, "second chunk must start at or after the end of the first's payload")
}

// A returned chunk is always at least as big as requested.
func TestKmallocReturnsAtLeastRequestedSize(t *testing.T) {
	newTestPool(t, 4)

	ptr := Kmalloc(100)
	require.NotZero(t, ptr)

	hdr := headerAt(ptr - headerSize)
	assert.True(t, hdr.size() >= 100+uint64(headerSize))
}

// Kzmalloc's returned region reads back as all zeros, even when the
// backing memory was previously poisoned with nonzero bytes.
func TestKzmallocZeroesPayload(t *testing.T) {
	backing := newTestPool(t, 4)
	for i := range backing {
		backing[i] = 0xFF
	}
	// Re-seed the single free header after poisoning, same pool geometry.
	h := headerAt(Head())
	h.setFree()
	h.setSize(4 * uint64(mem.PageSize))

	ptr := Kzmalloc(48)
	require.NotZero(t, ptr)

	region := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), 48)
	for i, b := range region {
		require.Zerof(t, b, "byte %d of kzmalloc'd region was not zero", i)
	}
}

// Freeing a chunk makes it available again: a later allocation that fits in
// it lands there, since first-fit reaches it before the free tail.
func TestKfreeThenReuseAndCoalesce(t *testing.T) {
	newTestPool(t, 1)

	a := Kmalloc(64)
	require.NotZero(t, a)
	b := Kmalloc(64)
	require.NotZero(t, b)

	Kfree(a)
	assert.True(t, headerAt(a-headerSize).isFree())

	reused := Kmalloc(32)
	require.NotZero(t, reused)
	assert.Equal(t, a, reused, "first-fit should reuse the chunk just freed")
}

// Coalesce merges two adjacent free chunks into one chunk spanning both,
// but does not reach across a still-taken chunk between them.
func TestCoalesceMergesAdjacentFreeChunksOnly(t *testing.T) {
	newTestPool(t, 1)

	a := Kmalloc(32)
	b := Kmalloc(32)
	c := Kmalloc(32)
	require.NotZero(t, a)
	require.NotZero(t, b)
	require.NotZero(t, c)

	Kfree(a)
	Kfree(b)

	hdrA := headerAt(a - headerSize)
	assert.True(t, hdrA.isFree())
	// a absorbed b's span: the combined chunk's size covers at least both
	// original payloads plus both headers.
	assert.True(t, hdrA.size() >= 2*(32+uint64(headerSize)))

	hdrC := headerAt(c - headerSize)
	assert.True(t, hdrC.isTaken(), "coalesce must not touch a taken chunk")
}

// chunkLayout walks the pool's headers and returns each chunk as an
// (offset, size, taken) triple. Tests use it both to compare layouts and to
// check the sum-of-sizes invariant.
type chunkLayout struct {
	offset uintptr
	size   uint64
	taken  bool
}

func walkChunks(t *testing.T) []chunkLayout {
	t.Helper()

	var chunks []chunkLayout
	for h := Head(); h < tail(); {
		hdr := headerAt(h)
		require.NotZero(t, hdr.size(), "pool corrupt: zero-size chunk at offset %#x", h-Head())
		chunks = append(chunks, chunkLayout{h - Head(), hdr.size(), hdr.isTaken()})
		h += uintptr(hdr.size())
	}
	return chunks
}

func sumChunkSizes(t *testing.T) uint64 {
	t.Helper()

	var sum uint64
	for _, c := range walkChunks(t) {
		sum += c.size
	}
	return sum
}

// Two same-size allocations from a fresh pool sit exactly one aligned
// payload plus one header apart.
func TestKmallocBackToBackSpacing(t *testing.T) {
	newTestPool(t, 4)

	a := Kmalloc(24)
	require.NotZero(t, a)
	b := Kmalloc(24)
	require.NotZero(t, b)

	assert.Equal(t, uintptr(24+uint64(headerSize)), b-a)
}

// The sum of chunk sizes across the pool equals the pool size exactly, no
// matter what mix of allocations and frees preceded the walk.
func TestChunkSizesAlwaysSumToPoolSize(t *testing.T) {
	newTestPool(t, 4)
	poolBytes := uint64(4) * uint64(mem.PageSize)

	assert.Equal(t, poolBytes, sumChunkSizes(t))

	a := Kmalloc(100)
	b := Kmalloc(7)
	c := Kmalloc(4000)
	require.NotZero(t, a)
	require.NotZero(t, b)
	require.NotZero(t, c)
	assert.Equal(t, poolBytes, sumChunkSizes(t))

	Kfree(b)
	assert.Equal(t, poolBytes, sumChunkSizes(t))
	Kfree(a)
	Kfree(c)
	assert.Equal(t, poolBytes, sumChunkSizes(t))
}

// Running Coalesce a second time changes nothing: one pass already merged
// every adjacent free run.
func TestCoalesceIsIdempotent(t *testing.T) {
	newTestPool(t, 2)

	a := Kmalloc(64)
	b := Kmalloc(64)
	c := Kmalloc(64)
	require.NotZero(t, c)

	Kfree(a)
	Kfree(b)

	once := walkChunks(t)
	Coalesce()
	assert.Equal(t, once, walkChunks(t))
}

// An alloc/free pair leaves the pool byte-for-byte where it started, once
// the free's coalescing pass has run.
func TestKmallocKfreeRoundTripRestoresLayout(t *testing.T) {
	newTestPool(t, 2)
	before := walkChunks(t)

	p := Kmalloc(128)
	require.NotZero(t, p)
	Kfree(p)

	assert.Equal(t, before, walkChunks(t))
}

func TestKmallocFailsWhenPoolExhausted(t *testing.T) {
	newTestPool(t, 1)

	require.NotZero(t, Kmalloc(uint64(mem.PageSize)-uint64(headerSize)-8))
	assert.Zero(t, Kmalloc(64))
}
