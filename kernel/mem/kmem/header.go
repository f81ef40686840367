// Package kmem implements the byte-granular kernel allocator: an implicit
// free list of variably-sized chunks carved out of a fixed pool of pages,
// with boundary-tag-style in-band headers. Like mem/pmm, it is exposed as
// package-level state rather than a constructed value: there is one kernel
// heap, and Init seeds it once during bootstrap.
package kmem

import "unsafe"

// headerFlag is a bit packed into a header's flagsSize word.
type headerFlag uint64

// flagTaken occupies the top bit of flagsSize, leaving the remaining 63
// bits for the chunk size. A chunk this allocator ever hands out is always
// far smaller than 1<<63 bytes, so the two never collide.
const flagTaken headerFlag = 1 << 63

// header precedes every chunk, free or taken, in the pool. Its address is
// the chunk's boundary tag: walking the pool means reading one header,
// advancing by its size, and reading the next.
type header struct {
	flagsSize uint64
}

const headerSize = uintptr(unsafe.Sizeof(header{}))

func headerAt(addr uintptr) *header {
	return (*header)(unsafe.Pointer(addr))
}

func (h *header) isTaken() bool {
	return h.flagsSize&uint64(flagTaken) != 0
}

func (h *header) isFree() bool {
	return !h.isTaken()
}

func (h *header) setTaken() {
	h.flagsSize |= uint64(flagTaken)
}

func (h *header) setFree() {
	h.flagsSize &^= uint64(flagTaken)
}

// setSize replaces the size field, preserving the Taken bit.
func (h *header) setSize(sz uint64) {
	wasTaken := h.isTaken()
	h.flagsSize = sz &^ uint64(flagTaken)
	if wasTaken {
		h.flagsSize |= uint64(flagTaken)
	}
}

func (h *header) size() uint64 {
	return h.flagsSize &^ uint64(flagTaken)
}
