package kmem

import (
	"unsafe"

	"github.com/yukash09/riscv-kernel/kernel"
	"github.com/yukash09/riscv-kernel/kernel/mem"
	"github.com/yukash09/riscv-kernel/kernel/mem/vmm"
)

var errOutOfMemory = &kernel.Error{Module: "kmem", Message: "out of heap space"}

// ZeroAllocFunc allocates and zeroes a run of physical frames, returning its
// base address or 0 on failure. pmm.Allocator.ZeroAlloc satisfies this.
type ZeroAllocFunc func(pages uint64) uintptr

var (
	head      uintptr
	poolPages uint64

	// pageTable is the kernel's own root Sv39 table, carved out of the same
	// frame pool as everything else kmem hands out. Kinit populates the
	// kernel's identity mappings into it via vmm.Map/IDMapRange.
	pageTable *vmm.Table
)

// Init reserves pages pages from zeroAlloc as the byte-allocator's pool and
// a further single page for the kernel's root page table. Calling Init
// twice corrupts allocator state; it is only safe across a fresh boot.
func Init(pages uint64, zeroAlloc ZeroAllocFunc) *kernel.Error {
	addr := zeroAlloc(pages)
	if addr == 0 {
		return errOutOfMemory
	}

	head = addr
	poolPages = pages

	h := headerAt(head)
	h.setFree()
	h.setSize(pages * uint64(mem.PageSize))

	tableAddr := zeroAlloc(1)
	if tableAddr == 0 {
		return errOutOfMemory
	}
	pageTable = (*vmm.Table)(unsafe.Pointer(tableAddr))

	return nil
}

// Head returns the address of the allocator's first header.
func Head() uintptr { return head }

// NumAllocations returns the number of pages Init reserved for the pool.
func NumAllocations() uint64 { return poolPages }

// PageTable returns the kernel's root Sv39 table, allocated by Init.
func PageTable() *vmm.Table { return pageTable }

func tail() uintptr {
	return head + uintptr(poolPages)*uintptr(mem.PageSize)
}

// Kmalloc reserves a chunk of at least sz bytes and returns the address of
// its first usable byte, or 0 if no free chunk large enough exists. It is a
// first-fit search: split the first free chunk big enough for the request,
// or hand over the whole chunk if the leftover would be too small to host
// another header.
func Kmalloc(sz uint64) uintptr {
	size := uint64(mem.AlignUp(uintptr(sz), 3)) + uint64(headerSize)

	for h := head; h < tail(); {
		hdr := headerAt(h)

		chunkSize := hdr.size()
		if chunkSize == 0 {
			// Corrupt heap: a zero-size chunk can never be advanced past.
			break
		}

		if hdr.isFree() && size <= chunkSize {
			rem := chunkSize - size
			hdr.setTaken()

			if rem > uint64(headerSize) {
				next := headerAt(h + uintptr(size))
				next.setFree()
				next.setSize(rem)
				hdr.setSize(size)
			} else {
				hdr.setSize(chunkSize)
			}

			return h + uintptr(headerSize)
		}

		h += uintptr(chunkSize)
	}

	return 0
}

// Kzmalloc is Kmalloc followed by zeroing the returned chunk.
func Kzmalloc(sz uint64) uintptr {
	size := uint64(mem.AlignUp(uintptr(sz), 3))
	ret := Kmalloc(size)
	if ret != 0 {
		mem.Memset(ret, 0, mem.Size(size))
	}
	return ret
}

// Kfree releases a chunk previously returned by Kmalloc/Kzmalloc and runs a
// single coalescing pass over the pool. Freeing 0 or an address that is
// already free is a no-op.
func Kfree(ptr uintptr) {
	if ptr == 0 {
		return
	}

	hdr := headerAt(ptr - headerSize)
	if hdr.isTaken() {
		hdr.setFree()
	}
	Coalesce()
}

// Coalesce makes one pass over the pool. At each free chunk it keeps
// absorbing the chunk immediately following it for as long as that one is
// free, so after a single pass no two adjacent chunks are both free. Two
// free chunks separated by a third, still-taken chunk are left unmerged
// until that middle chunk is freed and Coalesce runs again.
func Coalesce() {
	for h := head; h < tail(); {
		hdr := headerAt(h)
		size := hdr.size()
		if size == 0 {
			// Corrupt heap (double free or similar): stop rather than loop.
			break
		}

		next := h + uintptr(size)
		if next >= tail() {
			h = next
			continue
		}

		nextHdr := headerAt(next)
		if hdr.isFree() && nextHdr.isFree() {
			hdr.setSize(size + nextHdr.size())
			// Stay on the grown chunk so a longer run of free chunks is
			// absorbed in this same pass.
			continue
		}

		h = h + uintptr(hdr.size())
	}
}
