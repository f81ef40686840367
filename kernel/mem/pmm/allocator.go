package pmm

import (
	"unsafe"

	"github.com/yukash09/riscv-kernel/kernel"
	"github.com/yukash09/riscv-kernel/kernel/mem"
)

var (
	errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of physical frames"}

	// FrameAllocator is the kernel's singleton page-frame allocator. Kinit
	// calls Init on it once; every other subsystem (kmem, vmm) allocates
	// frames through it for the lifetime of the kernel.
	FrameAllocator Allocator
)

// AllocFunc allocates a single zeroed physical frame, returning its address
// or a *kernel.Error if the heap is exhausted. vmm.Map takes one of these so
// it can allocate interior page-table frames without importing pmm
// directly.
type AllocFunc func() (uintptr, *kernel.Error)

// Allocator is a first-fit page-frame allocator. It tracks one descriptor
// byte per frame in an array placed at the start of the heap region, and
// serves contiguous runs out of the remainder of the region.
//
// Page-frame reclamation is not part of the kernel's bootstrap: Dealloc
// exists but is never called from Kinit or Kmain.
type Allocator struct {
	heapStart  uintptr
	numPages   uint64
	allocStart uintptr
}

func (a *Allocator) descriptor(i uint64) *descriptor {
	return (*descriptor)(unsafe.Pointer(a.heapStart + uintptr(i)))
}

// Init computes the number of page descriptors the heap can hold, zeroes
// them all, and records the first allocatable frame address (the heap
// start rounded up to a page boundary past the descriptor array). Calling
// Init a second time on the same Allocator corrupts its state: it is only
// safe across a fresh boot.
func (a *Allocator) Init(heapStart uintptr, heapSize mem.Size) *kernel.Error {
	a.heapStart = heapStart
	a.numPages = uint64(heapSize) / uint64(mem.PageSize)

	for i := uint64(0); i < a.numPages; i++ {
		a.descriptor(i).clear()
	}

	a.allocStart = mem.AlignUp(heapStart+uintptr(a.numPages), mem.PageShift)
	return nil
}

// AllocStart returns the address of the first frame this allocator can
// hand out. Read-only: there is no API to move it once Init has run.
func (a *Allocator) AllocStart() uintptr {
	return a.allocStart
}

// NumPages returns the total number of frames tracked by this allocator,
// taken or free.
func (a *Allocator) NumPages() uint64 {
	return a.numPages
}

// Alloc reserves the lowest-indexed contiguous run of pages frames and
// returns its base address, or 0 if no such run exists. pages must be >= 1.
func (a *Allocator) Alloc(pages uint64) uintptr {
	for i := uint64(0); i+pages <= a.numPages; i++ {
		if a.descriptor(i).isTaken() {
			continue
		}

		fits := true
		for j := i; j < i+pages; j++ {
			if a.descriptor(j).isTaken() {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}

		for j := i; j < i+pages; j++ {
			a.descriptor(j).setFlag(flagTaken)
		}
		a.descriptor(i + pages - 1).setFlag(flagLast)

		return a.allocStart + uintptr(i)*uintptr(mem.PageSize)
	}

	return 0
}

// ZeroAlloc is Alloc followed by zeroing the returned run. It never
// dereferences on failure.
func (a *Allocator) ZeroAlloc(pages uint64) uintptr {
	addr := a.Alloc(pages)
	if addr == 0 {
		return 0
	}

	mem.Memset(addr, 0, mem.Size(pages)*mem.PageSize)
	return addr
}

// AllocFrame allocates a single zeroed frame; it satisfies AllocFunc and is
// what vmm.Map uses to materialize interior page-table frames.
func (a *Allocator) AllocFrame() (uintptr, *kernel.Error) {
	addr := a.ZeroAlloc(1)
	if addr == 0 {
		return 0, errOutOfMemory
	}
	return addr, nil
}

// Dealloc clears Taken and Last across the run starting at addr, up to and
// including the frame marked Last, so a later Alloc can reuse it. The
// kernel itself never calls it.
func (a *Allocator) Dealloc(addr uintptr) {
	if addr < a.allocStart {
		return
	}

	i := uint64(addr-a.allocStart) / uint64(mem.PageSize)
	for i < a.numPages {
		d := a.descriptor(i)
		wasLast := d.isLast()
		d.clearFlag(flagTaken)
		d.clearFlag(flagLast)
		if wasLast {
			break
		}
		i++
	}
}
