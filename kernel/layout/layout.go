// Package layout exposes the kernel's own memory layout: the addresses the
// linker script assigns to each section and to the heap region, reachable
// from Go as zero-sized linker symbols in the classic runtime style (the Go
// runtime itself exposes "text", "etext" and friends the same way). Kinit
// reads these to identity-map the kernel's own image and to size the heap
// the page-frame allocator manages.
package layout

import "unsafe" // required for go:linkname and pointer arithmetic

//go:linkname textStart _text_start
//go:linkname textEnd _text_end
//go:linkname rodataStart _rodata_start
//go:linkname rodataEnd _rodata_end
//go:linkname dataStart _data_start
//go:linkname dataEnd _data_end
//go:linkname bssStart _bss_start
//go:linkname bssEnd _bss_end
//go:linkname stackStart _stack_start
//go:linkname stackEnd _stack_end
//go:linkname heapStart _heap_start
//go:linkname heapSizeBytes _heap_size
//go:linkname kernelTable _kernel_table

var (
	textStart     [0]byte
	textEnd       [0]byte
	rodataStart   [0]byte
	rodataEnd     [0]byte
	dataStart     [0]byte
	dataEnd       [0]byte
	bssStart      [0]byte
	bssEnd        [0]byte
	stackStart    [0]byte
	stackEnd      [0]byte
	heapStart     [0]byte
	heapSizeBytes [0]byte

	// kernelTable is the one symbol in this package that is storage rather
	// than a bare address: a word the linker script reserves for the root
	// page-table pointer, so the trap vector and any assembly that needs the
	// active table can find it without knowing Go's data layout. Kinit
	// writes it exactly once.
	kernelTable uintptr
)

func addrOf(sym *[0]byte) uintptr { return uintptr(unsafe.Pointer(sym)) }

// TextStart and TextEnd bound the kernel's executable section.
func TextStart() uintptr { return addrOf(&textStart) }
func TextEnd() uintptr   { return addrOf(&textEnd) }

// RodataStart and RodataEnd bound the kernel's read-only data section.
func RodataStart() uintptr { return addrOf(&rodataStart) }
func RodataEnd() uintptr   { return addrOf(&rodataEnd) }

// DataStart and DataEnd bound the kernel's initialized data section.
func DataStart() uintptr { return addrOf(&dataStart) }
func DataEnd() uintptr   { return addrOf(&dataEnd) }

// BSSStart and BSSEnd bound the kernel's zero-initialized data section.
func BSSStart() uintptr { return addrOf(&bssStart) }
func BSSEnd() uintptr   { return addrOf(&bssEnd) }

// StackStart and StackEnd bound the boot-time kernel stack.
func StackStart() uintptr { return addrOf(&stackStart) }
func StackEnd() uintptr   { return addrOf(&stackEnd) }

// HeapStart is the first byte of the region the page-frame allocator owns.
func HeapStart() uintptr { return addrOf(&heapStart) }

// HeapSize is the number of bytes in the heap region, encoded by the linker
// script as the distance between two symbols rather than a value, so it is
// read the same way the bounds above are: as an address, here treated as a
// byte count.
func HeapSize() uintptr { return addrOf(&heapSizeBytes) }

// KernelTable returns the published root page-table address, or 0 before
// Kinit has run.
func KernelTable() uintptr { return kernelTable }

// SetKernelTable publishes the root page-table address for assembly-side
// consumers. There is no legitimate second call.
func SetKernelTable(addr uintptr) { kernelTable = addr }
