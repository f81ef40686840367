package vmm

import (
	"unsafe"

	"github.com/yukash09/riscv-kernel/kernel"
)

var errUnmapped = &kernel.Error{Module: "vmm", Message: "virtual address is not mapped"}

// Translate walks the page table rooted at root and returns the physical
// address va maps to. It is superpage-aware: although Map in this revision
// only ever installs 4 KiB leaves, a leaf found at level 1 or 2 is honored
// as a 2 MiB or 1 GiB superpage, with the untranslated low bits of va
// carried straight into the result.
func Translate(root *Table, va uintptr) (uintptr, *kernel.Error) {
	table := root

	for level := int8(2); level >= 0; level-- {
		entry := &table.entries[vpnBitsFor(va, uint8(level))]

		if !entry.IsValid() {
			return 0, errUnmapped
		}

		if entry.IsLeaf() {
			offsetBits := uint(12 + 9*level)
			offsetMask := uintptr(1)<<offsetBits - 1
			return (entry.Frame() &^ offsetMask) | (va & offsetMask), nil
		}

		table = (*Table)(unsafe.Pointer(entry.Frame()))
	}

	return 0, errUnmapped
}
