package vmm

import (
	"unsafe"

	"github.com/yukash09/riscv-kernel/kernel"
	"github.com/yukash09/riscv-kernel/kernel/mem/pmm"
)

var errBadMapBits = &kernel.Error{Module: "vmm", Message: "map bits must set at least one of Read/Write/Execute"}

// Map installs a 4 KiB leaf mapping from va to pa in the page table rooted
// at root, walking (and allocating, via allocFn, on demand) the two levels
// of interior tables above it. bits must include at least one of
// FlagRead/FlagWrite/FlagExecute: an entry with none of those set is an
// interior pointer, not a leaf. Calling Map with bits that set none of
// those is a precondition violation, not a recoverable condition, so it
// halts the kernel immediately rather than returning an error a caller
// might paper over.
//
// allocFn supplies physical frames for any interior tables the walk needs
// to create.
func Map(root *Table, va, pa uintptr, bits PageTableEntryFlag, allocFn pmm.AllocFunc) *kernel.Error {
	if bits&rwxMask == 0 {
		kernel.Panic(errBadMapBits)
		return errBadMapBits // unreachable: Panic halts the hart
	}

	table := root
	for level := uint8(2); level > 0; level-- {
		idx := vpnBitsFor(va, level)
		entry := &table.entries[idx]

		if !entry.IsValid() {
			frame, err := allocFn()
			if err != nil {
				return err
			}
			entry.SetFrame(frame)
			entry.SetFlags(FlagValid)
		}

		table = (*Table)(unsafe.Pointer(entry.Frame()))
	}

	leaf := &table.entries[vpnBitsFor(va, 0)]
	leaf.SetFrame(pa)
	leaf.SetFlags(bits | FlagValid)
	return nil
}
