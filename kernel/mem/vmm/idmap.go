package vmm

import (
	"github.com/yukash09/riscv-kernel/kernel"
	"github.com/yukash09/riscv-kernel/kernel/mem"
	"github.com/yukash09/riscv-kernel/kernel/mem/pmm"
)

// IDMapRange maps every page-aligned frame in [start, end) to itself, with
// the given permission bits. start and end need not be page-aligned: both
// are rounded out to whole pages before the walk, so a caller passing a
// linker symbol pair like the text section bounds always gets full coverage
// of every page the byte range touches, never one more or one fewer.
func IDMapRange(root *Table, start, end uintptr, bits PageTableEntryFlag, allocFn pmm.AllocFunc) *kernel.Error {
	lo := mem.AlignDown(start, mem.PageShift)
	hi := mem.AlignUp(end, mem.PageShift)

	for addr := lo; addr < hi; addr += uintptr(mem.PageSize) {
		if err := Map(root, addr, addr, bits, allocFn); err != nil {
			return err
		}
	}

	return nil
}
