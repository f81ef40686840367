// Package kmain hosts the kernel's two entry points: Kinit, the one-shot
// bootstrap orchestrator that brings up the allocators and builds the boot
// page table, and Kmain, the steady-state UART echo loop. Both are invoked
// by the rt0 assembly code, Kinit first with translation off, Kmain after
// rt0 has installed the satp value Kinit returns.
package kmain

import (
	"unsafe"

	"github.com/yukash09/riscv-kernel/kernel"
	"github.com/yukash09/riscv-kernel/kernel/driver/uart"
	"github.com/yukash09/riscv-kernel/kernel/hal"
	"github.com/yukash09/riscv-kernel/kernel/kfmt/early"
	"github.com/yukash09/riscv-kernel/kernel/layout"
	"github.com/yukash09/riscv-kernel/kernel/mem"
	"github.com/yukash09/riscv-kernel/kernel/mem/kmem"
	"github.com/yukash09/riscv-kernel/kernel/mem/pmm"
	"github.com/yukash09/riscv-kernel/kernel/mem/vmm"
)

// uartBaseAddr is the platform's fixed UART MMIO base. Both Kinit (to
// identity-map it) and Kmain (to drive it) need the same address.
const uartBaseAddr = 0x1000_0000

// kmemPoolPages is the number of pages kmem reserves for its byte-allocator
// pool: 64 pages (256 KiB).
const kmemPoolPages = 64

// satpModeSv39 is the mode field value (bits 63:60) that selects Sv39
// paging in the satp CSR.
const satpModeSv39 = uint64(8) << 60

// errKinitAllocFailed is reused by allocFrameOrPanic on every call: no
// single call site in Kinit has a sane way to continue past a frame-pool
// exhaustion this early in bootstrap, so the whole table walk shares one
// unrecoverable-error value rather than allocating a fresh one per site.
var errKinitAllocFailed = &kernel.Error{Module: "kinit", Message: "page-frame allocator exhausted while building the boot page table"}

// allocFrameOrPanic adapts pmm.FrameAllocator.AllocFrame into the
// pmm.AllocFunc shape vmm.Map/IDMapRange expect, but never returns a
// non-nil error: a frame shortfall while the boot table is still being
// walked has no half-built state any caller could recover into, so it
// halts the hart immediately instead of unwinding back through Kinit.
func allocFrameOrPanic() (uintptr, *kernel.Error) {
	frame, err := pmm.FrameAllocator.AllocFrame()
	if err != nil {
		kernel.Panic(errKinitAllocFailed)
	}
	return frame, nil
}

// Kinit is the kernel's first Go entry point. It brings up the UART, then
// the page-frame allocator, the byte allocator, and a root Sv39 page table
// with the kernel's own image, heap, and MMIO windows identity-mapped into
// it. It returns the satp value that activates the table it just built;
// Kinit itself never calls cpu.SetSATP and leaves installing that value to
// its caller. Kinit has no error return: once the UART and the two
// allocators are up, every remaining step either succeeds or panics.
//
//go:noinline
func Kinit() uintptr {
	dev := uart.New(uartBaseAddr)
	dev.Init()
	hal.SetActiveTerminal(dev)

	if err := pmm.FrameAllocator.Init(layout.HeapStart(), mem.Size(layout.HeapSize())); err != nil {
		kernel.Panic(err)
	}
	if err := kmem.Init(kmemPoolPages, pmm.FrameAllocator.ZeroAlloc); err != nil {
		kernel.Panic(err)
	}

	root := kmem.PageTable()

	kheapHead := kmem.Head()
	kheapEnd := kheapHead + uintptr(kmem.NumAllocations())*uintptr(mem.PageSize)
	if err := vmm.IDMapRange(root, kheapHead, kheapEnd, vmm.FlagReadWrite, allocFrameOrPanic); err != nil {
		kernel.Panic(err)
	}

	// Page-descriptor region backing the page-frame allocator: one byte per
	// frame, not the whole heap the frames themselves live in.
	descriptorsEnd := layout.HeapStart() + uintptr(pmm.FrameAllocator.NumPages())
	if err := vmm.IDMapRange(root, layout.HeapStart(), descriptorsEnd, vmm.FlagReadWrite, allocFrameOrPanic); err != nil {
		kernel.Panic(err)
	}

	sections := []struct {
		start, end uintptr
		bits       vmm.PageTableEntryFlag
	}{
		{layout.TextStart(), layout.TextEnd(), vmm.FlagReadExecute},
		{layout.RodataStart(), layout.RodataEnd(), vmm.FlagReadExecute},
		{layout.DataStart(), layout.DataEnd(), vmm.FlagReadWrite},
		{layout.BSSStart(), layout.BSSEnd(), vmm.FlagReadWrite},
		{layout.StackStart(), layout.StackEnd(), vmm.FlagReadWrite},
	}
	for _, s := range sections {
		if err := vmm.IDMapRange(root, s.start, s.end, s.bits, allocFrameOrPanic); err != nil {
			kernel.Panic(err)
		}
	}

	// UART and CLINT (MSIP/MTIMECMP/MTIME) are single pages; PLIC spans two
	// ranges. All are mapped read-write.
	mmioPages := []uintptr{uartBaseAddr, 0x0200_0000, 0x0200_b000, 0x0200_c000}
	for _, addr := range mmioPages {
		if err := vmm.Map(root, addr, addr, vmm.FlagReadWrite, allocFrameOrPanic); err != nil {
			kernel.Panic(err)
		}
	}
	plicRanges := [][2]uintptr{{0x0c00_0000, 0x0c00_2000}, {0x0c20_0000, 0x0c20_8000}}
	for _, r := range plicRanges {
		if err := vmm.IDMapRange(root, r[0], r[1], vmm.FlagReadWrite, allocFrameOrPanic); err != nil {
			kernel.Panic(err)
		}
	}

	rootAddr := uintptr(unsafe.Pointer(root))
	layout.SetKernelTable(rootAddr)

	satp := (uint64(rootAddr) >> mem.PageShift) | satpModeSv39
	return uintptr(satp)
}

// Kmain is the kernel's steady-state entry point: it echoes UART input back
// out, decoding backspace, CR/LF and CSI arrow-key sequences the way a
// terminal would, rather than echoing their raw control bytes.
//
//go:noinline
func Kmain() {
	dev := uart.New(uartBaseAddr)
	dev.Init()

	early.Printf("riscv-kernel ready\r\n")

	for {
		c, ok := dev.Get()
		if !ok {
			continue
		}

		switch c {
		case 8, 0x7f: // backspace or delete
			dev.Put(8)
			dev.Put(' ')
			dev.Put(8)
		case 10, 13: // newline or carriage return
			dev.Put(13)
			dev.Put(10)
		case 0x1b: // ESC: maybe a CSI arrow-key sequence
			handleEscapeSequence(dev)
		default:
			early.Printf("%c", c)
		}
	}
}

// handleEscapeSequence consumes the remainder of a CSI arrow-key sequence
// (ESC '[' <letter>) and prints the key name. Any other byte following ESC
// is dropped: this revision does not model the rest of the ANSI escape
// grammar.
func handleEscapeSequence(dev *uart.Uart) {
	next, ok := dev.Get()
	if !ok || next != '[' {
		return
	}

	b, ok := dev.Get()
	if !ok {
		return
	}

	switch b {
	case 'A':
		early.Printf("Up\r\n")
	case 'B':
		early.Printf("Down\r\n")
	case 'C':
		early.Printf("Left\r\n")
	case 'D':
		early.Printf("Right\r\n")
	default:
		early.Printf("?\r\n")
	}
}
