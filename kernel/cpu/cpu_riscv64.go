// Package cpu provides the hart-control primitives that only exist as
// instructions, not as anything expressible in Go: halting, flushing
// address-translation caches, and switching the active page table. Each is
// a single-instruction assembly body in cpu_riscv64.s.
package cpu

// WFI parks the hart in wait-for-interrupt state. Used by kernel.Panic to
// halt after an unrecoverable error; lowers to a single bare "wfi"
// instruction. Since a single wfi can return on any interrupt, the caller
// (kernel.Panic) calls it in a loop.
func WFI()

// SfenceVMA flushes the TLB entry (or, with virtAddr == 0, the whole TLB)
// covering virtAddr. This revision's bootstrap never calls it: Kinit builds
// the page table before the MMU is enabled, so there is nothing cached yet
// to invalidate. Provided for the vmm package to call once future callers
// map or remap pages while translation is active.
func SfenceVMA(virtAddr uintptr)

// SetSATP writes the Sv39 SATP token (computed by Kinit) to the satp CSR,
// enabling translation. Not called by this revision: Kinit hands the token
// back to its caller instead of enabling the MMU itself.
func SetSATP(token uintptr)
