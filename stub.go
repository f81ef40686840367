package main

import "github.com/yukash09/riscv-kernel/kernel/kmain"

// main makes dummy calls to the two kernel entry points. It is intentionally
// defined to prevent the Go compiler from optimizing away the real kernel
// code: the rt0 assembly invokes Kinit and Kmain directly and the compiler
// is not aware of its presence.
//
// The rt0 code calls Kinit first with translation off, installs the satp
// value it returns, then calls Kmain. Neither is expected to return.
func main() {
	kmain.Kinit()
	kmain.Kmain()
}
