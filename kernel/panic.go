package kernel

import (
	"github.com/yukash09/riscv-kernel/kernel/cpu"
	"github.com/yukash09/riscv-kernel/kernel/kfmt/early"
)

var (
	// wfiFn is mocked by tests and is automatically inlined by the compiler.
	wfiFn = cpu.WFI

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// Panic outputs the supplied error (if not nil) to the console and parks
// the hart in wfi. Calls to Panic never return. The go:redirect-from
// directive below marks Panic as a redirection target for runtime.gopanic;
// nothing in this repository applies that redirection.
//
// wfi is a hint, not a guaranteed sleep: an implementation may treat it as
// a no-op, and any pending interrupt — even one the hart takes no trap
// for — can make it retire immediately. A single call is not a halt, so
// Panic loops on it forever.
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	early.Printf("\n-----------------------------------\n")
	if err != nil {
		early.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	early.Printf("*** kernel panic: system halted ***")
	early.Printf("\n-----------------------------------\n")

	for {
		wfiFn()
	}
}
