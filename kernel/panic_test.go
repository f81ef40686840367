package kernel

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/yukash09/riscv-kernel/kernel/hal"
)

// bufConsole is a hal.Console backed by an in-memory buffer, used so tests
// can assert on early.Printf/Panic output without a real UART.
type bufConsole struct {
	bytes.Buffer
}

func (c *bufConsole) WriteByte(b byte) error {
	return c.Buffer.WriteByte(b)
}

// TestPanic exercises Panic's console output and its wfi loop. Panic's
// "for { wfiFn() }" never returns — mirroring a real hart parked forever —
// so each subtest runs Panic on its own goroutine, with a mocked wfiFn that
// signals the test and then parks that goroutine via runtime.Goexit, the
// same way the real loop never hands control back to its caller.
func TestPanic(t *testing.T) {
	defer func() {
		wfiFn = func() {}
	}()

	runPanic := func(e interface{}) {
		parked := make(chan struct{})
		wfiFn = func() {
			close(parked)
			runtime.Goexit()
		}

		go Panic(e)
		<-parked
	}

	t.Run("with error", func(t *testing.T) {
		fb := &bufConsole{}
		hal.SetActiveTerminal(fb)

		runPanic(&Error{Module: "test", Message: "panic test"})

		exp := "\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := fb.String(); got != exp {
			t.Errorf("expected to get:\n%q\ngot:\n%q", exp, got)
		}
	})

	t.Run("without error", func(t *testing.T) {
		fb := &bufConsole{}
		hal.SetActiveTerminal(fb)

		runPanic(nil)

		exp := "\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := fb.String(); got != exp {
			t.Errorf("expected to get:\n%q\ngot:\n%q", exp, got)
		}
	})

	t.Run("with plain string", func(t *testing.T) {
		fb := &bufConsole{}
		hal.SetActiveTerminal(fb)

		runPanic("something went sideways")

		exp := "\n-----------------------------------\n[rt] unrecoverable error: something went sideways\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := fb.String(); got != exp {
			t.Errorf("expected to get:\n%q\ngot:\n%q", exp, got)
		}
	})
}
