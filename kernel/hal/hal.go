// Package hal picks the concrete console device that kfmt/early and
// kernel.Panic write their output to.
package hal

// Console is the minimal device interface early.Printf and kernel.Panic
// need for output. The UART driver and any future console device satisfy
// it directly; neither needs cursor/attribute state since output is a
// plain byte stream.
type Console interface {
	WriteByte(b byte) error
	Write(p []byte) (int, error)
}

// ActiveTerminal points to the console device currently receiving
// diagnostic output. It is nil until Kinit calls SetActiveTerminal with an
// initialized UART device; callers that may run before then must not invoke
// early.Printf.
var ActiveTerminal Console

// SetActiveTerminal installs cons as the target for all subsequent
// early.Printf and kernel.Panic output.
func SetActiveTerminal(cons Console) {
	ActiveTerminal = cons
}
