package kernel

// Error is a kernel error value. Every instance is a package-level *Error
// variable rather than a value built on the fly with errors.New or fmt.Errorf:
// before Kinit has brought up kmem, there is no allocator backing either of
// those, and Error's callers (pmm, kmem, vmm, bootstrap) all run before or
// during that bring-up.
type Error struct {
	// Module names the subsystem the error originated in (e.g. "pmm", "vmm").
	Module string

	// Message is the human-readable description, reported verbatim by
	// Error() and by Panic's console output.
	Message string
}

// Error implements the error interface. It returns Message directly rather
// than formatting Module into it, since concatenating the two would
// allocate a new string on every call — exactly the allocation Error exists
// to avoid.
func (e *Error) Error() string {
	return e.Message
}
