package emu

// TrapFlags is the pending-trap mask.
type TrapFlags uint8

// Trap causes.
const (
	TrapNormal TrapFlags = 1 << iota
	TrapInDelaySlot
	TrapExternal
)

// TrapVector is the address execution continues at after trap entry.
const TrapVector uint32 = 0xFFFFFF00

// AccessKind identifies the memory path that faulted last.
type AccessKind uint8

// Access kinds.
const (
	AccessNone AccessKind = iota
	AccessFetch
	AccessRead
	AccessWrite
	AccessFPRead
	AccessFPWrite
)

var accessKindNames = [...]string{"none", "fetch", "read", "write", "fp-read", "fp-write"}

func (k AccessKind) String() string {
	if int(k) >= len(accessKindNames) {
		return "unknown"
	}
	return accessKindNames[k]
}

// trapState is shared by the execution units so any of them can raise a
// trap for the current instruction.
type trapState struct {
	pending TrapFlags
	fault   AccessKind
}

func (t *trapState) raise(f TrapFlags) {
	t.pending |= f
}

func (t *trapState) clear() {
	t.pending = 0
	t.fault = AccessNone
}
