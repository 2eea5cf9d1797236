package emu

import (
	"encoding/binary"
	"errors"
)

// Bus is the physical memory seen by the core. Addresses are physical;
// translation happens before the bus is reached.
type Bus interface {
	// Read returns a 1, 2 or 4 byte value stored at addr in the given
	// byte order.
	Read(addr uint32, size int, order binary.ByteOrder) uint32

	// Write stores the low size bytes of v at addr in the given byte order.
	Write(addr uint32, size int, v uint32, order binary.ByteOrder)

	// ReadBlock copies len(dst) bytes starting at addr into dst.
	ReadBlock(addr uint32, dst []byte)

	// WriteBlock copies src to memory starting at addr.
	WriteBlock(addr uint32, src []byte)
}

// BreakKind tells the host why the core asked for the debugger.
type BreakKind byte

// Break kinds.
const (
	BreakDebugger BreakKind = 'd' // software trap instruction
	BreakKernel   BreakKind = 'k' // message from the board kernel
)

// Host receives side effects the core cannot handle on its own.
type Host interface {
	// Halt is called once when the core stops executing.
	Halt(reason error)

	// Breakpoint asks the host debugger to take control.
	Breakpoint(kind BreakKind, msg string)
}

// Errors reported by the emulator.
var (
	// ErrUnrecognizedOpcode is wrapped by the error reported when the
	// decoder has no handler for a word.
	ErrUnrecognizedOpcode = errors.New("unrecognized opcode")

	// ErrHalted is returned when stepping a halted core.
	ErrHalted = errors.New("core halted")

	// ErrMaxInstructions is returned when the instruction limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")
)

// nopHost ignores every notification.
type nopHost struct{}

func (nopHost) Halt(error)                   {}
func (nopHost) Breakpoint(BreakKind, string) {}
