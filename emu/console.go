package emu

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Console mailbox commands, written as the value of an integer store to a
// mailbox address.
const (
	ConsolePrint uint32 = 0 // print the message buffer
	ConsoleExit  uint32 = 4 // board kernel exited
	ConsoleTrap  uint32 = 5 // board kernel trapped
)

// DefaultConsoleMailboxes are the virtual addresses the board kernel uses
// for its console.
var DefaultConsoleMailboxes = []uint32{0xF83FE800, 0xF80FF800}

const (
	consoleMaxCount = 1024
	consoleTabStop  = 16
	consoleTrapTag  = "NeXTdimension Trap:"
)

// peekFunc reads memory without raising traps.
type peekFunc func(addr uint32, size int) (uint32, bool)

// Console decodes the board kernel's mailbox messages. A mailbox holds
// the command word; the byte count follows at +4 and the text at +8.
type Console struct {
	out       io.Writer
	host      Host
	log       *logrus.Entry
	mailboxes []uint32

	breakOnNext bool
}

// NewConsole creates a console that appends messages to out.
func NewConsole(out io.Writer, host Host, log *logrus.Entry) *Console {
	return &Console{
		out:       out,
		host:      host,
		log:       log,
		mailboxes: DefaultConsoleMailboxes,
	}
}

// SetMailboxes replaces the mailbox addresses.
func (c *Console) SetMailboxes(addrs []uint32) {
	c.mailboxes = append([]uint32(nil), addrs...)
}

// IsMailbox reports whether addr is one of the mailbox addresses.
func (c *Console) IsMailbox(addr uint32) bool {
	for _, a := range c.mailboxes {
		if a == addr {
			return true
		}
	}
	return false
}

// Handle processes a command written to the mailbox at addr.
func (c *Console) Handle(addr, cmd uint32, peek peekFunc) {
	switch cmd {
	case ConsolePrint:
		c.print(addr, peek)
	case ConsoleExit:
		c.host.Breakpoint(BreakKernel, "NeXTdimension Exit")
	case ConsoleTrap:
		if c.breakOnNext {
			c.breakOnNext = false
			c.host.Breakpoint(BreakKernel, "NeXTdimension Trap")
		}
	}
}

func (c *Console) print(addr uint32, peek peekFunc) {
	count, ok := peek(addr+4, 4)
	if !ok || count >= consoleMaxCount {
		return
	}

	// Each message starts at column 0.
	var sb strings.Builder
	col := 0
	ptr := addr + 8
	for i := uint32(0); i < count; i++ {
		ch, ok := peek(ptr+i, 1)
		if !ok {
			break
		}
		switch byte(ch) {
		case '\r':
		case '\t':
			n := consoleTabStop - col%consoleTabStop
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			sb.WriteByte('\n')
			col = 0
		default:
			sb.WriteByte(byte(ch))
			col++
		}
	}

	text := sb.String()
	if strings.Contains(text, consoleTrapTag) {
		c.breakOnNext = true
	}

	c.log.WithField("mailbox", addr).Debug("console message")
	if _, err := io.WriteString(c.out, text); err != nil {
		c.log.WithError(err).Warn("console write failed")
	}
}
