package emu

import "encoding/binary"

// csBootBase is the start of the boot ROM window, which is always fetched
// a byte at a time.
const csBootBase uint32 = 0xFFFE0000

// Memory is the core's view of memory. It applies translation, alignment
// and watchpoint checks before handing accesses to the bus.
type Memory struct {
	regFile *RegFile
	bus     Bus
	mmu     *MMU
	traps   *trapState
	console *Console

	alignmentTraps bool
}

func newMemory(regFile *RegFile, bus Bus, mmu *MMU, traps *trapState) *Memory {
	return &Memory{
		regFile:        regFile,
		bus:            bus,
		mmu:            mmu,
		traps:          traps,
		alignmentTraps: true,
	}
}

// Bus returns the physical bus.
func (m *Memory) Bus() Bus {
	return m.bus
}

func (m *Memory) order() binary.ByteOrder {
	if m.regFile.BigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (m *Memory) dataFault(kind AccessKind) {
	m.regFile.SetPSRBit(PSRDAT, true)
	m.traps.raise(TrapNormal)
	m.traps.fault = kind
}

func (m *Memory) aligned(addr uint32, size int, kind AccessKind) bool {
	if !m.alignmentTraps || addr&uint32(size-1) == 0 {
		return true
	}
	m.dataFault(kind)
	return false
}

func (m *Memory) physical(addr uint32, isWrite bool, kind AccessKind) (uint32, bool) {
	if !m.regFile.ATE() {
		return addr, true
	}
	phys, ok := m.mmu.Translate(addr, true, isWrite)
	if !ok {
		m.traps.fault = kind
	}
	return phys, ok
}

// watched reports a debug watchpoint hit on the physical address. A hit
// raises a data access trap.
func (m *Memory) watched(phys uint32, size int, enable uint32, kind AccessKind) bool {
	if phys&^uint32(size-1) != m.regFile.CR[CRegDB] || !m.regFile.PSRBit(enable) {
		return false
	}
	m.dataFault(kind)
	return true
}

// ReadInt reads a 1, 2 or 4 byte integer. It returns false when the access
// trapped.
func (m *Memory) ReadInt(addr uint32, size int) (uint32, bool) {
	if !m.aligned(addr, size, AccessRead) {
		return 0, false
	}
	phys, ok := m.physical(addr, false, AccessRead)
	if !ok || m.watched(phys, size, PSRBR, AccessRead) {
		return 0, false
	}
	return m.bus.Read(phys, size, m.order()), true
}

// WriteInt writes a 1, 2 or 4 byte integer. It returns false when the
// access trapped.
func (m *Memory) WriteInt(addr uint32, size int, v uint32) bool {
	if m.console != nil && m.console.IsMailbox(addr) {
		m.console.Handle(addr, v, m.peek)
	}

	if !m.aligned(addr, size, AccessWrite) {
		return false
	}
	phys, ok := m.physical(addr, true, AccessWrite)
	if !ok || m.watched(phys, size, PSRBW, AccessWrite) {
		return false
	}
	m.bus.Write(phys, size, v, m.order())
	return true
}

// peek reads memory on behalf of the console without disturbing the trap
// state of the running instruction.
func (m *Memory) peek(addr uint32, size int) (uint32, bool) {
	psr := m.regFile.CR[CRegPSR]
	saved := *m.traps
	m.traps.clear()

	v, ok := m.ReadInt(addr, size)

	m.regFile.CR[CRegPSR] = psr
	*m.traps = saved
	return v, ok
}

// ReadFP reads a 4, 8 or 16 byte floating-point operand. Words come back
// in register order: for each 8-byte element the low word comes first.
func (m *Memory) ReadFP(addr uint32, size int) ([4]uint32, bool) {
	var words [4]uint32

	if !m.aligned(addr, size, AccessFPRead) {
		return words, false
	}
	phys, ok := m.physical(addr, false, AccessFPRead)
	if !ok || m.watched(phys, size, PSRBR, AccessFPRead) {
		return words, false
	}

	buf := make([]byte, size)
	m.bus.ReadBlock(phys, buf)

	order := m.order()
	if size == 4 {
		words[0] = order.Uint32(buf)
		return words, true
	}
	for i := 0; i < size/8; i++ {
		v := order.Uint64(buf[i*8:])
		words[i*2] = uint32(v)
		words[i*2+1] = uint32(v >> 32)
	}
	return words, true
}

// WriteFP writes a 4, 8 or 16 byte floating-point operand given in
// register order. For 8-byte writes, wmask selects bytes of the value:
// bit 0x80>>k enables byte k counting from the least significant end.
func (m *Memory) WriteFP(addr uint32, size int, words [4]uint32, wmask uint8) bool {
	if !m.aligned(addr, size, AccessFPWrite) {
		return false
	}
	phys, ok := m.physical(addr, true, AccessFPWrite)
	if !ok || m.watched(phys, size, PSRBW, AccessFPWrite) {
		return false
	}

	order := m.order()
	buf := make([]byte, size)
	if size == 4 {
		order.PutUint32(buf, words[0])
	} else {
		for i := 0; i < size/8; i++ {
			order.PutUint64(buf[i*8:], uint64(words[i*2])|uint64(words[i*2+1])<<32)
		}
	}

	if size != 8 || wmask == 0xFF {
		m.bus.WriteBlock(phys, buf)
		return true
	}

	bigEndian := m.regFile.BigEndian()
	for k := uint32(0); k < 8; k++ {
		if wmask&(0x80>>k) == 0 {
			continue
		}
		pos := k
		if bigEndian {
			pos = 7 - k
		}
		m.bus.Write(phys+pos, 1, uint32(buf[pos]), order)
	}
	return true
}

// Fetch reads the instruction word at the virtual address pc. Instruction
// fetch is always little-endian.
func (m *Memory) Fetch(pc uint32) (uint32, bool) {
	phys := pc
	if m.regFile.ATE() {
		var ok bool
		phys, ok = m.mmu.Translate(pc, false, false)
		if !ok {
			m.traps.fault = AccessFetch
			return 0, false
		}
	}

	if m.regFile.CS8() || phys >= csBootBase {
		var w uint32
		for i := uint32(0); i < 4; i++ {
			w |= m.bus.Read(phys+i, 1, binary.LittleEndian) << (8 * i)
		}
		return w, true
	}
	return m.bus.Read(phys, 4, binary.LittleEndian), true
}
