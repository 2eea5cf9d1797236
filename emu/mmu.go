package emu

import "encoding/binary"

// Page table entry bits.
const (
	pteP uint32 = 1 << 0 // present
	pteW uint32 = 1 << 1 // writable
	pteU uint32 = 1 << 2 // user
	pteA uint32 = 1 << 5 // accessed
	pteD uint32 = 1 << 6 // dirty

	pteFrameMask uint32 = 0xFFFFF000
)

// MMU translates virtual addresses through the two-level page tables
// rooted at DIRBASE.
type MMU struct {
	regFile *RegFile
	bus     Bus
	traps   *trapState

	// tlb is nil when translations are not cached.
	tlb *TLB
}

func newMMU(regFile *RegFile, bus Bus, traps *trapState) *MMU {
	return &MMU{regFile: regFile, bus: bus, traps: traps}
}

// Translate maps vaddr to a physical address. On a fault it sets DAT for
// data references or IAT for fetches, raises a normal trap and returns
// false.
func (m *MMU) Translate(vaddr uint32, isData, isWrite bool) (uint32, bool) {
	if m.tlb != nil {
		if phys, ok, hit := m.cached(vaddr, isData, isWrite); hit {
			return phys, ok
		}
	}

	dir := (vaddr >> 22) & 0x3FF
	page := (vaddr >> 12) & 0x3FF
	offset := vaddr & 0xFFF

	pdeAddr := m.regFile.CR[CRegDIRBASE]&dirbaseDTBMask | dir<<2
	pde := m.bus.Read(pdeAddr, 4, binary.LittleEndian)
	if !m.check(pde, isData, isWrite) {
		return 0, false
	}

	pteAddr := pde&pteFrameMask | page<<2
	pte := m.bus.Read(pteAddr, 4, binary.LittleEndian)
	if !m.check(pte, isData, isWrite) {
		return 0, false
	}

	m.bus.Write(pdeAddr, 4, pde|pteA, binary.LittleEndian)
	m.bus.Write(pteAddr, 4, pte|pteA, binary.LittleEndian)

	// The dirty check follows the accessed-bit writeback.
	if isWrite && isData && pte&pteD == 0 {
		m.fault(true)
		return 0, false
	}

	if m.tlb != nil {
		m.tlb.insert(vaddr, pde, pte)
	}
	return pte&pteFrameMask | offset, true
}

// cached translates through the TLB. A write to a clean page misses so
// the walk can recheck the dirty bit.
func (m *MMU) cached(vaddr uint32, isData, isWrite bool) (phys uint32, ok, hit bool) {
	e, hit := m.tlb.lookup(vaddr)
	if !hit {
		return 0, false, false
	}
	if isWrite && isData && e.pte&pteD == 0 {
		m.tlb.drop(vaddr)
		return 0, false, false
	}
	if !m.check(e.pde, isData, isWrite) || !m.check(e.pte, isData, isWrite) {
		return 0, false, true
	}
	return e.pte&pteFrameMask | vaddr&0xFFF, true, true
}

// SetTLB enables translation caching through t, or disables it when t is
// nil.
func (m *MMU) SetTLB(t *TLB) {
	m.tlb = t
}

// TLB returns the translation cache, or nil when disabled.
func (m *MMU) TLB() *TLB {
	return m.tlb
}

func (m *MMU) check(entry uint32, isData, isWrite bool) bool {
	user := m.regFile.UserMode()

	switch {
	case entry&pteP == 0:
		m.fault(isData)
	case isWrite && isData && entry&pteW == 0 && (user || m.regFile.EPSRBit(EPSRWP)):
		m.fault(true)
	case user && entry&pteU == 0:
		m.fault(isData)
	default:
		return true
	}
	return false
}

func (m *MMU) fault(isData bool) {
	if isData {
		m.regFile.SetPSRBit(PSRDAT, true)
	} else {
		m.regFile.SetPSRBit(PSRIAT, true)
	}
	m.traps.raise(TrapNormal)
}
