package emu

// PSR bits.
const (
	PSRBR  uint32 = 1 << 0 // break on read
	PSRBW  uint32 = 1 << 1 // break on write
	PSRCC  uint32 = 1 << 2
	PSRLCC uint32 = 1 << 3
	PSRIM  uint32 = 1 << 4
	PSRPIM uint32 = 1 << 5
	PSRU   uint32 = 1 << 6
	PSRPU  uint32 = 1 << 7
	PSRIT  uint32 = 1 << 8
	PSRIN  uint32 = 1 << 9
	PSRIAT uint32 = 1 << 10
	PSRDAT uint32 = 1 << 11
	PSRFT  uint32 = 1 << 12
	PSRDS  uint32 = 1 << 13
	PSRDIM uint32 = 1 << 14
	PSRKNF uint32 = 1 << 15

	psrSCShift = 17
	psrSCMask  = 0x1F << psrSCShift
	psrPSShift = 22
	psrPSMask  = 0x3 << psrPSShift
	psrPMShift = 24
	psrPMMask  = 0xFF << psrPMShift

	// PSRTrapBits are the trap-cause bits cleared by bri.
	PSRTrapBits = PSRIT | PSRIN | PSRIAT | PSRDAT | PSRFT

	// psrSupervisorOnly are the bits user mode cannot change with st.c.
	psrSupervisorOnly uint32 = 0x0000FFF3
)

// EPSR bits.
const (
	EPSRIL  uint32 = 1 << 13
	EPSRWP  uint32 = 1 << 14
	EPSRPBM uint32 = 1 << 16
	EPSRINT uint32 = 1 << 17
	EPSRBE  uint32 = 1 << 23
	EPSROF  uint32 = 1 << 24

	epsrReadOnly     uint32 = 0x003E1FFF // type, stepping, DCS
	epsrSupervisorRW uint32 = 0x00C06000
)

// DIRBASE bits.
const (
	DirbaseATE uint32 = 1 << 0
	DirbaseITI uint32 = 1 << 5
	DirbaseCS8 uint32 = 1 << 7

	dirbaseDTBMask uint32 = 0xFFFFF000
)

// FSR bits.
const (
	FSRFTE uint32 = 1 << 5
	FSRSE  uint32 = 1 << 8
	FSRLRP uint32 = 1 << 26
	FSRIRP uint32 = 1 << 27
	FSRMRP uint32 = 1 << 28
	FSRARP uint32 = 1 << 29

	fsrWritable uint32 = 0x003E01EF
)

func (r *RegFile) setBit(cr int, mask uint32, on bool) {
	if on {
		r.CR[cr] |= mask
	} else {
		r.CR[cr] &^= mask
	}
}

// PSRBit reports whether the given PSR bit is set.
func (r *RegFile) PSRBit(mask uint32) bool { return r.CR[CRegPSR]&mask != 0 }

// SetPSRBit sets or clears a PSR bit.
func (r *RegFile) SetPSRBit(mask uint32, on bool) { r.setBit(CRegPSR, mask, on) }

// EPSRBit reports whether the given EPSR bit is set.
func (r *RegFile) EPSRBit(mask uint32) bool { return r.CR[CRegEPSR]&mask != 0 }

// SetEPSRBit sets or clears an EPSR bit.
func (r *RegFile) SetEPSRBit(mask uint32, on bool) { r.setBit(CRegEPSR, mask, on) }

// FSRBit reports whether the given FSR bit is set.
func (r *RegFile) FSRBit(mask uint32) bool { return r.CR[CRegFSR]&mask != 0 }

// SetFSRBit sets or clears an FSR bit.
func (r *RegFile) SetFSRBit(mask uint32, on bool) { r.setBit(CRegFSR, mask, on) }

// CC returns the condition code.
func (r *RegFile) CC() bool { return r.PSRBit(PSRCC) }

// SetCC sets the condition code.
func (r *RegFile) SetCC(on bool) { r.SetPSRBit(PSRCC, on) }

// OF returns the integer overflow flag held in EPSR.
func (r *RegFile) OF() bool { return r.EPSRBit(EPSROF) }

// SetOF sets the integer overflow flag.
func (r *RegFile) SetOF(on bool) { r.SetEPSRBit(EPSROF, on) }

// UserMode reports whether PSR.U is set.
func (r *RegFile) UserMode() bool { return r.PSRBit(PSRU) }

// SC returns the shift count field.
func (r *RegFile) SC() uint32 { return (r.CR[CRegPSR] & psrSCMask) >> psrSCShift }

// SetSC sets the shift count field from the low five bits of v.
func (r *RegFile) SetSC(v uint32) {
	r.CR[CRegPSR] = r.CR[CRegPSR]&^psrSCMask | (v&0x1F)<<psrSCShift
}

// PS returns the pixel size field: 0, 1 and 2 select 8, 16 and 32 bits.
func (r *RegFile) PS() uint32 { return (r.CR[CRegPSR] & psrPSMask) >> psrPSShift }

// SetPS sets the pixel size field.
func (r *RegFile) SetPS(v uint32) {
	r.CR[CRegPSR] = r.CR[CRegPSR]&^psrPSMask | (v&0x3)<<psrPSShift
}

// PM returns the pixel mask field.
func (r *RegFile) PM() uint32 { return (r.CR[CRegPSR] & psrPMMask) >> psrPMShift }

// SetPM sets the pixel mask field.
func (r *RegFile) SetPM(v uint32) {
	r.CR[CRegPSR] = r.CR[CRegPSR]&^psrPMMask | (v&0xFF)<<psrPMShift
}

// ATE reports whether address translation is enabled.
func (r *RegFile) ATE() bool { return r.CR[CRegDIRBASE]&DirbaseATE != 0 }

// CS8 reports whether instruction fetch is in 8-bit code-size mode.
func (r *RegFile) CS8() bool { return r.CR[CRegDIRBASE]&DirbaseCS8 != 0 }

// BigEndian reports whether data accesses use big-endian byte order.
func (r *RegFile) BigEndian() bool { return r.EPSRBit(EPSRBE) }
