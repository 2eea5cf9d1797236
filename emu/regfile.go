// Package emu provides functional i860XR emulation.
package emu

import "math"

// Control register indices as encoded in ld.c/st.c.
const (
	CRegFIR     = 0
	CRegPSR     = 1
	CRegDIRBASE = 2
	CRegDB      = 3
	CRegFSR     = 4
	CRegEPSR    = 5

	NumCRegs = 6
)

// RegFile represents the i860 register file.
// It contains 32 integer registers, 32 floating-point registers,
// the control registers and the program counter.
type RegFile struct {
	// R holds the integer registers. R[0] always reads as 0.
	R [32]uint32

	// F holds the floating-point registers as raw words. A double in
	// register pair (n, n+1) keeps its low word in the even register.
	// F[0] and F[1] always read as 0.
	F [32]uint32

	// CR holds the control registers, indexed by the CReg constants.
	CR [NumCRegs]uint32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads an integer register.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes an integer register. Writes to r0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
}

// ReadFS reads the bit pattern of a single-precision register.
func (r *RegFile) ReadFS(reg uint8) uint32 {
	return r.F[reg&0x1F]
}

// WriteFS writes the bit pattern of a single-precision register.
// Writes to f0 and f1 are dropped.
func (r *RegFile) WriteFS(reg uint8, bits uint32) {
	reg &= 0x1F
	if reg < 2 {
		return
	}
	r.F[reg] = bits
}

// ReadFD reads the bit pattern of a double-precision register pair. The
// low bit of the register number is ignored.
func (r *RegFile) ReadFD(reg uint8) uint64 {
	reg &= 0x1E
	return uint64(r.F[reg]) | uint64(r.F[reg+1])<<32
}

// WriteFD writes the bit pattern of a double-precision register pair.
// Writes to the f0/f1 pair are dropped.
func (r *RegFile) WriteFD(reg uint8, bits uint64) {
	reg &= 0x1E
	if reg == 0 {
		return
	}
	r.F[reg] = uint32(bits)
	r.F[reg+1] = uint32(bits >> 32)
}

// ReadFloat32 reads a single-precision register as a float.
func (r *RegFile) ReadFloat32(reg uint8) float32 {
	return math.Float32frombits(r.ReadFS(reg))
}

// WriteFloat32 writes a float to a single-precision register.
func (r *RegFile) WriteFloat32(reg uint8, v float32) {
	r.WriteFS(reg, math.Float32bits(v))
}

// ReadFloat64 reads a double-precision register pair as a float.
func (r *RegFile) ReadFloat64(reg uint8) float64 {
	return math.Float64frombits(r.ReadFD(reg))
}

// WriteFloat64 writes a float to a double-precision register pair.
func (r *RegFile) WriteFloat64(reg uint8, v float64) {
	r.WriteFD(reg, math.Float64bits(v))
}
