// Package insts provides i860 instruction definitions and decoding.
package insts

// Op represents an i860 operation.
type Op uint8

// i860 core operations.
const (
	OpUnknown Op = iota
	OpLD         // ld.b / ld.s / ld.l
	OpIXFR       // ixfr
	OpST         // st.b / st.s / st.l
	OpFLD        // fld.l / fld.d / fld.q
	OpFST        // fst.l / fst.d / fst.q
	OpPFLD       // pfld.l / pfld.d
	OpLDC        // ld.c
	OpFLUSH      // flush
	OpSTC        // st.c
	OpPSTD       // pst.d
	OpBRI        // bri
	OpTRAP       // trap
	OpBTNE       // btne isrc1
	OpBTNEI      // btne #const
	OpBTE        // bte isrc1
	OpBTEI       // bte #const
	OpBR         // br
	OpCALL       // call
	OpBC         // bc
	OpBCT        // bc.t
	OpBNC        // bnc
	OpBNCT       // bnc.t
	OpADDU
	OpADDUI
	OpSUBU
	OpSUBUI
	OpADDS
	OpADDSI
	OpSUBS
	OpSUBSI
	OpSHL
	OpSHLI
	OpSHR
	OpSHRI
	OpSHRD
	OpBLA
	OpSHRA
	OpSHRAI
	OpAND
	OpANDI
	OpANDH
	OpANDNOT
	OpANDNOTI
	OpANDNOTH
	OpOR
	OpORI
	OpORH
	OpXOR
	OpXORI
	OpXORH
	OpCALLI // calli (core escape)

	// Floating-point escape operations.
	OpPFAM  // pfam/pfsm family, P bit set
	OpPFMAM // pfmam/pfmsm family, P bit clear
	OpFMUL
	OpFMLOW
	OpFRCP
	OpFRSQR
	OpPFMUL3
	OpFADD
	OpFSUB
	OpFAMOV
	OpPFGT
	OpPFLE
	OpPFEQ
	OpFTRUNC
	OpFXFR
	OpFIADD
	OpFISUB
	OpFADDP
	OpFADDZ
	OpFZCHKL
	OpFORM
	OpFZCHKS

	// NumOps is the number of defined operations, usable as a table size.
	NumOps
)

// Primary opcode values that need a second level of decoding.
const (
	PrimaryFPEscape   = 0x12
	PrimaryCoreEscape = 0x13
)

// Floating-point instruction bits.
const (
	FPPipelined = 1 << 10 // P
	FPDualInst  = 1 << 9  // D
	FPSrcDouble = 1 << 8  // S
	FPResDouble = 1 << 7  // R
)

// Instruction represents a decoded i860 instruction.
type Instruction struct {
	Op   Op     // Operation
	Word uint32 // Raw instruction word

	// Register fields. Integer and floating-point forms share positions.
	Src1 uint8 // bits [15:11]
	Src2 uint8 // bits [25:21]
	Dest uint8 // bits [20:16]
	CReg uint8 // control register for ld.c/st.c, bits [23:21]

	// Immediates
	Imm16    uint32 // bits [15:0], zero extended
	SImm16   int32  // bits [15:0], sign extended
	SplitImm int32  // bits [20:16]:[10:0], sign extended (st.x, bte, btne, bla)

	// BranchOffset is the signed byte displacement from PC+4.
	BranchOffset int32

	// Memory access fields
	Size     uint32 // access size in bytes
	DispForm bool   // #const(isrc2) addressing, otherwise isrc1(isrc2)
	AutoInc  bool   // isrc2 receives the effective address

	// Floating-point fields
	Pipelined bool
	DualInst  bool
	SrcDouble bool
	ResDouble bool
	Sub       bool  // subtract variant of the dual-operation family
	DPC       uint8 // data path control of the dual-operation family
}

// Decoder decodes i860 machine code into instructions.
type Decoder struct {
	primary    [64]Op
	fpEscape   [128]Op
	coreEscape [8]Op
}

// NewDecoder creates a new i860 instruction decoder.
func NewDecoder() *Decoder {
	d := &Decoder{
		primary:    primaryTable,
		fpEscape:   fpEscapeTable,
		coreEscape: coreEscapeTable,
	}
	return d
}

var primaryTable = [64]Op{
	0x00: OpLD, 0x01: OpLD, 0x02: OpIXFR, 0x03: OpST,
	0x04: OpLD, 0x05: OpLD, 0x07: OpST,
	0x08: OpFLD, 0x09: OpFLD, 0x0A: OpFST, 0x0B: OpFST,
	0x0C: OpLDC, 0x0D: OpFLUSH, 0x0E: OpSTC, 0x0F: OpPSTD,
	0x10: OpBRI, 0x11: OpTRAP,
	0x14: OpBTNE, 0x15: OpBTNEI, 0x16: OpBTE, 0x17: OpBTEI,
	0x18: OpPFLD, 0x19: OpPFLD,
	0x1A: OpBR, 0x1B: OpCALL, 0x1C: OpBC, 0x1D: OpBCT, 0x1E: OpBNC, 0x1F: OpBNCT,
	0x20: OpADDU, 0x21: OpADDUI, 0x22: OpSUBU, 0x23: OpSUBUI,
	0x24: OpADDS, 0x25: OpADDSI, 0x26: OpSUBS, 0x27: OpSUBSI,
	0x28: OpSHL, 0x29: OpSHLI, 0x2A: OpSHR, 0x2B: OpSHRI,
	0x2C: OpSHRD, 0x2D: OpBLA, 0x2E: OpSHRA, 0x2F: OpSHRAI,
	0x30: OpAND, 0x31: OpANDI, 0x33: OpANDH,
	0x34: OpANDNOT, 0x35: OpANDNOTI, 0x37: OpANDNOTH,
	0x38: OpOR, 0x39: OpORI, 0x3B: OpORH,
	0x3C: OpXOR, 0x3D: OpXORI, 0x3F: OpXORH,
}

// coreEscapeTable is indexed by the low two bits of the word, so only the
// first four slots are reachable. Lock (1) is not implemented.
var coreEscapeTable = [8]Op{
	2: OpCALLI,
}

var fpEscapeTable = func() [128]Op {
	var t [128]Op
	for i := 0x00; i <= 0x0F; i++ {
		t[i] = OpPFAM // refined by the P bit at decode time
		t[i|0x10] = OpPFAM
	}
	t[0x20] = OpFMUL
	t[0x21] = OpFMLOW
	t[0x22] = OpFRCP
	t[0x23] = OpFRSQR
	t[0x24] = OpPFMUL3
	t[0x30] = OpFADD
	t[0x31] = OpFSUB
	t[0x33] = OpFAMOV
	t[0x34] = OpPFGT // pfle when R is set
	t[0x35] = OpPFEQ
	t[0x3A] = OpFTRUNC
	t[0x40] = OpFXFR
	t[0x49] = OpFIADD
	t[0x4D] = OpFISUB
	t[0x50] = OpFADDP
	t[0x51] = OpFADDZ
	t[0x57] = OpFZCHKL
	t[0x5A] = OpFORM
	t[0x5F] = OpFZCHKS
	return t
}()

// Decode decodes a 32-bit i860 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Word: word}
	d.DecodeInto(word, inst)
	return inst
}

// DecodeInto decodes word into inst, overwriting every field.
func (d *Decoder) DecodeInto(word uint32, inst *Instruction) {
	*inst = Instruction{Op: OpUnknown, Word: word}

	inst.Src1 = uint8((word >> 11) & 0x1F)
	inst.Src2 = uint8((word >> 21) & 0x1F)
	inst.Dest = uint8((word >> 16) & 0x1F)
	inst.CReg = uint8((word >> 21) & 0x7)
	inst.Imm16 = word & 0xFFFF
	inst.SImm16 = SignExtend(word&0xFFFF, 16)
	inst.SplitImm = SignExtend(((word>>5)&0xF800)|(word&0x07FF), 16)

	primary := word >> 26
	switch primary {
	case PrimaryFPEscape:
		d.decodeFP(word, inst)
		return
	case PrimaryCoreEscape:
		inst.Op = d.coreEscape[word&0x3]
		return
	}

	inst.Op = d.primary[primary]
	switch inst.Op {
	case OpLD, OpST:
		inst.Size = intSizes[((word>>27)&2)|(word&1)]
		inst.DispForm = inst.Op == OpST || word&(1<<26) != 0
	case OpFLD, OpFST, OpPFLD:
		inst.Size = fpSizes[(word>>1)&3]
		inst.DispForm = word&(1<<26) != 0
		inst.AutoInc = word&1 != 0
		inst.Pipelined = inst.Op == OpPFLD
		if inst.Op == OpPFLD && inst.Size == 16 {
			inst.Op = OpUnknown
		}
	case OpPSTD:
		inst.Size = 8
		inst.DispForm = true
		inst.AutoInc = word&1 != 0
	case OpFLUSH:
		inst.Size = 16
		inst.DispForm = true
		inst.AutoInc = word&1 != 0
	case OpBTE, OpBTEI, OpBTNE, OpBTNEI, OpBLA:
		inst.BranchOffset = inst.SplitImm << 2
	case OpBR, OpCALL, OpBC, OpBCT, OpBNC, OpBNCT:
		inst.BranchOffset = SignExtend(word&0x03FFFFFF, 26) << 2
	}
}

var intSizes = [4]uint32{1, 1, 2, 4}
var fpSizes = [4]uint32{8, 4, 16, 4}

func (d *Decoder) decodeFP(word uint32, inst *Instruction) {
	inst.Pipelined = word&FPPipelined != 0
	inst.DualInst = word&FPDualInst != 0
	inst.SrcDouble = word&FPSrcDouble != 0
	inst.ResDouble = word&FPResDouble != 0

	op := d.fpEscape[word&0x7F]
	prec := word & (FPSrcDouble | FPResDouble)
	ds := prec == FPSrcDouble
	dd := prec == FPSrcDouble|FPResDouble

	switch op {
	case OpPFAM:
		inst.DPC = uint8(word & 0xF)
		inst.Sub = word&0x10 != 0
		if !inst.Pipelined {
			op = OpPFMAM
			// DPC 1111 would duplicate 1101 once flagged entries fold
			// back onto the multiplier.
			if inst.DPC == 0xF {
				op = OpUnknown
			}
		}
		if ds {
			op = OpUnknown
		}
	case OpFMUL, OpFADD, OpFSUB, OpFRCP, OpFRSQR:
		if ds {
			op = OpUnknown
		}
	case OpPFMUL3, OpFMLOW, OpFZCHKL, OpFZCHKS, OpFORM, OpFADDP, OpFADDZ:
		if !dd {
			op = OpUnknown
		}
	case OpFTRUNC:
		if !inst.ResDouble {
			op = OpUnknown
		}
	case OpFIADD, OpFISUB:
		if prec != 0 && !dd {
			op = OpUnknown
		}
	case OpPFGT:
		if inst.ResDouble {
			op = OpPFLE
		}
	}
	inst.Op = op
}

// SignExtend sign-extends the low n bits of x.
func SignExtend(x uint32, n uint) int32 {
	shift := 32 - n
	return int32(x<<shift) >> shift
}

// HasDelaySlot reports whether the instruction word is a delayed control
// transfer whose following instruction executes before the branch commits.
func HasDelaySlot(word uint32) bool {
	switch word >> 26 {
	case 0x10, 0x1A, 0x1B, 0x1D, 0x1F, 0x2D:
		return true
	case PrimaryCoreEscape:
		return word&0x3 == 2
	}
	return false
}

// IsControlTransfer reports whether op redirects the program counter.
func IsControlTransfer(op Op) bool {
	switch op {
	case OpBRI, OpBTNE, OpBTNEI, OpBTE, OpBTEI, OpBR, OpCALL,
		OpBC, OpBCT, OpBNC, OpBNCT, OpBLA, OpCALLI:
		return true
	}
	return false
}
