package emu

import "github.com/sarchlab/i860sim/insts"

type handlerFunc func(e *Emulator, inst *insts.Instruction)

// handlers is indexed by insts.Op. A nil entry is an unrecognized opcode.
var handlers [insts.NumOps]handlerFunc

func init() {
	handlers = [insts.NumOps]handlerFunc{
		// Memory
		insts.OpLD:    func(e *Emulator, i *insts.Instruction) { e.lsu.Ld(i) },
		insts.OpST:    func(e *Emulator, i *insts.Instruction) { e.lsu.St(i) },
		insts.OpFLD:   func(e *Emulator, i *insts.Instruction) { e.lsu.Fld(i) },
		insts.OpFST:   func(e *Emulator, i *insts.Instruction) { e.lsu.Fst(i) },
		insts.OpPFLD:  func(e *Emulator, i *insts.Instruction) { e.lsu.Pfld(i) },
		insts.OpPSTD:  func(e *Emulator, i *insts.Instruction) { e.lsu.Pstd(i) },
		insts.OpFLUSH: func(e *Emulator, i *insts.Instruction) { e.lsu.Flush(i) },
		insts.OpIXFR:  func(e *Emulator, i *insts.Instruction) { e.fpu.Ixfr(i) },

		// Control registers and traps
		insts.OpLDC:  (*Emulator).execLdC,
		insts.OpSTC:  (*Emulator).execStC,
		insts.OpTRAP: (*Emulator).execTrap,

		// Control flow
		insts.OpBRI:   (*Emulator).execBri,
		insts.OpBTE:   (*Emulator).execBte,
		insts.OpBTEI:  (*Emulator).execBte,
		insts.OpBTNE:  (*Emulator).execBtne,
		insts.OpBTNEI: (*Emulator).execBtne,
		insts.OpBR:    (*Emulator).execBr,
		insts.OpCALL:  (*Emulator).execCall,
		insts.OpCALLI: (*Emulator).execCalli,
		insts.OpBC:    (*Emulator).execBc,
		insts.OpBNC:   (*Emulator).execBc,
		insts.OpBCT:   (*Emulator).execBct,
		insts.OpBNCT:  (*Emulator).execBct,
		insts.OpBLA:   (*Emulator).execBla,

		// Integer arithmetic. Arithmetic and shift immediates are sign
		// extended, logical immediates zero extended.
		insts.OpADDU:  regForm((*ALU).Addu),
		insts.OpADDUI: signedImmForm((*ALU).Addu),
		insts.OpSUBU:  regForm((*ALU).Subu),
		insts.OpSUBUI: signedImmForm((*ALU).Subu),
		insts.OpADDS:  regForm((*ALU).Adds),
		insts.OpADDSI: signedImmForm((*ALU).Adds),
		insts.OpSUBS:  regForm((*ALU).Subs),
		insts.OpSUBSI: signedImmForm((*ALU).Subs),
		insts.OpSHL:   regForm((*ALU).Shl),
		insts.OpSHLI:  signedImmForm((*ALU).Shl),
		insts.OpSHR:   regForm((*ALU).Shr),
		insts.OpSHRI:  signedImmForm((*ALU).Shr),
		insts.OpSHRA:  regForm((*ALU).Shra),
		insts.OpSHRAI: signedImmForm((*ALU).Shra),
		insts.OpSHRD:  regForm((*ALU).Shrd),

		insts.OpAND:     regForm((*ALU).And),
		insts.OpANDI:    immForm((*ALU).And, 0),
		insts.OpANDH:    immForm((*ALU).And, 16),
		insts.OpANDNOT:  regForm((*ALU).Andnot),
		insts.OpANDNOTI: immForm((*ALU).Andnot, 0),
		insts.OpANDNOTH: immForm((*ALU).Andnot, 16),
		insts.OpOR:      regForm((*ALU).Or),
		insts.OpORI:     immForm((*ALU).Or, 0),
		insts.OpORH:     immForm((*ALU).Or, 16),
		insts.OpXOR:     regForm((*ALU).Xor),
		insts.OpXORI:    immForm((*ALU).Xor, 0),
		insts.OpXORH:    immForm((*ALU).Xor, 16),

		// Floating point
		insts.OpPFAM:   fp((*FPU).DualOp),
		insts.OpPFMAM:  fp((*FPU).DualOp),
		insts.OpFMUL:   fp((*FPU).Fmul),
		insts.OpPFMUL3: fp((*FPU).Fmul),
		insts.OpFMLOW:  fp((*FPU).Fmlow),
		insts.OpFRCP:   fp((*FPU).Frcp),
		insts.OpFRSQR:  fp((*FPU).Frsqr),
		insts.OpFADD:   fp((*FPU).Fadd),
		insts.OpFSUB:   fp((*FPU).Fadd),
		insts.OpFAMOV:  fp((*FPU).Famov),
		insts.OpPFGT:   fp((*FPU).Fcmp),
		insts.OpPFLE:   fp((*FPU).Fcmp),
		insts.OpPFEQ:   fp((*FPU).Fcmp),
		insts.OpFTRUNC: fp((*FPU).Ftrunc),
		insts.OpFXFR:   fp((*FPU).Fxfr),
		insts.OpFIADD:  fp((*FPU).Fiadd),
		insts.OpFISUB:  fp((*FPU).Fiadd),
		insts.OpFADDP:  fp((*FPU).Faddp),
		insts.OpFADDZ:  fp((*FPU).Faddz),
		insts.OpFZCHKL: fp((*FPU).Fzchk),
		insts.OpFZCHKS: fp((*FPU).Fzchk),
		insts.OpFORM:   fp((*FPU).Form),
	}
}

type aluOp func(a *ALU, dest uint8, src1, src2 uint32)

func regForm(op aluOp) handlerFunc {
	return func(e *Emulator, i *insts.Instruction) {
		op(e.alu, i.Dest, e.regFile.ReadReg(i.Src1), e.regFile.ReadReg(i.Src2))
	}
}

func signedImmForm(op aluOp) handlerFunc {
	return func(e *Emulator, i *insts.Instruction) {
		op(e.alu, i.Dest, uint32(i.SImm16), e.regFile.ReadReg(i.Src2))
	}
}

func immForm(op aluOp, shift uint) handlerFunc {
	return func(e *Emulator, i *insts.Instruction) {
		op(e.alu, i.Dest, i.Imm16<<shift, e.regFile.ReadReg(i.Src2))
	}
}

func fp(op func(f *FPU, inst *insts.Instruction)) handlerFunc {
	return func(e *Emulator, i *insts.Instruction) {
		op(e.fpu, i)
	}
}
