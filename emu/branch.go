package emu

import "github.com/sarchlab/i860sim/insts"

// branchTarget is PC + 4 + the sign-extended displacement.
func (e *Emulator) branchTarget(inst *insts.Instruction) uint32 {
	return e.regFile.PC + 4 + uint32(inst.BranchOffset)
}

// jump redirects the program counter and suppresses the sequential
// advance.
func (e *Emulator) jump(pc uint32) {
	e.regFile.PC = pc
	e.pcUpdated = true
}

// execDelaySlot runs the instruction after the branch at branchPC with PC
// pointing at it, then restores PC. It returns false when the slot
// trapped or halted the core, in which case the branch must not commit.
func (e *Emulator) execDelaySlot(branchPC uint32) bool {
	slotPC := branchPC + 4

	if word, ok := e.memory.Fetch(slotPC); ok {
		e.inDelaySlot = true
		e.regFile.PC = slotPC
		e.dispatch(word)
		e.regFile.PC = branchPC
		e.inDelaySlot = false
	}

	if e.traps.pending != 0 {
		e.traps.raise(TrapInDelaySlot)
		return false
	}
	return !e.halted
}

func (e *Emulator) execBte(inst *insts.Instruction) {
	e.compareBranch(inst, true)
}

func (e *Emulator) execBtne(inst *insts.Instruction) {
	e.compareBranch(inst, false)
}

// compareBranch implements bte and btne. The immediate forms compare the
// zero-extended 5-bit src1 field.
func (e *Emulator) compareBranch(inst *insts.Instruction, equal bool) {
	src1 := uint32(inst.Src1)
	if inst.Op == insts.OpBTE || inst.Op == insts.OpBTNE {
		src1 = e.regFile.ReadReg(inst.Src1)
	}
	if (src1 == e.regFile.ReadReg(inst.Src2)) == equal {
		e.jump(e.branchTarget(inst))
	}
}

// execBc implements bc and bnc, which have no delay slot.
func (e *Emulator) execBc(inst *insts.Instruction) {
	want := inst.Op == insts.OpBC
	if e.regFile.CC() == want {
		e.jump(e.branchTarget(inst))
	}
}

// execBct implements bc.t and bnc.t. The delay slot executes only when
// the branch is taken; otherwise it is skipped.
func (e *Emulator) execBct(inst *insts.Instruction) {
	pc := e.regFile.PC
	want := inst.Op == insts.OpBCT
	if e.regFile.CC() != want {
		e.jump(pc + 8)
		return
	}

	target := e.branchTarget(inst)
	if e.execDelaySlot(pc) {
		e.jump(target)
	}
}

func (e *Emulator) execBr(inst *insts.Instruction) {
	target := e.branchTarget(inst)
	if e.execDelaySlot(e.regFile.PC) {
		e.jump(target)
	}
}

// execCall implements call. r1 receives the return address only once the
// delay slot has completed.
func (e *Emulator) execCall(inst *insts.Instruction) {
	pc := e.regFile.PC
	target := e.branchTarget(inst)
	if e.execDelaySlot(pc) {
		e.regFile.WriteReg(1, pc+8)
		e.jump(target)
	}
}

// execCalli implements calli. The target is read before the delay slot
// so the slot may reuse the register.
func (e *Emulator) execCalli(inst *insts.Instruction) {
	pc := e.regFile.PC
	target := e.regFile.ReadReg(inst.Src1)
	if e.execDelaySlot(pc) {
		e.regFile.WriteReg(1, pc+8)
		e.jump(target)
	}
}

// execBri implements bri, which doubles as the return from a trap
// handler: when any trap bit was set on entry, U and IM are restored from
// PU and PIM.
func (e *Emulator) execBri(inst *insts.Instruction) {
	pc := e.regFile.PC
	psr := e.regFile.CR[CRegPSR]
	target := e.regFile.ReadReg(inst.Src1)

	e.regFile.CR[CRegPSR] &^= PSRTrapBits
	if !e.execDelaySlot(pc) {
		return
	}

	if psr&PSRTrapBits != 0 {
		e.regFile.SetPSRBit(PSRU, psr&PSRPU != 0)
		e.regFile.SetPSRBit(PSRIM, psr&PSRPIM != 0)
		e.firGetsTrapAddr = false
	}
	e.jump(target)
}

// execBla implements bla, the loop-closing branch. isrc2 is incremented
// by isrc1 before the delay slot; the branch is taken on the LCC left by
// the previous bla.
func (e *Emulator) execBla(inst *insts.Instruction) {
	if inst.Src1 == inst.Src2 {
		e.log.WithFields(e.instFields(inst)).Warn("bla with isrc1 = isrc2 (ignored)")
		return
	}

	pc := e.regFile.PC
	target := e.branchTarget(inst)
	src1 := e.regFile.ReadReg(inst.Src1)
	src2 := e.regFile.ReadReg(inst.Src2)
	lcc := int32(src2) >= -int32(src1)

	e.regFile.WriteReg(inst.Src2, src1+src2)
	if !e.execDelaySlot(pc) {
		return
	}

	if e.regFile.PSRBit(PSRLCC) {
		e.jump(target)
	} else {
		e.jump(pc + 8)
	}
	e.regFile.SetPSRBit(PSRLCC, lcc)
}
