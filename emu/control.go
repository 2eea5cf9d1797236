package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/insts"
)

func (e *Emulator) validCReg(inst *insts.Instruction) bool {
	if int(inst.CReg) < NumCRegs {
		return true
	}
	e.log.WithFields(e.instFields(inst)).
		WithField("creg", inst.CReg).
		Warn("control register out of range (ignored)")
	return false
}

// execLdC executes ld.c. Reading FIR right after a trap returns the
// trapping address once; later reads return the current PC.
func (e *Emulator) execLdC(inst *insts.Instruction) {
	if !e.validCReg(inst) {
		return
	}

	cr := int(inst.CReg)
	if cr == CRegFIR {
		if !e.firGetsTrapAddr {
			e.regFile.CR[CRegFIR] = e.regFile.PC
		}
		e.regFile.WriteReg(inst.Dest, e.regFile.CR[CRegFIR])
		e.firGetsTrapAddr = false
		return
	}
	e.regFile.WriteReg(inst.Dest, e.regFile.CR[cr])
}

// execStC executes st.c with the per-register write masks.
func (e *Emulator) execStC(inst *insts.Instruction) {
	if !e.validCReg(inst) {
		return
	}

	v := e.regFile.ReadReg(inst.Src1)
	rf := e.regFile
	user := rf.UserMode()

	switch int(inst.CReg) {
	case CRegFIR:
		// read-only
	case CRegPSR:
		if user {
			v = rf.CR[CRegPSR]&psrSupervisorOnly | v&^psrSupervisorOnly
		}
		rf.CR[CRegPSR] = v
	case CRegDIRBASE:
		if v&DirbaseITI != 0 && e.mmu.TLB() != nil {
			e.mmu.TLB().Invalidate()
		}
		e.writeDirbase(v &^ DirbaseITI)
	case CRegDB:
		rf.CR[CRegDB] = v
	case CRegFSR:
		rf.CR[CRegFSR] = rf.CR[CRegFSR]&^fsrWritable | v&fsrWritable
	case CRegEPSR:
		keep := epsrReadOnly
		if user {
			keep |= epsrSupervisorRW
		}
		rf.CR[CRegEPSR] = rf.CR[CRegEPSR]&keep | v&^keep
	}
}

func (e *Emulator) writeDirbase(v uint32) {
	old := e.regFile.CR[CRegDIRBASE]
	e.regFile.CR[CRegDIRBASE] = v

	if old&DirbaseCS8 != 0 && v&DirbaseCS8 == 0 {
		e.log.WithField("pc", hex(e.regFile.PC)).Info("leaving CS8 mode")
	}
	if old&DirbaseATE == 0 && v&DirbaseATE != 0 {
		e.log.WithFields(logrus.Fields{
			"pc":  hex(e.regFile.PC),
			"dtb": hex(v & dirbaseDTBMask),
		}).Info("address translation enabled")
	}
}

// execTrap executes trap: the host debugger is offered control, then an
// instruction trap is raised.
func (e *Emulator) execTrap(inst *insts.Instruction) {
	e.host.Breakpoint(BreakDebugger, "software trap")
	e.regFile.SetPSRBit(PSRIT, true)
	e.traps.raise(TrapNormal)
}
