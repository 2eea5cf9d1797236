package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/emu"
	"github.com/sarchlab/i860sim/insts"
)

func ldc(creg, dest uint32) uint32 { return insts.EncodeReg(0x0C, 0, creg, dest) }
func stc(src1, creg uint32) uint32 { return insts.EncodeReg(0x0E, src1, creg, 0) }

var _ = Describe("Control registers", func() {
	var (
		r  *rig
		rf *emu.RegFile
	)

	BeforeEach(func() {
		r = newRig()
		rf = r.rf
		rf.WriteReg(1, 0xFFFFFFFF)
	})

	Describe("ld.c", func() {
		It("should copy a control register into an integer register", func() {
			rf.CR[emu.CRegPSR] = 0x00400014

			r.e.Execute(ldc(emu.CRegPSR, 4))

			Expect(rf.ReadReg(4)).To(Equal(uint32(0x00400014)))
		})

		It("should return the trap address from FIR once", func() {
			r.load(codeBase, 0x11<<26)
			r.e.Step()

			r.e.Execute(ldc(emu.CRegFIR, 4))
			Expect(rf.ReadReg(4)).To(Equal(codeBase))

			r.e.Execute(ldc(emu.CRegFIR, 4))
			Expect(rf.ReadReg(4)).To(Equal(emu.TrapVector + 4))
		})

		It("should ignore control registers past EPSR", func() {
			r.e.Execute(ldc(6, 4))

			Expect(rf.ReadReg(4)).To(Equal(uint32(0x55AA5504)))
			Expect(r.logged(logrus.WarnLevel, "control register out of range (ignored)")).To(BeTrue())
		})
	})

	Describe("st.c", func() {
		It("should not write FIR", func() {
			r.e.Execute(stc(1, emu.CRegFIR))
			Expect(rf.CR[emu.CRegFIR]).To(Equal(uint32(0x55AA5500)))
		})

		It("should protect the low PSR bits in user mode", func() {
			rf.CR[emu.CRegPSR] = emu.PSRU
			rf.WriteReg(2, 0xFF000004)

			r.e.Execute(stc(2, emu.CRegPSR))

			Expect(rf.CR[emu.CRegPSR]).To(Equal(uint32(0xFF000044)))
		})

		It("should write all of PSR in supervisor mode", func() {
			rf.WriteReg(2, 0x000000C4)
			r.e.Execute(stc(2, emu.CRegPSR))
			Expect(rf.CR[emu.CRegPSR]).To(Equal(uint32(0x000000C4)))
		})

		It("should only change the writable FSR bits", func() {
			r.e.Execute(stc(1, emu.CRegFSR))
			Expect(rf.CR[emu.CRegFSR]).To(Equal(uint32(0x55BE55EF)))
		})

		It("should keep the EPSR processor fields in supervisor mode", func() {
			r.e.Execute(stc(1, emu.CRegEPSR))
			Expect(rf.CR[emu.CRegEPSR]).To(Equal(uint32(0xFFC5E701)))
		})

		It("should also keep the supervisor EPSR bits in user mode", func() {
			rf.SetPSRBit(emu.PSRU, true)
			r.e.Execute(stc(1, emu.CRegEPSR))
			Expect(rf.CR[emu.CRegEPSR]).To(Equal(uint32(0xFF058701)))
		})

		It("should strip ITI and log mode changes on DIRBASE", func() {
			rf.WriteReg(2, 0x00100000|emu.DirbaseITI|emu.DirbaseATE)

			r.e.Execute(stc(2, emu.CRegDIRBASE))

			Expect(rf.CR[emu.CRegDIRBASE]).To(Equal(uint32(0x00100000 | emu.DirbaseATE)))
			Expect(r.logged(logrus.InfoLevel, "leaving CS8 mode")).To(BeTrue())
			Expect(r.logged(logrus.InfoLevel, "address translation enabled")).To(BeTrue())
		})

		It("should write DB", func() {
			rf.WriteReg(2, 0x2000)
			r.e.Execute(stc(2, emu.CRegDB))
			Expect(rf.CR[emu.CRegDB]).To(Equal(uint32(0x2000)))
		})
	})
})

var _ = Describe("Emulator", func() {
	var (
		r  *rig
		rf *emu.RegFile
	)

	BeforeEach(func() {
		r = newRig()
		rf = r.rf
	})

	Describe("Reset", func() {
		It("should restore the power-on state", func() {
			rf.WriteReg(5, 1)
			rf.WriteFS(4, 1)
			rf.CR[emu.CRegPSR] = 0xFFFF
			r.e.Execute(insts.Nop)

			r.e.Reset()

			Expect(rf.PC).To(Equal(emu.ResetPC))
			Expect(rf.ReadReg(0)).To(BeZero())
			Expect(rf.ReadReg(5)).To(Equal(uint32(0x55AA5505)))
			Expect(rf.ReadReg(31)).To(Equal(uint32(0x55AA551F)))
			Expect(rf.ReadFS(4)).To(BeZero())
			Expect(rf.CR[emu.CRegPSR]).To(BeZero())
			Expect(rf.CR[emu.CRegEPSR]).To(Equal(uint32(0x00040701)))
			Expect(rf.CR[emu.CRegDIRBASE]).To(Equal(emu.DirbaseCS8))
			Expect(rf.CR[emu.CRegFIR]).To(Equal(uint32(0x55AA5500)))
			Expect(rf.CR[emu.CRegFSR]).To(Equal(uint32(0x55AA5500)))
			Expect(rf.CR[emu.CRegDB]).To(BeZero())
			Expect(r.e.FPU().Merge).To(Equal(uint64(0x55AA5500)))
			Expect(r.e.InstructionCount()).To(BeZero())
			Expect(r.e.Halted()).To(BeFalse())
		})
	})

	Describe("external interrupts", func() {
		BeforeEach(func() {
			r.load(codeBase, insts.EncodeImm(0x39, 0, 5, 7))
		})

		It("should be taken before the next instruction when enabled", func() {
			rf.SetPSRBit(emu.PSRIM, true)

			r.e.RaiseExternalInterrupt()
			Expect(rf.EPSRBit(emu.EPSRINT)).To(BeTrue())
			Expect(rf.PSRBit(emu.PSRIN)).To(BeTrue())

			result := r.e.Step()

			Expect(result.Trapped).To(BeTrue())
			Expect(rf.PC).To(Equal(emu.TrapVector))
			Expect(rf.CR[emu.CRegFIR]).To(Equal(codeBase))
			Expect(rf.PSRBit(emu.PSRPIM)).To(BeTrue())
			Expect(rf.PSRBit(emu.PSRIM)).To(BeFalse())
			Expect(rf.ReadReg(5)).NotTo(Equal(uint32(7)))
		})

		It("should only be recorded in EPSR when masked", func() {
			r.e.RaiseExternalInterrupt()

			result := r.e.Step()

			Expect(result.Trapped).To(BeFalse())
			Expect(rf.PSRBit(emu.PSRIN)).To(BeFalse())
			Expect(rf.EPSRBit(emu.EPSRINT)).To(BeTrue())
			Expect(rf.ReadReg(5)).To(Equal(uint32(7)))
		})

		It("should drop an interrupt cleared before it was taken", func() {
			rf.SetPSRBit(emu.PSRIM, true)
			r.e.RaiseExternalInterrupt()

			r.e.ClearInterrupt()
			result := r.e.Step()

			Expect(result.Trapped).To(BeFalse())
			Expect(rf.PSRBit(emu.PSRIN)).To(BeFalse())
			Expect(rf.EPSRBit(emu.EPSRINT)).To(BeFalse())
			Expect(rf.PC).To(Equal(codeBase + 4))
		})
	})

	Describe("unrecognized opcodes", func() {
		It("should halt the core and notify the host", func() {
			r.load(codeBase, insts.EncodeCoreEscape(1, 0, 0, 0))

			result := r.e.Step()

			Expect(result.Halted).To(BeTrue())
			Expect(result.Err).To(MatchError(emu.ErrUnrecognizedOpcode))
			Expect(r.host.halts).To(HaveLen(1))
			Expect(r.logged(logrus.ErrorLevel, "unrecognized opcode")).To(BeTrue())
			Expect(rf.PC).To(Equal(codeBase))

			result = r.e.Step()
			Expect(result.Err).To(MatchError(emu.ErrHalted))
			Expect(r.host.halts).To(HaveLen(1))
		})

		It("should treat core escape sub-opcode 4 as unrecognized", func() {
			rf.SetOF(true)
			r.load(codeBase, insts.EncodeCoreEscape(4, 0, 0, 0))

			result := r.e.Step()

			Expect(result.Trapped).To(BeFalse())
			Expect(result.Err).To(MatchError(emu.ErrUnrecognizedOpcode))
		})

		It("should stop Run with the halt reason", func() {
			r.load(codeBase, insts.Nop, insts.Nop, insts.EncodeCoreEscape(7, 0, 0, 0))

			err := r.e.Run()

			Expect(err).To(MatchError(emu.ErrUnrecognizedOpcode))
			Expect(r.e.InstructionCount()).To(Equal(uint64(3)))
		})
	})

	Describe("instruction limit", func() {
		It("should stop Run once the limit is reached", func() {
			r = newRig(emu.WithMaxInstructions(2))
			r.load(codeBase, insts.Nop, insts.Nop, insts.Nop)

			err := r.e.Run()

			Expect(err).To(MatchError(emu.ErrMaxInstructions))
			Expect(r.e.InstructionCount()).To(Equal(uint64(2)))
			Expect(r.rf.PC).To(Equal(codeBase + 8))
		})
	})

	Describe("dual-instruction mode counter", func() {
		It("should count D-bit instructions up to two and back down", func() {
			dual := insts.EncodeFP(0x30, 0, 0, 0, insts.FPDualInst)
			single := insts.EncodeFP(0x30, 0, 0, 0, 0)

			r.e.Execute(dual)
			Expect(r.e.DualInstructionMode()).To(Equal(1))
			r.e.Execute(dual)
			r.e.Execute(dual)
			Expect(r.e.DualInstructionMode()).To(Equal(2))

			r.e.Execute(single)
			Expect(r.e.DualInstructionMode()).To(Equal(1))
			r.e.Execute(single)
			r.e.Execute(single)
			Expect(r.e.DualInstructionMode()).To(BeZero())
		})

		It("should ignore core instructions", func() {
			r.e.Execute(insts.EncodeFP(0x30, 0, 0, 0, insts.FPDualInst))
			r.e.Execute(insts.Nop)
			Expect(r.e.DualInstructionMode()).To(Equal(1))
		})
	})
})
