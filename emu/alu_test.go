package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/i860sim/emu"
	"github.com/sarchlab/i860sim/insts"
)

var _ = Describe("Integer unit", func() {
	var (
		r  *rig
		rf *emu.RegFile
	)

	BeforeEach(func() {
		r = newRig()
		rf = r.rf
	})

	Describe("Register file", func() {
		It("should read back written registers", func() {
			rf.WriteReg(7, 0xCAFEF00D)
			rf.WriteFS(9, 0x3F800000)
			Expect(rf.ReadReg(7)).To(Equal(uint32(0xCAFEF00D)))
			Expect(rf.ReadFS(9)).To(Equal(uint32(0x3F800000)))
		})

		It("should keep r0, f0 and f1 at zero", func() {
			rf.WriteReg(0, 123)
			rf.WriteFS(0, 0xFFFFFFFF)
			rf.WriteFS(1, 0xFFFFFFFF)
			rf.WriteFD(0, 0xFFFFFFFFFFFFFFFF)

			Expect(rf.ReadReg(0)).To(BeZero())
			Expect(rf.ReadFD(0)).To(BeZero())
		})

		It("should pair doubles with the low word in the even register", func() {
			rf.WriteFD(5, 0x1122334455667788)
			Expect(rf.F[4]).To(Equal(uint32(0x55667788)))
			Expect(rf.F[5]).To(Equal(uint32(0x11223344)))
		})

		It("should ignore writes to r0 through instructions", func() {
			rf.WriteReg(1, 5)
			r.e.Execute(insts.EncodeReg(0x20, 1, 1, 0))
			Expect(rf.ReadReg(0)).To(BeZero())
		})
	})

	Describe("addu", func() {
		It("should set CC and OF on carry out", func() {
			rf.WriteReg(1, 0xFFFFFFFF)
			rf.WriteReg(2, 1)

			r.e.Execute(insts.EncodeReg(0x20, 1, 2, 3))

			Expect(rf.ReadReg(3)).To(BeZero())
			Expect(rf.CC()).To(BeTrue())
			Expect(rf.OF()).To(BeTrue())
			Expect(rf.PC).To(Equal(codeBase + 4))
		})

		It("should sign-extend the immediate", func() {
			rf.WriteReg(2, 10)
			r.e.Execute(insts.EncodeImm(0x21, 2, 3, 0xFFFF))

			Expect(rf.ReadReg(3)).To(Equal(uint32(9)))
			Expect(rf.CC()).To(BeTrue())
		})
	})

	Describe("adds", func() {
		It("should set OF on signed overflow", func() {
			rf.WriteReg(1, 0x7FFFFFFF)
			rf.WriteReg(2, 1)

			r.e.Execute(insts.EncodeReg(0x24, 1, 2, 3))

			Expect(rf.ReadReg(3)).To(Equal(uint32(0x80000000)))
			Expect(rf.OF()).To(BeTrue())
			Expect(rf.CC()).To(BeFalse())
		})

		It("should set CC when src2 < -src1", func() {
			rf.WriteReg(1, 5)
			rf.WriteReg(2, 0xFFFFFFF0) // -16

			r.e.Execute(insts.EncodeReg(0x24, 1, 2, 3))

			Expect(rf.ReadReg(3)).To(Equal(uint32(0xFFFFFFF5)))
			Expect(rf.CC()).To(BeTrue())
			Expect(rf.OF()).To(BeFalse())
		})
	})

	Describe("subu and subs", func() {
		It("should set CC when no borrow occurs", func() {
			rf.WriteReg(1, 5)
			rf.WriteReg(2, 3)

			r.e.Execute(insts.EncodeReg(0x22, 1, 2, 3))

			Expect(rf.ReadReg(3)).To(Equal(uint32(2)))
			Expect(rf.CC()).To(BeTrue())
			Expect(rf.OF()).To(BeFalse())
		})

		It("should subtract the register from the constant", func() {
			rf.WriteReg(2, 3)
			r.e.Execute(insts.EncodeImm(0x23, 2, 3, 1))

			Expect(rf.ReadReg(3)).To(Equal(uint32(0xFFFFFFFE)))
			Expect(rf.CC()).To(BeFalse())
			Expect(rf.OF()).To(BeTrue())
		})

		It("should flag signed overflow in subs", func() {
			rf.WriteReg(1, 0x80000000)
			rf.WriteReg(2, 1)

			r.e.Execute(insts.EncodeReg(0x26, 1, 2, 3))

			Expect(rf.ReadReg(3)).To(Equal(uint32(0x7FFFFFFF)))
			Expect(rf.OF()).To(BeTrue())
			Expect(rf.CC()).To(BeTrue())
		})
	})

	Describe("logic", func() {
		It("should set CC on a zero result", func() {
			rf.WriteReg(2, 0xF0)
			r.e.Execute(insts.EncodeImm(0x31, 2, 3, 0x0F))

			Expect(rf.ReadReg(3)).To(BeZero())
			Expect(rf.CC()).To(BeTrue())
		})

		It("should apply the high forms to the upper half", func() {
			rf.WriteReg(2, 0x12345678)
			r.e.Execute(insts.EncodeImm(0x33, 2, 3, 0xFF00))

			Expect(rf.ReadReg(3)).To(Equal(uint32(0x12000000)))
			Expect(rf.CC()).To(BeFalse())
		})

		It("should zero-extend the logical immediate", func() {
			r.e.Execute(insts.EncodeImm(0x39, 0, 3, 0x8000))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0x8000)))
		})

		It("should build constants with orh and or", func() {
			r.e.Execute(insts.EncodeImm(0x3B, 0, 3, 0xDEAD))
			r.e.Execute(insts.EncodeImm(0x39, 3, 3, 0xBEEF))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should complement src1 in andnot", func() {
			rf.WriteReg(1, 0x0F)
			rf.WriteReg(2, 0xFF)
			r.e.Execute(insts.EncodeReg(0x34, 1, 2, 3))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0xF0)))
		})

		It("should xor", func() {
			rf.WriteReg(1, 0xFF00)
			rf.WriteReg(2, 0x0FF0)
			r.e.Execute(insts.EncodeReg(0x3C, 1, 2, 3))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0xF0F0)))
		})
	})

	Describe("shifts", func() {
		It("should mask the shift count to five bits", func() {
			rf.WriteReg(2, 1)
			r.e.Execute(insts.EncodeImm(0x29, 2, 3, 33))
			Expect(rf.ReadReg(3)).To(Equal(uint32(2)))
		})

		It("should shift arithmetically in shra", func() {
			rf.WriteReg(2, 0x80000000)
			r.e.Execute(insts.EncodeImm(0x2F, 2, 3, 4))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0xF8000000)))
		})

		It("should latch the shr count for shrd", func() {
			rf.WriteReg(2, 0x100)
			r.e.Execute(insts.EncodeImm(0x2B, 2, 3, 4))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0x10)))
			Expect(rf.SC()).To(Equal(uint32(4)))

			rf.WriteReg(4, 0x0000000F)
			rf.WriteReg(5, 0x12345678)
			r.e.Execute(insts.EncodeReg(0x2C, 4, 5, 6))
			Expect(rf.ReadReg(6)).To(Equal(uint32(0xF1234567)))
		})

		It("should pass src2 through shrd with a zero count", func() {
			rf.WriteReg(4, 0xFFFFFFFF)
			rf.WriteReg(5, 0x12345678)
			r.e.Execute(insts.EncodeReg(0x2C, 4, 5, 6))
			Expect(rf.ReadReg(6)).To(Equal(uint32(0x12345678)))
		})
	})
})
