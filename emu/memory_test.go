package emu_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/config"
	"github.com/sarchlab/i860sim/emu"
	"github.com/sarchlab/i860sim/insts"
)

const (
	dataBase  uint32 = 0x2000
	pageDir   uint32 = 0x10000
	pageTable uint32 = 0x11000
	virtPage  uint32 = 0x40000000
	physPage  uint32 = 0x20000
)

var _ = Describe("Memory access", func() {
	var (
		r  *rig
		rf *emu.RegFile
	)

	BeforeEach(func() {
		r = newRig()
		rf = r.rf
		rf.WriteReg(1, dataBase)
	})

	Describe("integer loads and stores", func() {
		It("should sign-extend ld.b", func() {
			r.bus.Write(dataBase, 1, 0x80, binary.LittleEndian)

			r.e.Execute(insts.EncodeImm(0x01, 1, 2, 0))

			Expect(rf.ReadReg(2)).To(Equal(uint32(0xFFFFFF80)))
		})

		It("should load shorts and words with aligned displacements", func() {
			r.write32(dataBase, 0x8001_1234)
			r.write32(dataBase+4, 0xDEADBEEF)

			r.e.Execute(insts.EncodeImm(0x05, 1, 2, 2))
			r.e.Execute(insts.EncodeImm(0x05, 1, 3, 4|1))

			Expect(rf.ReadReg(2)).To(Equal(uint32(0xFFFF8001)))
			Expect(rf.ReadReg(3)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should add the index register in register form", func() {
			r.write32(dataBase+8, 42)
			rf.WriteReg(4, 8)

			r.e.Execute(insts.EncodeReg(0x04, 4, 1, 2) | 1)

			Expect(rf.ReadReg(2)).To(Equal(uint32(42)))
		})

		It("should store with the split displacement", func() {
			rf.WriteReg(5, 0xA1B2C3D4)

			r.e.Execute(insts.EncodeSplit(0x07, 5, 1, 8|1))
			r.e.Execute(insts.EncodeSplit(0x03, 5, 1, 3))

			Expect(r.read32(dataBase + 8)).To(Equal(uint32(0xA1B2C3D4)))
			Expect(r.bus.Read(dataBase+3, 1, binary.LittleEndian)).To(Equal(uint32(0xD4)))
		})

		It("should trap on a misaligned access and keep the destination", func() {
			rf.WriteReg(1, dataBase+2)
			before := rf.ReadReg(2)

			result := r.e.Execute(insts.EncodeImm(0x05, 1, 2, 1))

			Expect(result.Trapped).To(BeTrue())
			Expect(result.Fault).To(Equal(emu.AccessRead))
			Expect(rf.PSRBit(emu.PSRDAT)).To(BeTrue())
			Expect(rf.ReadReg(2)).To(Equal(before))
			Expect(rf.PC).To(Equal(codeBase))
		})

		It("should allow misaligned accesses when alignment traps are off", func() {
			cfg := config.Default()
			cfg.AlignmentTraps = false
			r = newRig(emu.WithConfig(cfg))
			r.rf.WriteReg(1, dataBase+2)
			r.write32(dataBase, 0x44332211)
			r.write32(dataBase+4, 0x88776655)

			result := r.e.Execute(insts.EncodeImm(0x05, 1, 2, 1))

			Expect(result.Trapped).To(BeFalse())
			Expect(r.rf.ReadReg(2)).To(Equal(uint32(0x66554433)))
		})
	})

	Describe("floating-point loads and stores", func() {
		It("should load a double into a register pair", func() {
			r.write64(dataBase+8, 0x400921FB54442D18)

			r.e.Execute(insts.EncodeImm(0x09, 1, 4, 8))

			Expect(rf.ReadFD(4)).To(Equal(uint64(0x400921FB54442D18)))
		})

		It("should load a quad into an aligned register group", func() {
			r.write64(dataBase+16, 0x1111111122222222)
			r.write64(dataBase+24, 0x3333333344444444)

			r.e.Execute(insts.EncodeImm(0x09, 1, 10, 16|4))

			Expect(rf.ReadFD(8)).To(Equal(uint64(0x1111111122222222)))
			Expect(rf.ReadFD(10)).To(Equal(uint64(0x3333333344444444)))
		})

		It("should auto-increment only after the access", func() {
			r.write32(dataBase+4, 0x3F800000)

			r.e.Execute(insts.EncodeImm(0x09, 1, 6, 4|2|1))

			Expect(rf.ReadFS(6)).To(Equal(uint32(0x3F800000)))
			Expect(rf.ReadReg(1)).To(Equal(dataBase + 4))
		})

		It("should not auto-increment when the access faults", func() {
			rf.WriteReg(1, dataBase+1)

			result := r.e.Execute(insts.EncodeImm(0x09, 1, 6, 4|2|1))

			Expect(result.Trapped).To(BeTrue())
			Expect(rf.ReadReg(1)).To(Equal(dataBase + 1))
		})

		It("should ignore auto-increment with isrc1 equal to isrc2", func() {
			before := rf.ReadFS(6)

			result := r.e.Execute(insts.EncodeReg(0x08, 1, 1, 6) | 2 | 1)

			Expect(result.Trapped).To(BeFalse())
			Expect(rf.ReadFS(6)).To(Equal(before))
			Expect(rf.ReadReg(1)).To(Equal(dataBase))
			Expect(r.logged(logrus.WarnLevel, "auto-increment with isrc1 = isrc2 (ignored)")).To(BeTrue())
		})

		It("should only update the base register on flush", func() {
			r.write32(dataBase, 0x12345678)

			r.e.Execute(insts.EncodeImm(0x0D, 1, 0, 0x20))
			Expect(rf.ReadReg(1)).To(Equal(dataBase))

			r.e.Execute(insts.EncodeImm(0x0D, 1, 0, 0xFFF1))
			Expect(rf.ReadReg(1)).To(Equal(dataBase - 16))
			Expect(r.read32(dataBase)).To(Equal(uint32(0x12345678)))
		})

		It("should store a double", func() {
			rf.WriteFD(4, 0x0102030405060708)

			r.e.Execute(insts.EncodeImm(0x0B, 1, 4, 0x20))

			Expect(r.read64(dataBase + 0x20)).To(Equal(uint64(0x0102030405060708)))
		})

		It("should store doubles big-endian when EPSR.BE is set", func() {
			rf.SetEPSRBit(emu.EPSRBE, true)
			rf.WriteFD(4, 0x0102030405060708)

			r.e.Execute(insts.EncodeImm(0x0B, 1, 4, 0))

			Expect(r.bus.Read(dataBase, 1, binary.LittleEndian)).To(Equal(uint32(0x01)))
			Expect(r.bus.Read(dataBase+7, 1, binary.LittleEndian)).To(Equal(uint32(0x08)))
		})
	})

	Describe("address translation", func() {
		BeforeEach(func() {
			rf.CR[emu.CRegDIRBASE] = pageDir | emu.DirbaseATE
			r.write32(pageDir+(virtPage>>22)<<2, pageTable|0x7)
			r.write32(pageTable, physPage|0x47)
			rf.WriteReg(6, virtPage)
			rf.WriteReg(5, 0x12345678)
		})

		It("should map virtual to physical and set accessed bits", func() {
			result := r.e.Execute(insts.EncodeSplit(0x07, 5, 6, 0x10|1))

			Expect(result.Trapped).To(BeFalse())
			Expect(r.read32(physPage + 0x10)).To(Equal(uint32(0x12345678)))
			Expect(r.read32(pageDir+(virtPage>>22)<<2) & 0x20).NotTo(BeZero())
			Expect(r.read32(pageTable) & 0x20).NotTo(BeZero())

			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 0x10|1))
			Expect(rf.ReadReg(7)).To(Equal(uint32(0x12345678)))
		})

		It("should fault a write to a clean page without writing", func() {
			r.write32(pageTable, physPage|0x07)

			result := r.e.Execute(insts.EncodeSplit(0x07, 5, 6, 1))

			Expect(result.Trapped).To(BeTrue())
			Expect(result.Fault).To(Equal(emu.AccessWrite))
			Expect(rf.PSRBit(emu.PSRDAT)).To(BeTrue())
			Expect(r.read32(physPage)).To(BeZero())
			Expect(r.read32(pageTable) & 0x20).NotTo(BeZero())
		})

		It("should fault a non-present page", func() {
			r.write32(pageTable, 0)

			result := r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))

			Expect(result.Trapped).To(BeTrue())
			Expect(rf.PSRBit(emu.PSRDAT)).To(BeTrue())
		})

		It("should let the supervisor write a read-only page unless WP is set", func() {
			r.write32(pageTable, physPage|0x45)

			result := r.e.Execute(insts.EncodeSplit(0x07, 5, 6, 1))
			Expect(result.Trapped).To(BeFalse())

			rf.SetEPSRBit(emu.EPSRWP, true)
			result = r.e.Execute(insts.EncodeSplit(0x07, 5, 6, 1))
			Expect(result.Trapped).To(BeTrue())
		})

		It("should fault user access to a supervisor page", func() {
			r.write32(pageTable, physPage|0x43)
			rf.SetPSRBit(emu.PSRU, true)

			result := r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))

			Expect(result.Trapped).To(BeTrue())
		})

		It("should raise an instruction fault on fetch", func() {
			r.write32(pageTable, 0)
			rf.PC = virtPage

			result := r.e.Step()

			Expect(result.Trapped).To(BeTrue())
			Expect(result.Fault).To(Equal(emu.AccessFetch))
			Expect(rf.PSRBit(emu.PSRIAT)).To(BeTrue())
			Expect(rf.CR[emu.CRegFIR]).To(Equal(virtPage))
		})
	})

	Describe("debug watchpoints", func() {
		It("should trap reads of the DB address when BR is set", func() {
			rf.CR[emu.CRegDB] = dataBase + 4
			rf.SetPSRBit(emu.PSRBR, true)

			Expect(r.e.Execute(insts.EncodeImm(0x05, 1, 2, 1)).Trapped).To(BeFalse())
			Expect(r.e.Execute(insts.EncodeImm(0x05, 1, 2, 4|1)).Trapped).To(BeTrue())
			Expect(rf.PSRBit(emu.PSRDAT)).To(BeTrue())
		})

		It("should trap writes only when BW is set", func() {
			rf.CR[emu.CRegDB] = dataBase
			rf.SetPSRBit(emu.PSRBR, true)

			Expect(r.e.Execute(insts.EncodeSplit(0x07, 5, 1, 1)).Trapped).To(BeFalse())

			rf.SetPSRBit(emu.PSRBW, true)
			Expect(r.e.Execute(insts.EncodeSplit(0x07, 5, 1, 1)).Trapped).To(BeTrue())
		})
	})

	Describe("TLB sizing", func() {
		It("should round partial sets up to whole sets", func() {
			Expect(emu.NewTLB(6).Size()).To(Equal(8))
			Expect(emu.NewTLB(1).Size()).To(Equal(emu.TLBWays))
			Expect(emu.NewTLB(emu.DefaultTLBSize).Size()).To(Equal(emu.DefaultTLBSize))
		})

		It("should cache translations with an unvalidated entry count", func() {
			cfg := config.Default()
			cfg.TLBEntries = 3
			r = newRig(emu.WithConfig(cfg))
			rf = r.rf

			rf.CR[emu.CRegDIRBASE] = pageDir | emu.DirbaseATE
			r.write32(pageDir+(virtPage>>22)<<2, pageTable|0x7)
			r.write32(pageTable, physPage|0x47)
			r.write32(physPage, 111)
			rf.WriteReg(6, virtPage)

			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))
			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))

			Expect(rf.ReadReg(7)).To(Equal(uint32(111)))
			Expect(r.e.MMU().TLB().Size()).To(Equal(emu.TLBWays))
			hits, misses := r.e.MMU().TLB().Stats()
			Expect(hits).To(Equal(uint64(1)))
			Expect(misses).To(Equal(uint64(1)))
		})
	})

	Describe("TLB", func() {
		BeforeEach(func() {
			cfg := config.Default()
			cfg.TLBEntries = emu.DefaultTLBSize
			r = newRig(emu.WithConfig(cfg))
			rf = r.rf

			rf.CR[emu.CRegDIRBASE] = pageDir | emu.DirbaseATE
			r.write32(pageDir+(virtPage>>22)<<2, pageTable|0x7)
			r.write32(pageTable, physPage|0x47)
			r.write32(physPage, 111)
			r.write32(physPage+0x1000, 222)
			rf.WriteReg(6, virtPage)
		})

		It("should keep using a cached translation until ITI is written", func() {
			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))
			Expect(rf.ReadReg(7)).To(Equal(uint32(111)))

			r.write32(pageTable, (physPage+0x1000)|0x47)
			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))
			Expect(rf.ReadReg(7)).To(Equal(uint32(111)))

			rf.WriteReg(5, pageDir|emu.DirbaseATE|emu.DirbaseITI)
			r.e.Execute(insts.EncodeReg(0x0E, 5, emu.CRegDIRBASE, 0))
			Expect(rf.CR[emu.CRegDIRBASE] & emu.DirbaseITI).To(BeZero())

			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))
			Expect(rf.ReadReg(7)).To(Equal(uint32(222)))

			hits, misses := r.e.MMU().TLB().Stats()
			Expect(hits).To(Equal(uint64(1)))
			Expect(misses).To(Equal(uint64(2)))
		})

		It("should recheck the dirty bit on a write to a cached clean page", func() {
			r.write32(pageTable, physPage|0x07)
			r.e.Execute(insts.EncodeImm(0x05, 6, 7, 1))

			result := r.e.Execute(insts.EncodeSplit(0x07, 5, 6, 1))

			Expect(result.Trapped).To(BeTrue())
			Expect(r.read32(physPage)).To(Equal(uint32(111)))
		})
	})
})
