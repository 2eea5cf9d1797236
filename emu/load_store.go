package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/insts"
)

// LoadStoreUnit implements i860 integer, floating-point and pixel memory
// operations. Nothing is committed, including auto-increment, unless the
// access succeeds.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
	fpu     *FPU
	log     *logrus.Entry
}

func newLoadStoreUnit(regFile *RegFile, memory *Memory, fpu *FPU, log *logrus.Entry) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
		fpu:     fpu,
		log:     log,
	}
}

// effectiveAddress computes #const(isrc2) or isrc1(isrc2). The constant
// is aligned down to the access size.
func (lsu *LoadStoreUnit) effectiveAddress(inst *insts.Instruction, imm int32) uint32 {
	base := lsu.regFile.ReadReg(inst.Src2)
	if !inst.DispForm {
		return lsu.regFile.ReadReg(inst.Src1) + base
	}
	return uint32(imm&^int32(inst.Size-1)) + base
}

// autoIncUndefined reports the undefined isrc1 == isrc2 auto-increment
// form, which is ignored.
func (lsu *LoadStoreUnit) autoIncUndefined(inst *insts.Instruction) bool {
	if !inst.AutoInc || inst.DispForm || inst.Src1 != inst.Src2 {
		return false
	}
	lsu.log.WithField("op", inst.Op.String()).Warn("auto-increment with isrc1 = isrc2 (ignored)")
	return true
}

// Ld executes ld.b, ld.s and ld.l. Byte and short loads sign-extend.
func (lsu *LoadStoreUnit) Ld(inst *insts.Instruction) {
	addr := lsu.effectiveAddress(inst, inst.SImm16)
	v, ok := lsu.memory.ReadInt(addr, int(inst.Size))
	if !ok {
		return
	}
	if inst.Size < 4 {
		v = uint32(insts.SignExtend(v, uint(inst.Size)*8))
	}
	lsu.regFile.WriteReg(inst.Dest, v)
}

// St executes st.b, st.s and st.l, which take a split displacement.
func (lsu *LoadStoreUnit) St(inst *insts.Instruction) {
	addr := lsu.effectiveAddress(inst, inst.SplitImm)
	lsu.memory.WriteInt(addr, int(inst.Size), lsu.regFile.ReadReg(inst.Src1))
}

// Fld executes fld.l, fld.d and fld.q.
func (lsu *LoadStoreUnit) Fld(inst *insts.Instruction) {
	if lsu.autoIncUndefined(inst) {
		return
	}

	addr := lsu.effectiveAddress(inst, inst.SImm16)
	words, ok := lsu.memory.ReadFP(addr, int(inst.Size))
	if !ok {
		return
	}
	if inst.AutoInc {
		lsu.regFile.WriteReg(inst.Src2, addr)
	}

	switch inst.Size {
	case 4:
		lsu.regFile.WriteFS(inst.Dest, words[0])
	case 8:
		lsu.regFile.WriteFD(inst.Dest, pack(words[0], words[1]))
	case 16:
		base := inst.Dest &^ 3
		lsu.regFile.WriteFD(base, pack(words[0], words[1]))
		lsu.regFile.WriteFD(base+2, pack(words[2], words[3]))
	}
}

// Fst executes fst.l, fst.d and fst.q.
func (lsu *LoadStoreUnit) Fst(inst *insts.Instruction) {
	if lsu.autoIncUndefined(inst) {
		return
	}

	var words [4]uint32
	switch inst.Size {
	case 4:
		words[0] = lsu.regFile.ReadFS(inst.Dest)
	case 8:
		words[0], words[1] = unpack(lsu.regFile.ReadFD(inst.Dest))
	case 16:
		base := inst.Dest &^ 3
		words[0], words[1] = unpack(lsu.regFile.ReadFD(base))
		words[2], words[3] = unpack(lsu.regFile.ReadFD(base + 2))
	}

	addr := lsu.effectiveAddress(inst, inst.SImm16)
	if !lsu.memory.WriteFP(addr, int(inst.Size), words, 0xFF) {
		return
	}
	if inst.AutoInc {
		lsu.regFile.WriteReg(inst.Src2, addr)
	}
}

// Pfld executes pfld.l and pfld.d. The loaded value enters the load
// pipeline and dest receives the value leaving it.
func (lsu *LoadStoreUnit) Pfld(inst *insts.Instruction) {
	if lsu.autoIncUndefined(inst) {
		return
	}

	addr := lsu.effectiveAddress(inst, inst.SImm16)
	words, ok := lsu.memory.ReadFP(addr, int(inst.Size))
	if !ok {
		return
	}
	if inst.AutoInc {
		lsu.regFile.WriteReg(inst.Src2, addr)
	}

	double := inst.Size == 8
	lsu.fpu.pushLoad(inst.Dest, pack(words[0], words[1]), double)
}

// Pstd executes pst.d: a 64-bit store whose bytes are enabled per pixel
// by PSR.PM. Bit i of PM covers pixel i, counting from the least
// significant end of the register. PM is then shifted right by the
// number of pixels stored.
func (lsu *LoadStoreUnit) Pstd(inst *insts.Instruction) {
	ps := lsu.regFile.PS()
	pm := lsu.regFile.PM()

	var wmask uint8
	var pixels uint
	switch ps {
	case PixelSize8, PixelSize16, PixelSize32:
		bytesPer := uint(1) << ps
		pixels = 8 / bytesPer
		for i := uint(0); i < pixels; i++ {
			if pm&(1<<i) == 0 {
				continue
			}
			for b := uint(0); b < bytesPer; b++ {
				k := i*bytesPer + b
				wmask |= 0x80 >> k
			}
		}
	default:
		lsu.log.WithField("ps", ps).Warn("pst.d with undefined pixel size, storing all bytes")
		wmask = 0xFF
	}

	var words [4]uint32
	words[0], words[1] = unpack(lsu.regFile.ReadFD(inst.Dest))

	addr := lsu.effectiveAddress(inst, inst.SImm16)
	if !lsu.memory.WriteFP(addr, 8, words, wmask) {
		return
	}
	if inst.AutoInc {
		lsu.regFile.WriteReg(inst.Src2, addr)
	}
	if pixels != 0 {
		lsu.regFile.SetPM(pm >> pixels)
	}
}

// Flush executes flush. Caches are not modelled, so only the effective
// address and auto-increment take effect.
func (lsu *LoadStoreUnit) Flush(inst *insts.Instruction) {
	addr := lsu.effectiveAddress(inst, inst.SImm16)
	if inst.AutoInc {
		lsu.regFile.WriteReg(inst.Src2, addr)
	}
}

func pack(lo, hi uint32) uint64 {
	return uint64(lo) | uint64(hi)<<32
}

func unpack(v uint64) (lo, hi uint32) {
	return uint32(v), uint32(v >> 32)
}
