package emu

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/insts"
)

// Truncation masks applied to frcp and frsqr operands and results.
const (
	recipMaskDouble uint64 = 0xFFFFF00000000000
	recipMaskSingle uint32 = 0xFFFF8000
)

// FPU holds the floating-point pipelines and their holding registers.
type FPU struct {
	regFile *RegFile
	traps   *trapState
	log     *logrus.Entry

	// Mul is the multiplier pipeline. Two of its stages are used by
	// double-precision sources and three otherwise.
	Mul Pipeline
	// Add is the three-stage adder pipeline.
	Add Pipeline
	// Load is the three-stage pfld pipeline.
	Load Pipeline
	// Graphics is the single graphics-unit stage.
	Graphics Stage

	KR, KI, T Stage
	Merge     uint64

	sourceExceptionTraps bool
}

func newFPU(regFile *RegFile, traps *trapState, log *logrus.Entry) *FPU {
	return &FPU{regFile: regFile, traps: traps, log: log}
}

func (f *FPU) reset() {
	f.Mul.reset()
	f.Add.reset()
	f.Load.reset()
	f.Graphics = Stage{}
	f.KR = Stage{}
	f.KI = Stage{}
	f.T = Stage{}
	f.Merge = 0
}

func (f *FPU) read(reg uint8, double bool) uint64 {
	if double {
		return f.regFile.ReadFD(reg)
	}
	return uint64(f.regFile.ReadFS(reg))
}

func (f *FPU) write(reg uint8, bits uint64, double bool) {
	if double {
		f.regFile.WriteFD(reg, bits)
	} else {
		f.regFile.WriteFS(reg, uint32(bits))
	}
}

// commit writes a stage to a register using the stage's own tag.
func (f *FPU) commit(reg uint8, s Stage) {
	f.write(reg, s.raw(s.Double), s.Double)
}

func mulDepth(srcDouble, mul3 bool) int {
	if srcDouble && !mul3 {
		return 2
	}
	return 3
}

type arithOp func(x, y float64) float64

func fmulOp(x, y float64) float64 { return x * y }
func faddOp(x, y float64) float64 { return x + y }
func fsubOp(x, y float64) float64 { return x - y }

// arith applies op to two raw operands. Single operands are computed in
// double and rounded once, which matches single-precision arithmetic for
// the four basic operations.
func arith(a, b uint64, srcDouble, resDouble bool, op arithOp) uint64 {
	var r float64
	if srcDouble {
		r = op(math.Float64frombits(a), math.Float64frombits(b))
		if !resDouble {
			return uint64(math.Float32bits(float32(r)))
		}
		return math.Float64bits(r)
	}

	r = op(float64(math.Float32frombits(uint32(a))), float64(math.Float32frombits(uint32(b))))
	s := float32(r)
	if resDouble {
		return math.Float64bits(float64(s))
	}
	return uint64(math.Float32bits(s))
}

// convert changes the precision of a raw value.
func convert(v uint64, srcDouble, resDouble bool) uint64 {
	switch {
	case srcDouble == resDouble:
		return v
	case srcDouble:
		return uint64(math.Float32bits(float32(math.Float64frombits(v))))
	default:
		return math.Float64bits(float64(math.Float32frombits(uint32(v))))
	}
}

// Fmul executes fmul, pfmul and pfmul3.
func (f *FPU) Fmul(inst *insts.Instruction) {
	depth := mulDepth(inst.SrcDouble, inst.Op == insts.OpPFMUL3)
	last := f.Mul.Stage(depth - 1)

	v1 := f.read(inst.Src1, inst.SrcDouble)
	v2 := f.read(inst.Src2, inst.SrcDouble)
	if inst.Pipelined && inst.Dest != 0 && inst.Src2 == inst.Dest {
		v2 = last.tagged(inst.SrcDouble)
	}
	res := arith(v1, v2, inst.SrcDouble, inst.ResDouble, fmulOp)

	if !inst.Pipelined {
		f.write(inst.Dest, res, inst.ResDouble)
		return
	}

	f.regFile.SetFSRBit(FSRMRP, f.Mul.Stage(depth-2).Double)
	f.commit(inst.Dest, last)
	f.Mul.advance(depth, res, inst.ResDouble)
}

// Fmlow executes fmlow.dd: the low 53 bits of the integer product of the
// operand bit patterns, with the sign set to the XOR of the operand signs.
func (f *FPU) Fmlow(inst *insts.Instruction) {
	i1 := f.regFile.ReadFD(inst.Src1)
	i2 := f.regFile.ReadFD(inst.Src2)

	prod := uint64(int64(i1) * int64(i2))
	prod &= 0x001FFFFFFFFFFFFF
	prod |= (i1 ^ i2) & (1 << 63)

	f.regFile.WriteFD(inst.Dest, prod)
}

// Fadd executes fadd, fsub and their pipelined forms.
func (f *FPU) Fadd(inst *insts.Instruction) {
	op := faddOp
	if inst.Op == insts.OpFSUB {
		op = fsubOp
	}

	last := f.Add.Stage(2)
	v1 := f.read(inst.Src1, inst.SrcDouble)
	v2 := f.read(inst.Src2, inst.SrcDouble)
	if inst.Pipelined && inst.Dest != 0 {
		if inst.Src1 == inst.Dest {
			v1 = last.tagged(inst.SrcDouble)
		}
		if inst.Src2 == inst.Dest {
			v2 = last.tagged(inst.SrcDouble)
		}
	}
	res := arith(v1, v2, inst.SrcDouble, inst.ResDouble, op)

	if !inst.Pipelined {
		f.write(inst.Dest, res, inst.ResDouble)
		return
	}
	f.pushAdd(inst.Dest, res, inst.ResDouble)
}

// pushAdd retires the last adder stage into dest and feeds res.
func (f *FPU) pushAdd(dest uint8, res uint64, double bool) {
	f.regFile.SetFSRBit(FSRARP, f.Add.Stage(1).Double)
	f.commit(dest, f.Add.Stage(2))
	f.Add.advance(3, res, double)
}

// Famov executes famov and pfamov.
func (f *FPU) Famov(inst *insts.Instruction) {
	res := convert(f.read(inst.Src1, inst.SrcDouble), inst.SrcDouble, inst.ResDouble)

	if !inst.Pipelined {
		f.write(inst.Dest, res, inst.ResDouble)
		return
	}
	f.pushAdd(inst.Dest, res, inst.ResDouble)
}

// Ftrunc executes ftrunc and pftrunc. The integer part lands in the low
// word of the result.
func (f *FPU) Ftrunc(inst *insts.Instruction) {
	var iv int32
	if inst.SrcDouble {
		iv = int32(f.regFile.ReadFloat64(inst.Src1))
	} else {
		iv = int32(f.regFile.ReadFloat32(inst.Src1))
	}

	if !inst.Pipelined {
		f.regFile.WriteFS(inst.Dest, uint32(iv))
		return
	}
	f.pushAdd(inst.Dest, uint64(uint32(iv)), true)
}

// Fcmp executes pfgt, pfle and pfeq. The compares always go through the
// adder pipeline and feed it a zero result.
func (f *FPU) Fcmp(inst *insts.Instruction) {
	var gt, le, eq bool
	if inst.SrcDouble {
		v1 := f.regFile.ReadFloat64(inst.Src1)
		v2 := f.regFile.ReadFloat64(inst.Src2)
		gt, le, eq = v1 > v2, v1 <= v2, v1 == v2
	} else {
		v1 := f.regFile.ReadFloat32(inst.Src1)
		v2 := f.regFile.ReadFloat32(inst.Src2)
		gt, le, eq = v1 > v2, v1 <= v2, v1 == v2
	}

	switch inst.Op {
	case insts.OpPFGT:
		f.regFile.SetCC(gt)
	case insts.OpPFLE:
		f.regFile.SetCC(!le)
	case insts.OpPFEQ:
		f.regFile.SetCC(eq)
	}

	f.pushAdd(inst.Dest, 0, inst.SrcDouble)
}

// Frcp executes frcp.
func (f *FPU) Frcp(inst *insts.Instruction) {
	f.reciprocal(inst, func(x float64) bool { return x == 0 }, func(x float64) float64 { return 1 / x })
}

// Frsqr executes frsqr.
func (f *FPU) Frsqr(inst *insts.Instruction) {
	f.reciprocal(inst, func(x float64) bool { return x <= 0 }, func(x float64) float64 { return 1 / math.Sqrt(x) })
}

func (f *FPU) reciprocal(inst *insts.Instruction, invalid func(float64) bool, op func(float64) float64) {
	if inst.SrcDouble {
		v := f.regFile.ReadFD(inst.Src2)
		if invalid(math.Float64frombits(v)) {
			f.sourceException()
			return
		}
		r := math.Float64bits(op(math.Float64frombits(v&recipMaskDouble))) & recipMaskDouble
		f.write(inst.Dest, convert(r, true, inst.ResDouble), inst.ResDouble)
	} else {
		v := f.regFile.ReadFS(inst.Src2)
		if invalid(float64(math.Float32frombits(v))) {
			f.sourceException()
			return
		}
		x := float64(math.Float32frombits(v & recipMaskSingle))
		r := math.Float32bits(float32(op(x))) & recipMaskSingle
		f.write(inst.Dest, convert(uint64(r), false, inst.ResDouble), inst.ResDouble)
	}
	f.regFile.SetFSRBit(FSRSE, false)
}

// sourceException leaves the destination unchanged and, when enabled,
// raises a floating-point source exception trap.
func (f *FPU) sourceException() {
	if !f.sourceExceptionTraps || !f.regFile.FSRBit(FSRFTE) {
		return
	}
	f.regFile.SetPSRBit(PSRFT, true)
	f.regFile.SetFSRBit(FSRSE, true)
	f.traps.raise(TrapNormal)
}

// Fxfr moves the bit pattern of a single register to an integer register.
func (f *FPU) Fxfr(inst *insts.Instruction) {
	f.regFile.WriteReg(inst.Dest, f.regFile.ReadFS(inst.Src1))
}

// Ixfr moves an integer register's bit pattern to a single register.
func (f *FPU) Ixfr(inst *insts.Instruction) {
	f.regFile.WriteFS(inst.Dest, f.regFile.ReadReg(inst.Src1))
}

// pushLoad retires the last load stage into dest and feeds the loaded
// value into the pipeline.
func (f *FPU) pushLoad(dest uint8, bits uint64, double bool) {
	f.regFile.SetFSRBit(FSRLRP, f.Load.Stage(1).Double)
	f.commit(dest, f.Load.Stage(2))
	f.Load.advance(3, bits, double)
}
