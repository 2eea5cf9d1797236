package emu

import "github.com/sarchlab/i860sim/insts"

// operand names a source feeding the multiplier or adder in a dual
// operation.
type operand uint8

const (
	opSrc1 operand = iota
	opSrc2
	opKR
	opKI
	opT
	opMPipe
	opAPipe
	// opAPipeF is the adder result for pfam and the multiplier result
	// for pfmam.
	opAPipeF
)

// route is one row of the data path control table.
type route struct {
	m1, m2, a1, a2 operand
	loadT, loadK   bool
}

// dualRoutes is indexed by the 4-bit DPC field.
var dualRoutes = [16]route{
	{opKR, opSrc2, opSrc1, opMPipe, false, false},
	{opKR, opSrc2, opT, opMPipe, false, true},
	{opKR, opSrc2, opSrc1, opAPipeF, true, false},
	{opKR, opSrc2, opT, opAPipeF, true, true},
	{opKI, opSrc2, opSrc1, opMPipe, false, false},
	{opKI, opSrc2, opT, opMPipe, false, true},
	{opKI, opSrc2, opSrc1, opAPipeF, true, false},
	{opKI, opSrc2, opT, opAPipeF, true, true},
	{opKR, opAPipeF, opSrc1, opSrc2, true, false},
	{opSrc1, opSrc2, opAPipeF, opMPipe, false, false},
	{opKR, opAPipeF, opSrc1, opSrc2, false, false},
	{opSrc1, opSrc2, opT, opAPipeF, true, false},
	{opKI, opAPipeF, opSrc1, opSrc2, true, false},
	{opSrc1, opSrc2, opT, opMPipe, false, false},
	{opKI, opAPipeF, opSrc1, opSrc2, false, false},
	{opSrc1, opSrc2, opT, opAPipeF, false, false},
}

func (r route) resolve(pfam bool) route {
	fold := func(o operand) operand {
		if o != opAPipeF {
			return o
		}
		if pfam {
			return opAPipe
		}
		return opMPipe
	}
	r.m1, r.m2, r.a1, r.a2 = fold(r.m1), fold(r.m2), fold(r.a1), fold(r.a2)
	return r
}

// DualOp executes the pfam/pfsm and pfmam/pfmsm families. S gives the
// multiplier source precision; R gives the adder source precision and
// the precision of both results.
func (f *FPU) DualOp(inst *insts.Instruction) {
	pfam := inst.Op == insts.OpPFAM
	r := dualRoutes[inst.DPC&0xF].resolve(pfam)

	mDepth := mulDepth(inst.SrcDouble, false)
	lastM := f.Mul.Stage(mDepth - 1)
	lastA := f.Add.Stage(2)

	if r.loadT {
		f.T.set(lastM.raw(lastM.Double), lastM.Double)
	}
	if r.loadK {
		k := &f.KR
		if r.m1 == opKI {
			k = &f.KI
		}
		k.set(f.read(inst.Src1, inst.SrcDouble), inst.SrcDouble)
	}

	fetch := func(o operand, double bool) uint64 {
		switch o {
		case opSrc1:
			return f.read(inst.Src1, double)
		case opSrc2:
			return f.read(inst.Src2, double)
		case opKR:
			return f.KR.raw(double)
		case opKI:
			return f.KI.raw(double)
		case opT:
			return f.T.raw(double)
		case opMPipe:
			return lastM.raw(double)
		default:
			return lastA.raw(double)
		}
	}

	bypass := func(double bool) uint64 {
		if pfam {
			return lastA.tagged(double)
		}
		return lastM.tagged(double)
	}
	bypassed := func(reg uint8) bool {
		return inst.Dest != 0 && reg == inst.Dest
	}

	m1 := fetch(r.m1, inst.SrcDouble)
	m2 := fetch(r.m2, inst.SrcDouble)
	if r.m2 == opSrc2 && bypassed(inst.Src2) {
		m2 = bypass(inst.SrcDouble)
	}

	a1 := fetch(r.a1, inst.ResDouble)
	a2 := fetch(r.a2, inst.ResDouble)
	if r.a1 == opSrc1 && bypassed(inst.Src1) {
		a1 = bypass(inst.ResDouble)
	}
	if r.a2 == opSrc2 && bypassed(inst.Src2) {
		a2 = bypass(inst.ResDouble)
	}

	mulRes := arith(m1, m2, inst.SrcDouble, inst.ResDouble, fmulOp)
	addOp := faddOp
	if inst.Sub {
		addOp = fsubOp
	}
	addRes := arith(a1, a2, inst.ResDouble, inst.ResDouble, addOp)

	if pfam {
		f.commit(inst.Dest, lastA)
	} else {
		f.commit(inst.Dest, lastM)
	}

	f.regFile.SetFSRBit(FSRMRP, f.Mul.Stage(mDepth-2).Double)
	f.Mul.advance(mDepth, mulRes, inst.ResDouble)

	f.regFile.SetFSRBit(FSRARP, f.Add.Stage(1).Double)
	f.Add.advance(3, addRes, inst.ResDouble)
}
