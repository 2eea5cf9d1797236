package emu

import "github.com/sarchlab/i860sim/insts"

// Pixel sizes held in PSR.PS.
const (
	PixelSize8  = 0
	PixelSize16 = 1
	PixelSize32 = 2
)

// faddp merge parameters per pixel size: the shift applied to the old
// merge contents and the mask of sum bits kept.
var faddpMerge = [3]struct {
	shift uint
	mask  uint64
}{
	PixelSize8:  {8, 0xFF00FF00FF00FF00},
	PixelSize16: {6, 0xFC00FC00FC00FC00},
	PixelSize32: {8, 0xFF000000FF000000},
}

const faddzMask uint64 = 0xFFFF0000FFFF0000

// graphicsResult routes a graphics-unit result: scalar forms write dest
// directly, pipelined forms retire the single graphics stage into dest.
func (f *FPU) graphicsResult(inst *insts.Instruction, res uint64, double bool) {
	if !inst.Pipelined {
		f.write(inst.Dest, res, double)
		return
	}
	f.regFile.SetFSRBit(FSRIRP, double)
	f.commit(inst.Dest, f.Graphics)
	f.Graphics.set(res, double)
}

// Fiadd executes fiadd and fisub, which add or subtract bit patterns as
// integers.
func (f *FPU) Fiadd(inst *insts.Instruction) {
	sub := inst.Op == insts.OpFISUB
	double := inst.ResDouble

	v1 := f.read(inst.Src1, double)
	v2 := f.read(inst.Src2, double)

	var res uint64
	if double {
		res = v1 + v2
		if sub {
			res = v1 - v2
		}
	} else {
		r := uint32(v1) + uint32(v2)
		if sub {
			r = uint32(v1) - uint32(v2)
		}
		res = uint64(r)
	}

	f.graphicsResult(inst, res, double)
}

// Fzchk executes fzchkl and fzchks. Each lane receives the unsigned
// minimum of the two sources, and PSR.PM is shifted right by the lane
// count with one new bit per lane recording where src2 was the smaller.
func (f *FPU) Fzchk(inst *insts.Instruction) {
	v1 := f.regFile.ReadFD(inst.Src1)
	v2 := f.regFile.ReadFD(inst.Src2)

	lanes, width := 2, uint(32)
	if inst.Op == insts.OpFZCHKS {
		lanes, width = 4, 16
	}
	laneMask := uint64(1)<<width - 1

	pm := f.regFile.PM() >> uint(lanes)
	var res uint64
	for i := 0; i < lanes; i++ {
		shift := uint(i) * width
		p1 := v1 >> shift & laneMask
		p2 := v2 >> shift & laneMask
		bit := uint32(1) << uint(8-lanes+i)
		if p2 <= p1 {
			res |= p2 << shift
			pm |= bit
		} else {
			res |= p1 << shift
			pm &^= bit
		}
	}

	f.regFile.SetPM(pm)
	f.Merge = 0
	f.graphicsResult(inst, res, true)
}

// Form executes form: dest = src1 | merge, then clears merge.
func (f *FPU) Form(inst *insts.Instruction) {
	res := f.regFile.ReadFD(inst.Src1) | f.Merge
	f.Merge = 0
	f.graphicsResult(inst, res, true)
}

// Faddp executes faddp: an integer add of the sources that also shifts
// the high-order pixel bits of the sum into the merge register.
func (f *FPU) Faddp(inst *insts.Instruction) {
	sum := f.regFile.ReadFD(inst.Src1) + f.regFile.ReadFD(inst.Src2)

	ps := f.regFile.PS()
	if int(ps) < len(faddpMerge) {
		m := faddpMerge[ps]
		f.Merge = f.Merge>>m.shift&^m.mask | sum&m.mask
	} else {
		f.log.WithField("ps", ps).Warn("faddp with undefined pixel size")
	}

	f.graphicsResult(inst, sum, true)
}

// Faddz executes faddz, the 16-bit Z-buffer variant of faddp.
func (f *FPU) Faddz(inst *insts.Instruction) {
	sum := f.regFile.ReadFD(inst.Src1) + f.regFile.ReadFD(inst.Src2)
	f.Merge = f.Merge>>16&^faddzMask | sum&faddzMask
	f.graphicsResult(inst, sum, true)
}
