package emu

// ALU implements i860 integer arithmetic, logic and shift operations.
// Operands arrive as values so the register and immediate forms share
// one implementation. The destination is written after the flags are
// computed, so a destination that aliases a source is safe.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Addu performs unsigned addition: dest = src1 + src2.
// CC and OF both receive the carry out of bit 31.
func (a *ALU) Addu(dest uint8, src1, src2 uint32) {
	sum := uint64(src1) + uint64(src2)
	carry := sum>>32 != 0

	a.regFile.SetCC(carry)
	a.regFile.SetOF(carry)
	a.regFile.WriteReg(dest, uint32(sum))
}

// Adds performs signed addition: dest = src1 + src2.
// OF is signed overflow; CC is set when src2 < -src1.
func (a *ALU) Adds(dest uint8, src1, src2 uint32) {
	result := src1 + src2

	a.regFile.SetOF(addOverflow(src1, src2, result))
	a.regFile.SetCC(int32(src2) < -int32(src1))
	a.regFile.WriteReg(dest, result)
}

// Subu performs unsigned subtraction: dest = src1 - src2.
// CC is set when no borrow occurs (src2 <= src1); OF is its complement.
func (a *ALU) Subu(dest uint8, src1, src2 uint32) {
	noBorrow := src2 <= src1

	a.regFile.SetCC(noBorrow)
	a.regFile.SetOF(!noBorrow)
	a.regFile.WriteReg(dest, src1-src2)
}

// Subs performs signed subtraction: dest = src1 - src2.
// OF is signed overflow; CC is set when src2 > src1.
func (a *ALU) Subs(dest uint8, src1, src2 uint32) {
	result := src1 - src2

	a.regFile.SetOF(subOverflow(src1, src2, result))
	a.regFile.SetCC(int32(src2) > int32(src1))
	a.regFile.WriteReg(dest, result)
}

func addOverflow(a, b, res uint32) bool {
	sa, sb, sr := a>>31, b>>31, res>>31
	return sa == sb && sr != sa
}

func subOverflow(a, b, res uint32) bool {
	sa, sb, sr := a>>31, b>>31, res>>31
	return sa != sb && sr != sa
}

// And performs dest = src1 & src2. CC is set when the result is zero.
func (a *ALU) And(dest uint8, src1, src2 uint32) {
	a.logic(dest, src1&src2)
}

// Andnot performs dest = ^src1 & src2. CC is set when the result is zero.
func (a *ALU) Andnot(dest uint8, src1, src2 uint32) {
	a.logic(dest, ^src1&src2)
}

// Or performs dest = src1 | src2. CC is set when the result is zero.
func (a *ALU) Or(dest uint8, src1, src2 uint32) {
	a.logic(dest, src1|src2)
}

// Xor performs dest = src1 ^ src2. CC is set when the result is zero.
func (a *ALU) Xor(dest uint8, src1, src2 uint32) {
	a.logic(dest, src1^src2)
}

func (a *ALU) logic(dest uint8, result uint32) {
	a.regFile.SetCC(result == 0)
	a.regFile.WriteReg(dest, result)
}

// Shl performs a logical left shift: dest = src2 << src1.
func (a *ALU) Shl(dest uint8, src1, src2 uint32) {
	a.regFile.WriteReg(dest, src2<<(src1&31))
}

// Shr performs a logical right shift: dest = src2 >> src1.
// The shift count is latched into PSR.SC for shrd.
func (a *ALU) Shr(dest uint8, src1, src2 uint32) {
	a.regFile.SetSC(src1)
	a.regFile.WriteReg(dest, src2>>(src1&31))
}

// Shra performs an arithmetic right shift: dest = src2 >> src1.
func (a *ALU) Shra(dest uint8, src1, src2 uint32) {
	a.regFile.WriteReg(dest, uint32(int32(src2)>>(src1&31)))
}

// Shrd performs a double shift right by PSR.SC:
// dest = low 32 bits of (src1:src2 >> SC).
func (a *ALU) Shrd(dest uint8, src1, src2 uint32) {
	sc := a.regFile.SC()
	result := src2
	if sc != 0 {
		result = src1<<(32-sc) | src2>>sc
	}
	a.regFile.WriteReg(dest, result)
}
