package insts

// Encoding helpers. They build raw words for tests and tools; field
// values are masked to their widths.

// EncodeReg builds a register-format word: src2, dest and src1 fields under
// the given primary opcode.
func EncodeReg(primary, src1, src2, dest uint32) uint32 {
	return (primary&0x3F)<<26 | (src2&0x1F)<<21 | (dest&0x1F)<<16 | (src1&0x1F)<<11
}

// EncodeImm builds an immediate-format word with a 16-bit constant.
func EncodeImm(primary, src2, dest, imm uint32) uint32 {
	return (primary&0x3F)<<26 | (src2&0x1F)<<21 | (dest&0x1F)<<16 | imm&0xFFFF
}

// EncodeSplit builds a split-immediate word (st.x, bte, btne, bla). The
// upper five bits of imm go in the dest field position.
func EncodeSplit(primary, src1, src2, imm uint32) uint32 {
	return (primary&0x3F)<<26 | (src2&0x1F)<<21 | (imm&0xF800)<<5 | (src1&0x1F)<<11 | imm&0x07FF
}

// EncodeBranch builds a word with a 26-bit word displacement.
func EncodeBranch(primary uint32, offsetWords int32) uint32 {
	return (primary&0x3F)<<26 | uint32(offsetWords)&0x03FFFFFF
}

// EncodeFP builds a floating-point escape word. flags is any combination
// of FPPipelined, FPDualInst, FPSrcDouble and FPResDouble.
func EncodeFP(op, src1, src2, dest, flags uint32) uint32 {
	return PrimaryFPEscape<<26 | (src2&0x1F)<<21 | (dest&0x1F)<<16 | (src1&0x1F)<<11 | flags&0x780 | op&0x7F
}

// EncodeCoreEscape builds a core escape word.
func EncodeCoreEscape(sub, src1, src2, dest uint32) uint32 {
	return PrimaryCoreEscape<<26 | (src2&0x1F)<<21 | (dest&0x1F)<<16 | (src1&0x1F)<<11 | sub&0x7
}

// Nop is the canonical no-op: shl r0,r0,r0.
const Nop uint32 = 0xA0000000
