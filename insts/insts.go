// Package insts provides i860 instruction definitions and decoding.
//
// This package decodes 32-bit i860XR machine words into structured
// instruction representations. Decoding is table driven in two levels:
//   - a 64-entry primary table indexed by bits [31:26]
//   - a 128-entry floating-point escape table indexed by bits [6:0]
//   - an 8-entry core escape table indexed by bits [2:0]
//
// Words that hit an empty slot, or that use a precision combination the
// instruction does not define, decode to OpUnknown.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x80231000) // addu r2,r1,r3
//	fmt.Printf("Op: %v, Dest: %d, Src1: %d, Src2: %d\n", inst.Op, inst.Dest, inst.Src1, inst.Src2)
package insts
