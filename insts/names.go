package insts

var opNames = [NumOps]string{
	OpUnknown: "unknown",
	OpLD:      "ld",
	OpIXFR:    "ixfr",
	OpST:      "st",
	OpFLD:     "fld",
	OpFST:     "fst",
	OpPFLD:    "pfld",
	OpLDC:     "ld.c",
	OpFLUSH:   "flush",
	OpSTC:     "st.c",
	OpPSTD:    "pst.d",
	OpBRI:     "bri",
	OpTRAP:    "trap",
	OpBTNE:    "btne",
	OpBTNEI:   "btne",
	OpBTE:     "bte",
	OpBTEI:    "bte",
	OpBR:      "br",
	OpCALL:    "call",
	OpBC:      "bc",
	OpBCT:     "bc.t",
	OpBNC:     "bnc",
	OpBNCT:    "bnc.t",
	OpADDU:    "addu",
	OpADDUI:   "addu",
	OpSUBU:    "subu",
	OpSUBUI:   "subu",
	OpADDS:    "adds",
	OpADDSI:   "adds",
	OpSUBS:    "subs",
	OpSUBSI:   "subs",
	OpSHL:     "shl",
	OpSHLI:    "shl",
	OpSHR:     "shr",
	OpSHRI:    "shr",
	OpSHRD:    "shrd",
	OpBLA:     "bla",
	OpSHRA:    "shra",
	OpSHRAI:   "shra",
	OpAND:     "and",
	OpANDI:    "and",
	OpANDH:    "andh",
	OpANDNOT:  "andnot",
	OpANDNOTI: "andnot",
	OpANDNOTH: "andnoth",
	OpOR:      "or",
	OpORI:     "or",
	OpORH:     "orh",
	OpXOR:     "xor",
	OpXORI:    "xor",
	OpXORH:    "xorh",
	OpCALLI:   "calli",
	OpPFAM:    "pfam",
	OpPFMAM:   "pfmam",
	OpFMUL:    "fmul",
	OpFMLOW:   "fmlow",
	OpFRCP:    "frcp",
	OpFRSQR:   "frsqr",
	OpPFMUL3:  "pfmul3",
	OpFADD:    "fadd",
	OpFSUB:    "fsub",
	OpFAMOV:   "famov",
	OpPFGT:    "pfgt",
	OpPFLE:    "pfle",
	OpPFEQ:    "pfeq",
	OpFTRUNC:  "ftrunc",
	OpFXFR:    "fxfr",
	OpFIADD:   "fiadd",
	OpFISUB:   "fisub",
	OpFADDP:   "faddp",
	OpFADDZ:   "faddz",
	OpFZCHKL:  "fzchkl",
	OpFORM:    "form",
	OpFZCHKS:  "fzchks",
}

// String returns the assembler mnemonic of the operation.
func (o Op) String() string {
	if o >= NumOps {
		return "unknown"
	}
	return opNames[o]
}
