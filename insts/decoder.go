package insts

// RV32 base opcode values (instruction bits [6:0]).
const (
	opcodeLUI    = 0b0110111
	opcodeAUIPC  = 0b0010111
	opcodeJAL    = 0b1101111
	opcodeJALR   = 0b1100111
	opcodeBranch = 0b1100011
	opcodeLoad   = 0b0000011
	opcodeStore  = 0b0100011
	opcodeOpImm  = 0b0010011
	opcodeOp     = 0b0110011
)

// funct7 value selecting the RV32M extension within the OP opcode.
const funct7MulDiv = 0b0000001

// Decoder decodes RV32IM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32IM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32 instruction word. Decoding is total: an
// unrecognized encoding yields an instruction with Op == OpUnknown and an
// all-zero control vector, which the pipeline treats as a NOP.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Word: word,
		Op:   OpUnknown,
		Rd:   uint8((word >> 7) & 0x1F),
		Rs1:  uint8((word >> 15) & 0x1F),
		Rs2:  uint8((word >> 20) & 0x1F),
	}

	switch word & 0x7F {
	case opcodeLUI:
		d.decodeLUI(word, inst)
	case opcodeAUIPC:
		d.decodeAUIPC(word, inst)
	case opcodeJAL:
		d.decodeJAL(word, inst)
	case opcodeJALR:
		d.decodeJALR(word, inst)
	case opcodeBranch:
		d.decodeBranch(word, inst)
	case opcodeLoad:
		d.decodeLoad(word, inst)
	case opcodeStore:
		d.decodeStore(word, inst)
	case opcodeOpImm:
		d.decodeOpImm(word, inst)
	case opcodeOp:
		d.decodeOp(word, inst)
	}

	if inst.Op == OpUnknown {
		// Strip register fields so an undecodable word cannot create
		// phantom hazards.
		inst.Rd = 0
		inst.Rs1 = 0
		inst.Rs2 = 0
		inst.Control = Control{}
	}

	return inst
}

// immI extracts the sign-extended I-format immediate.
func immI(word uint32) uint32 {
	return uint32(int32(word) >> 20)
}

// immS extracts the sign-extended S-format immediate.
func immS(word uint32) uint32 {
	return uint32(int32(word&0xFE000000)>>20) | ((word >> 7) & 0x1F)
}

// immB extracts the sign-extended B-format immediate (bit 0 is zero).
func immB(word uint32) uint32 {
	imm := uint32(int32(word&0x80000000)>>19) | // imm[12]
		((word << 4) & 0x0800) | // imm[11] from bit 7
		((word >> 20) & 0x07E0) | // imm[10:5]
		((word >> 7) & 0x001E) // imm[4:1]
	return imm
}

// immU extracts the U-format immediate (upper 20 bits in place).
func immU(word uint32) uint32 {
	return word & 0xFFFFF000
}

// immJ extracts the sign-extended J-format immediate (bit 0 is zero).
func immJ(word uint32) uint32 {
	imm := uint32(int32(word&0x80000000)>>11) | // imm[20]
		(word & 0x000FF000) | // imm[19:12]
		((word >> 9) & 0x0800) | // imm[11] from bit 20
		((word >> 20) & 0x07FE) // imm[10:1]
	return imm
}

func funct3(word uint32) uint32 { return (word >> 12) & 0x7 }
func funct7(word uint32) uint32 { return (word >> 25) & 0x7F }

func (d *Decoder) decodeLUI(word uint32, inst *Instruction) {
	inst.Op = OpLUI
	inst.Format = FormatU
	inst.Imm = immU(word)
	inst.Control = Control{
		RegWrite:  inst.Rd != 0,
		ALUSrcImm: true,
		IsLUI:     true,
	}
}

func (d *Decoder) decodeAUIPC(word uint32, inst *Instruction) {
	inst.Op = OpAUIPC
	inst.Format = FormatU
	inst.Imm = immU(word)
	inst.Control = Control{
		RegWrite:  inst.Rd != 0,
		ALUOp:     ALUAdd,
		ALUSrcImm: true,
		IsAUIPC:   true,
	}
}

func (d *Decoder) decodeJAL(word uint32, inst *Instruction) {
	inst.Op = OpJAL
	inst.Format = FormatJ
	inst.Imm = immJ(word)
	inst.Control = Control{
		RegWrite:  inst.Rd != 0,
		ALUSrcImm: true,
		IsJump:    true,
	}
}

func (d *Decoder) decodeJALR(word uint32, inst *Instruction) {
	if funct3(word) != 0 {
		return
	}
	inst.Op = OpJALR
	inst.Format = FormatI
	inst.Imm = immI(word)
	inst.Control = Control{
		RegWrite:  inst.Rd != 0,
		ALUSrcImm: true,
		IsJALR:    true,
		NeedsRs1:  true,
	}
}

func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	var op Op
	var branchOp BranchOp
	switch funct3(word) {
	case 0b000:
		op, branchOp = OpBEQ, BranchEQ
	case 0b001:
		op, branchOp = OpBNE, BranchNE
	case 0b100:
		op, branchOp = OpBLT, BranchLT
	case 0b101:
		op, branchOp = OpBGE, BranchGE
	case 0b110:
		op, branchOp = OpBLTU, BranchLTU
	case 0b111:
		op, branchOp = OpBGEU, BranchGEU
	default:
		return
	}
	inst.Op = op
	inst.Format = FormatB
	inst.Imm = immB(word)
	inst.Control = Control{
		IsBranch: true,
		BranchOp: branchOp,
		NeedsRs1: true,
		NeedsRs2: true,
	}
}

func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	var op Op
	var size MemSize
	var unsigned bool
	switch funct3(word) {
	case 0b000:
		op, size = OpLB, SizeByte
	case 0b001:
		op, size = OpLH, SizeHalf
	case 0b010:
		op, size = OpLW, SizeWord
	case 0b100:
		op, size, unsigned = OpLBU, SizeByte, true
	case 0b101:
		op, size, unsigned = OpLHU, SizeHalf, true
	default:
		return
	}
	inst.Op = op
	inst.Format = FormatI
	inst.Imm = immI(word)
	inst.Control = Control{
		RegWrite:     inst.Rd != 0,
		MemRead:      true,
		MemToReg:     true,
		ALUOp:        ALUAdd,
		ALUSrcImm:    true,
		NeedsRs1:     true,
		LoadSize:     size,
		LoadUnsigned: unsigned,
	}
}

func (d *Decoder) decodeStore(word uint32, inst *Instruction) {
	var op Op
	var size MemSize
	switch funct3(word) {
	case 0b000:
		op, size = OpSB, SizeByte
	case 0b001:
		op, size = OpSH, SizeHalf
	case 0b010:
		op, size = OpSW, SizeWord
	default:
		return
	}
	inst.Op = op
	inst.Format = FormatS
	inst.Imm = immS(word)
	inst.Rd = 0 // stores have no destination
	inst.Control = Control{
		MemWrite:  true,
		ALUOp:     ALUAdd,
		ALUSrcImm: true,
		NeedsRs1:  true,
		NeedsRs2:  true,
		StoreSize: size,
	}
}

func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	var op Op
	var aluOp ALUOp
	shift := false
	switch funct3(word) {
	case 0b000:
		op, aluOp = OpADDI, ALUAdd
	case 0b010:
		op, aluOp = OpSLTI, ALUSlt
	case 0b011:
		op, aluOp = OpSLTIU, ALUSltu
	case 0b100:
		op, aluOp = OpXORI, ALUXor
	case 0b110:
		op, aluOp = OpORI, ALUOr
	case 0b111:
		op, aluOp = OpANDI, ALUAnd
	case 0b001:
		if funct7(word) != 0 {
			return
		}
		op, aluOp, shift = OpSLLI, ALUSll, true
	case 0b101:
		switch funct7(word) {
		case 0b0000000:
			op, aluOp, shift = OpSRLI, ALUSrl, true
		case 0b0100000:
			op, aluOp, shift = OpSRAI, ALUSra, true
		default:
			return
		}
	}
	inst.Op = op
	inst.Format = FormatI
	if shift {
		// Shift-immediate encodings carry the amount in rs2's field.
		inst.Imm = (word >> 20) & 0x1F
	} else {
		inst.Imm = immI(word)
	}
	inst.Control = Control{
		RegWrite:  inst.Rd != 0,
		ALUOp:     aluOp,
		ALUSrcImm: true,
		NeedsRs1:  true,
	}
}

func (d *Decoder) decodeOp(word uint32, inst *Instruction) {
	if funct7(word) == funct7MulDiv {
		d.decodeMulDiv(word, inst)
		return
	}

	var op Op
	var aluOp ALUOp
	switch funct3(word) {
	case 0b000:
		switch funct7(word) {
		case 0b0000000:
			op, aluOp = OpADD, ALUAdd
		case 0b0100000:
			op, aluOp = OpSUB, ALUSub
		default:
			return
		}
	case 0b001:
		if funct7(word) != 0 {
			return
		}
		op, aluOp = OpSLL, ALUSll
	case 0b010:
		if funct7(word) != 0 {
			return
		}
		op, aluOp = OpSLT, ALUSlt
	case 0b011:
		if funct7(word) != 0 {
			return
		}
		op, aluOp = OpSLTU, ALUSltu
	case 0b100:
		if funct7(word) != 0 {
			return
		}
		op, aluOp = OpXOR, ALUXor
	case 0b101:
		switch funct7(word) {
		case 0b0000000:
			op, aluOp = OpSRL, ALUSrl
		case 0b0100000:
			op, aluOp = OpSRA, ALUSra
		default:
			return
		}
	case 0b110:
		if funct7(word) != 0 {
			return
		}
		op, aluOp = OpOR, ALUOr
	case 0b111:
		if funct7(word) != 0 {
			return
		}
		op, aluOp = OpAND, ALUAnd
	}
	inst.Op = op
	inst.Format = FormatR
	inst.Control = Control{
		RegWrite: inst.Rd != 0,
		ALUOp:    aluOp,
		NeedsRs1: true,
		NeedsRs2: true,
	}
}

func (d *Decoder) decodeMulDiv(word uint32, inst *Instruction) {
	var op Op
	var mulOp MulOp
	var divOp DivOp
	switch funct3(word) {
	case 0b000:
		op, mulOp = OpMUL, MulMUL
	case 0b001:
		op, mulOp = OpMULH, MulMULH
	case 0b010:
		op, mulOp = OpMULHSU, MulMULHSU
	case 0b011:
		op, mulOp = OpMULHU, MulMULHU
	case 0b100:
		op, divOp = OpDIV, DivDIV
	case 0b101:
		op, divOp = OpDIVU, DivDIVU
	case 0b110:
		op, divOp = OpREM, DivREM
	case 0b111:
		op, divOp = OpREMU, DivREMU
	}
	inst.Op = op
	inst.Format = FormatR
	inst.Control = Control{
		RegWrite: inst.Rd != 0,
		NeedsRs1: true,
		NeedsRs2: true,
		MulOp:    mulOp,
		DivOp:    divOp,
	}
}
