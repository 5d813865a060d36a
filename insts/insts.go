// Package insts provides RV32IM instruction definitions and decoding.
//
// This package implements decoding of RV32 machine code into structured
// instruction representations. It supports the full RV32I base integer
// instruction set plus the RV32M multiply/divide extension:
//   - Integer register-immediate: ADDI, SLTI, SLTIU, XORI, ORI, ANDI, SLLI, SRLI, SRAI
//   - Integer register-register: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND
//   - Upper immediate: LUI, AUIPC
//   - Control transfer: JAL, JALR, BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - Loads and stores: LB, LH, LW, LBU, LHU, SB, SH, SW
//   - RV32M: MUL, MULH, MULHSU, MULHU, DIV, DIVU, REM, REMU
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500293) // ADDI x5, x0, 5
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", inst.Op, inst.Rd, int32(inst.Imm))
package insts

// Op represents an RV32IM opcode.
type Op uint16

// RV32IM opcodes.
const (
	OpUnknown Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpLUI:     "lui",
	OpAUIPC:   "auipc",
	OpJAL:     "jal",
	OpJALR:    "jalr",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpBLT:     "blt",
	OpBGE:     "bge",
	OpBLTU:    "bltu",
	OpBGEU:    "bgeu",
	OpLB:      "lb",
	OpLH:      "lh",
	OpLW:      "lw",
	OpLBU:     "lbu",
	OpLHU:     "lhu",
	OpSB:      "sb",
	OpSH:      "sh",
	OpSW:      "sw",
	OpADDI:    "addi",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpXORI:    "xori",
	OpORI:     "ori",
	OpANDI:    "andi",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpADD:     "add",
	OpSUB:     "sub",
	OpSLL:     "sll",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpXOR:     "xor",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpOR:      "or",
	OpAND:     "and",
	OpMUL:     "mul",
	OpMULH:    "mulh",
	OpMULHSU:  "mulhsu",
	OpMULHU:   "mulhu",
	OpDIV:     "div",
	OpDIVU:    "divu",
	OpREM:     "rem",
	OpREMU:    "remu",
}

// String returns the instruction mnemonic.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// Format represents an instruction encoding format.
type Format uint8

// RV32 instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // register-register
	FormatI              // register-immediate, loads, JALR
	FormatS              // stores
	FormatB              // conditional branches
	FormatU              // LUI, AUIPC
	FormatJ              // JAL
)

// ALUOp selects the ALU operation. The values follow the 5-bit encoding the
// control vector carries through the pipeline.
type ALUOp uint8

// ALU operations.
const (
	ALUAdd  ALUOp = 0b00000
	ALUSub  ALUOp = 0b00001
	ALUSll  ALUOp = 0b00010
	ALUSlt  ALUOp = 0b00011
	ALUXor  ALUOp = 0b00100
	ALUSrl  ALUOp = 0b00101
	ALUSra  ALUOp = 0b00110
	ALUSltu ALUOp = 0b00111
	ALUOr   ALUOp = 0b01000
	ALUAnd  ALUOp = 0b01001
)

// BranchOp selects the branch comparison. BranchNone marks a non-branch.
type BranchOp uint8

// Branch comparisons. Nonzero values mark the instruction as a branch.
const (
	BranchNone BranchOp = 0b000
	BranchEQ   BranchOp = 0b001
	BranchNE   BranchOp = 0b010
	BranchLT   BranchOp = 0b011
	BranchGE   BranchOp = 0b100
	BranchLTU  BranchOp = 0b101
	BranchGEU  BranchOp = 0b110
)

// MulOp selects the multiplier variant. MulNone marks a non-multiply.
type MulOp uint8

// Multiplier variants.
const (
	MulNone   MulOp = iota
	MulMUL          // low 32 bits, signed x signed
	MulMULH         // high 32 bits, signed x signed
	MulMULHSU       // high 32 bits, signed x unsigned
	MulMULHU        // high 32 bits, unsigned x unsigned
)

// DivOp selects the divider variant. DivNone marks a non-divide.
type DivOp uint8

// Divider variants.
const (
	DivNone DivOp = iota
	DivDIV        // signed quotient
	DivDIVU       // unsigned quotient
	DivREM        // signed remainder
	DivREMU       // unsigned remainder
)

// MemSize is the access width of a load or store.
type MemSize uint8

// Memory access widths.
const (
	SizeByte MemSize = iota
	SizeHalf
	SizeWord
)

// Control is the decoded control vector. The spec-level packed control word
// is realized as named fields; decoding is total, so a zero Control is the
// NOP bubble.
type Control struct {
	// Writeback and memory enables.
	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool

	// ALU operation and operand selection.
	ALUOp     ALUOp
	ALUSrcImm bool

	// Instruction class flags.
	IsBranch bool
	IsJump   bool // JAL
	IsJALR   bool
	IsLUI    bool
	IsAUIPC  bool

	// Operand usage, for hazard detection.
	NeedsRs1 bool
	NeedsRs2 bool

	// Memory access widths. LoadUnsigned selects zero extension for LBU/LHU.
	StoreSize    MemSize
	LoadSize     MemSize
	LoadUnsigned bool

	// Sub-unit dispatch.
	BranchOp BranchOp
	MulOp    MulOp
	DivOp    DivOp
}

// IsLoad reports whether the instruction reads data memory.
func (c *Control) IsLoad() bool { return c.MemRead }

// IsStore reports whether the instruction writes data memory.
func (c *Control) IsStore() bool { return c.MemWrite }

// IsMul reports whether the instruction uses the multiplier.
func (c *Control) IsMul() bool { return c.MulOp != MulNone }

// IsDiv reports whether the instruction uses the divider.
func (c *Control) IsDiv() bool { return c.DivOp != DivNone }

// Instruction represents a decoded RV32IM instruction.
type Instruction struct {
	// Word is the raw 32-bit encoding.
	Word uint32

	Op     Op
	Format Format

	// Register fields. Rd is the destination, Rs1/Rs2 the sources.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm is the sign-extended immediate, stored as the 32-bit pattern.
	Imm uint32

	// Control carries the synthesized control signals.
	Control Control
}

// String returns a short human-readable form for trace output.
func (i *Instruction) String() string {
	return i.Op.String()
}
