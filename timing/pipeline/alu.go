package pipeline

import "github.com/sarchlab/rv32sim/insts"

// ALU implements the RV32I integer operations. All arithmetic is modulo
// 2^32; shift amounts use the low 5 bits of operand B.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute computes op(a, b).
func (alu *ALU) Execute(op insts.ALUOp, a, b uint32) uint32 {
	switch op {
	case insts.ALUAdd:
		return a + b
	case insts.ALUSub:
		return a - b
	case insts.ALUSll:
		return a << (b & 0x1F)
	case insts.ALUSlt:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.ALUXor:
		return a ^ b
	case insts.ALUSrl:
		return a >> (b & 0x1F)
	case insts.ALUSra:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.ALUSltu:
		if a < b {
			return 1
		}
		return 0
	case insts.ALUOr:
		return a | b
	case insts.ALUAnd:
		return a & b
	default:
		return 0
	}
}

// BranchTaken evaluates a branch comparison. BranchNone is never taken.
func (alu *ALU) BranchTaken(op insts.BranchOp, a, b uint32) bool {
	switch op {
	case insts.BranchEQ:
		return a == b
	case insts.BranchNE:
		return a != b
	case insts.BranchLT:
		return int32(a) < int32(b)
	case insts.BranchGE:
		return int32(a) >= int32(b)
	case insts.BranchLTU:
		return a < b
	case insts.BranchGEU:
		return a >= b
	default:
		return false
	}
}
