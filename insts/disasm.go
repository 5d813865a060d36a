package insts

import "fmt"

// Disassemble renders the instruction in assembler syntax, e.g.
// "addi x5, x0, 42" or "lw x10, 8(x5)". Unknown encodings render as a
// .word directive.
func (i *Instruction) Disassemble() string {
	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		switch {
		case i.Control.MemRead:
			return fmt.Sprintf("%s x%d, %d(x%d)", i.Op, i.Rd, int32(i.Imm), i.Rs1)
		case i.Control.IsJALR:
			return fmt.Sprintf("%s x%d, %d(x%d)", i.Op, i.Rd, int32(i.Imm), i.Rs1)
		case i.Op == OpSLLI || i.Op == OpSRLI || i.Op == OpSRAI:
			return fmt.Sprintf("%s x%d, x%d, %d", i.Op, i.Rd, i.Rs1, i.Imm)
		default:
			return fmt.Sprintf("%s x%d, x%d, %d", i.Op, i.Rd, i.Rs1, int32(i.Imm))
		}
	case FormatS:
		return fmt.Sprintf("%s x%d, %d(x%d)", i.Op, i.Rs2, int32(i.Imm), i.Rs1)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", i.Op, i.Rs1, i.Rs2, int32(i.Imm))
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", i.Op, i.Rd, i.Imm>>12)
	case FormatJ:
		return fmt.Sprintf("%s x%d, %d", i.Op, i.Rd, int32(i.Imm))
	default:
		return fmt.Sprintf(".word 0x%08x", i.Word)
	}
}
