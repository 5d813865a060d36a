package pipeline_test

// Hand-assembly helpers for building test programs. Register arguments are
// architectural register numbers; immediates are byte offsets or signed
// values as the instruction expects.

func encR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encI(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encS(imm int32, rs2, rs1, funct3 uint32) uint32 {
	i := uint32(imm)
	return (i>>5&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (i&0x1F)<<7 | 0x23
}

func encB(imm int32, rs2, rs1, funct3 uint32) uint32 {
	i := uint32(imm)
	return (i>>12&0x1)<<31 | (i>>5&0x3F)<<25 | rs2<<20 | rs1<<15 |
		funct3<<12 | (i>>1&0xF)<<8 | (i>>11&0x1)<<7 | 0x63
}

func encJ(imm int32, rd uint32) uint32 {
	i := uint32(imm)
	return (i>>20&0x1)<<31 | (i>>1&0x3FF)<<21 | (i>>11&0x1)<<20 |
		(i>>12&0xFF)<<12 | rd<<7 | 0x6F
}

func addi(rd, rs1 uint32, imm int32) uint32 { return encI(imm, rs1, 0b000, rd, 0x13) }
func slli(rd, rs1 uint32, sh int32) uint32  { return encI(sh, rs1, 0b001, rd, 0x13) }
func srai(rd, rs1 uint32, sh int32) uint32 {
	return encI(sh, rs1, 0b101, rd, 0x13) | 0x40000000
}

func add(rd, rs1, rs2 uint32) uint32  { return encR(0, rs2, rs1, 0b000, rd, 0x33) }
func sub(rd, rs1, rs2 uint32) uint32  { return encR(0x20, rs2, rs1, 0b000, rd, 0x33) }
func slt(rd, rs1, rs2 uint32) uint32  { return encR(0, rs2, rs1, 0b010, rd, 0x33) }
func sltu(rd, rs1, rs2 uint32) uint32 { return encR(0, rs2, rs1, 0b011, rd, 0x33) }
func xor(rd, rs1, rs2 uint32) uint32  { return encR(0, rs2, rs1, 0b100, rd, 0x33) }

func mul(rd, rs1, rs2 uint32) uint32    { return encR(1, rs2, rs1, 0b000, rd, 0x33) }
func mulh(rd, rs1, rs2 uint32) uint32   { return encR(1, rs2, rs1, 0b001, rd, 0x33) }
func div(rd, rs1, rs2 uint32) uint32    { return encR(1, rs2, rs1, 0b100, rd, 0x33) }
func divu(rd, rs1, rs2 uint32) uint32   { return encR(1, rs2, rs1, 0b101, rd, 0x33) }
func rem(rd, rs1, rs2 uint32) uint32    { return encR(1, rs2, rs1, 0b110, rd, 0x33) }
func remu(rd, rs1, rs2 uint32) uint32   { return encR(1, rs2, rs1, 0b111, rd, 0x33) }

func lui(rd uint32, imm20 uint32) uint32 { return imm20<<12 | rd<<7 | 0x37 }
func auipc(rd uint32, imm20 uint32) uint32 { return imm20<<12 | rd<<7 | 0x17 }

func lw(rd, rs1 uint32, imm int32) uint32  { return encI(imm, rs1, 0b010, rd, 0x03) }
func lb(rd, rs1 uint32, imm int32) uint32  { return encI(imm, rs1, 0b000, rd, 0x03) }
func lbu(rd, rs1 uint32, imm int32) uint32 { return encI(imm, rs1, 0b100, rd, 0x03) }
func lh(rd, rs1 uint32, imm int32) uint32  { return encI(imm, rs1, 0b001, rd, 0x03) }
func lhu(rd, rs1 uint32, imm int32) uint32 { return encI(imm, rs1, 0b101, rd, 0x03) }

func sw(rs2, rs1 uint32, imm int32) uint32 { return encS(imm, rs2, rs1, 0b010) }
func sh(rs2, rs1 uint32, imm int32) uint32 { return encS(imm, rs2, rs1, 0b001) }
func sb(rs2, rs1 uint32, imm int32) uint32 { return encS(imm, rs2, rs1, 0b000) }

func beq(rs1, rs2 uint32, imm int32) uint32  { return encB(imm, rs2, rs1, 0b000) }
func bne(rs1, rs2 uint32, imm int32) uint32  { return encB(imm, rs2, rs1, 0b001) }
func blt(rs1, rs2 uint32, imm int32) uint32  { return encB(imm, rs2, rs1, 0b100) }
func bge(rs1, rs2 uint32, imm int32) uint32  { return encB(imm, rs2, rs1, 0b101) }

func jal(rd uint32, imm int32) uint32       { return encJ(imm, rd) }
func jalr(rd, rs1 uint32, imm int32) uint32 { return encI(imm, rs1, 0b000, rd, 0x67) }

// done is the jump-to-self termination sentinel.
func done() uint32 { return jal(0, 0) }
