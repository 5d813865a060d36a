package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Disassemble", func() {
	decoder := insts.NewDecoder()

	DescribeTable("renders assembler syntax",
		func(word uint32, want string) {
			Expect(decoder.Decode(word).Disassemble()).To(Equal(want))
		},
		Entry("addi", uint32(0x02A00293), "addi x5, x0, 42"),
		Entry("negative immediate", uint32(0xFFF30293), "addi x5, x6, -1"),
		Entry("add", uint32(0x00628533), "add x10, x5, x6"),
		Entry("mul", uint32(0x02628533), "mul x10, x5, x6"),
		Entry("load", uint32(0x0082A503), "lw x10, 8(x5)"),
		Entry("store", uint32(0x0062A623), "sw x6, 12(x5)"),
		Entry("branch", uint32(0xFE629CE3), "bne x5, x6, -8"),
		Entry("lui", uint32(0x800002B7), "lui x5, 0x80000"),
		Entry("jal", uint32(0x0000006F), "jal x0, 0"),
		Entry("jalr", uint32(0x00008067), "jalr x0, 0(x1)"),
		Entry("slli uses an unsigned amount", uint32(0x00331293), "slli x5, x6, 3"),
		Entry("unknown word", uint32(0x00000000), ".word 0x00000000"),
	)
})
