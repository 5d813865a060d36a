package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// runMul drives an issued multiplier to completion and returns the result
// together with the number of Tick calls it took.
func runMul(m *pipeline.Multiplier) (uint32, int) {
	ticks := 0
	for {
		ticks++
		if m.Tick() {
			return m.Result(), ticks
		}
		if ticks > 10 {
			Fail("multiplier never completed")
		}
	}
}

var _ = Describe("Multiplier", func() {
	var m *pipeline.Multiplier

	BeforeEach(func() {
		m = pipeline.NewMultiplier()
	})

	It("should be idle initially", func() {
		Expect(m.Busy()).To(BeFalse())
	})

	It("should complete in exactly 3 EX cycles from issue", func() {
		m.Start(insts.MulMUL, 15, 17, 10)
		Expect(m.Busy()).To(BeTrue())

		// Issue cycle is stage 1; two more ticks finish stages 2 and 3.
		Expect(m.Tick()).To(BeFalse())
		Expect(m.Tick()).To(BeTrue())
		Expect(m.Result()).To(Equal(uint32(255)))
		Expect(m.Busy()).To(BeFalse())
	})

	DescribeTable("MUL low-word results",
		func(a, b, want uint32) {
			m.Start(insts.MulMUL, a, b, 1)
			result, _ := runMul(m)
			Expect(result).To(Equal(want))
		},
		Entry("small operands", uint32(15), uint32(17), uint32(255)),
		Entry("zero operand", uint32(0), uint32(12345), uint32(0)),
		Entry("negative times positive", uint32(0xFFFFFFFF), uint32(5), uint32(0xFFFFFFFB)),
		Entry("negative times negative", uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(1)),
		Entry("low-word truncation", uint32(0x80000000), uint32(2), uint32(0)),
		Entry("large unsigned pattern", uint32(0x12345678), uint32(0x1000), uint32(0x45678000)),
	)

	DescribeTable("high-word variants",
		func(kind insts.MulOp, a, b, want uint32) {
			m.Start(kind, a, b, 1)
			result, _ := runMul(m)
			Expect(result).To(Equal(want))
		},
		Entry("MULH of -1 and -1", insts.MulMULH,
			uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(0)),
		Entry("MULH of INT_MIN squared", insts.MulMULH,
			uint32(0x80000000), uint32(0x80000000), uint32(0x40000000)),
		Entry("MULH of INT_MIN and 2", insts.MulMULH,
			uint32(0x80000000), uint32(2), uint32(0xFFFFFFFF)),
		Entry("MULHU of max operands", insts.MulMULHU,
			uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(0xFFFFFFFE)),
		Entry("MULHU keeps sign bits unsigned", insts.MulMULHU,
			uint32(0x80000000), uint32(2), uint32(1)),
		Entry("MULHSU of -1 and max unsigned", insts.MulMULHSU,
			uint32(0xFFFFFFFF), uint32(0xFFFFFFFF), uint32(0xFFFFFFFF)),
		Entry("MULHSU of positive operands", insts.MulMULHSU,
			uint32(0x40000000), uint32(4), uint32(1)),
	)

	It("should remember the destination register", func() {
		m.Start(insts.MulMUL, 3, 4, 23)
		Expect(m.Rd()).To(Equal(uint8(23)))
	})

	It("should discard the operation on cancel", func() {
		m.Start(insts.MulMUL, 3, 4, 5)
		m.Cancel()
		Expect(m.Busy()).To(BeFalse())
		Expect(m.Tick()).To(BeFalse())
	})
})
