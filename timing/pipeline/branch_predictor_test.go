package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor(pipeline.DefaultBranchPredictorConfig())
	})

	Describe("prediction", func() {
		It("should initially predict not taken", func() {
			pred := bp.Predict(0x100)
			Expect(pred.BTBHit).To(BeFalse())
			Expect(pred.Taken).To(BeFalse())
			Expect(pred.NextPC).To(Equal(uint32(0x104)))
		})

		It("should learn a taken branch after one update", func() {
			pc := uint32(0x100)
			target := uint32(0x40)

			bp.Update(pc, true, target)
			// Counter at weakly taken now; BTB holds the target.
			pred := bp.Predict(pc)
			Expect(pred.BTBHit).To(BeTrue())
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.NextPC).To(Equal(target))
		})

		It("should fall through while predicting not taken despite a BTB hit", func() {
			pc := uint32(0x100)
			bp.Update(pc, false, 0) // counter 1 -> 0, BTB validated
			pred := bp.Predict(pc)
			Expect(pred.BTBHit).To(BeTrue())
			Expect(pred.Taken).To(BeFalse())
			Expect(pred.NextPC).To(Equal(pc + 4))
		})

		It("should expose updated targets to subsequent lookups at the same index", func() {
			pc := uint32(0x200)
			bp.Update(pc, true, 0x1000)
			bp.Update(pc, true, 0x2000)
			target, valid, _ := bp.Entry(pc)
			Expect(valid).To(BeTrue())
			Expect(target).To(Equal(uint32(0x2000)))
		})
	})

	Describe("2-bit saturating counter", func() {
		It("should saturate at strongly taken", func() {
			pc := uint32(0x100)
			for i := 0; i < 10; i++ {
				bp.Update(pc, true, 0x40)
			}
			_, _, counter := bp.Entry(pc)
			Expect(counter).To(Equal(uint8(3)))

			bp.Update(pc, true, 0x40)
			_, _, counter = bp.Entry(pc)
			Expect(counter).To(Equal(uint8(3)))
		})

		It("should saturate at strongly not taken", func() {
			pc := uint32(0x100)
			for i := 0; i < 10; i++ {
				bp.Update(pc, false, 0)
			}
			_, _, counter := bp.Entry(pc)
			Expect(counter).To(Equal(uint8(0)))
		})

		It("should require two mispredictions to flip direction", func() {
			pc := uint32(0x100)

			// Train to strongly taken.
			for i := 0; i < 3; i++ {
				bp.Update(pc, true, 0x40)
			}

			// One not-taken: still predicts taken.
			bp.Update(pc, false, 0)
			Expect(bp.Predict(pc).Taken).To(BeTrue())

			// A second not-taken flips the prediction.
			bp.Update(pc, false, 0)
			Expect(bp.Predict(pc).Taken).To(BeFalse())
		})
	})

	Describe("indexing", func() {
		It("should index by PC[7:2] so entries 256 bytes apart alias", func() {
			bp.Update(0x0, true, 0x40)

			aliased := bp.Predict(0x100) // same index as 0x0
			Expect(aliased.BTBHit).To(BeTrue())
			Expect(aliased.Target).To(Equal(uint32(0x40)))

			neighbor := bp.Predict(0x4)
			Expect(neighbor.BTBHit).To(BeFalse())
		})

		It("should have 64 entries by default", func() {
			Expect(bp.Entries()).To(Equal(uint32(64)))
		})
	})

	Describe("statistics", func() {
		It("should count direction outcomes", func() {
			pc := uint32(0x100)
			bp.Update(pc, true, 0x40)  // predicted not taken -> mispredict
			bp.Update(pc, true, 0x40)  // counter now 2 -> correct
			bp.Update(pc, false, 0)    // predicted taken -> mispredict

			stats := bp.Stats()
			Expect(stats.Updates).To(Equal(uint64(3)))
			Expect(stats.Mispredictions).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(1)))
		})
	})

	Describe("Reset", func() {
		It("should return to the power-on state", func() {
			bp.Update(0x100, true, 0x40)
			bp.Reset()

			pred := bp.Predict(0x100)
			Expect(pred.BTBHit).To(BeFalse())
			Expect(pred.Taken).To(BeFalse())
			Expect(bp.Stats().Updates).To(Equal(uint64(0)))
		})
	})
})
