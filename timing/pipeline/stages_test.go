package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// idexFor builds an ID/EX entry for a decoded word at a PC with a given
// fetch-time prediction.
func idexFor(word uint32, pc uint32, pred pipeline.PredictionInfo) pipeline.IDEXRegister {
	inst := insts.NewDecoder().Decode(word)
	return pipeline.IDEXRegister{
		Valid:      true,
		PC:         pc,
		Inst:       inst,
		Rd:         inst.Rd,
		Rs1:        inst.Rs1,
		Rs2:        inst.Rs2,
		Imm:        inst.Imm,
		Prediction: pred,
	}
}

var _ = Describe("ExecuteStage", func() {
	var ex *pipeline.ExecuteStage

	BeforeEach(func() {
		ex = pipeline.NewExecuteStage()
	})

	Describe("branch prediction verification", func() {
		// BEQ x5, x5, +16 at PC 0x100: always taken, target 0x110.
		branch := beq(5, 5, 16)

		It("should accept a correct taken prediction", func() {
			idex := idexFor(branch, 0x100, pipeline.PredictionInfo{
				BTBHit: true, PredictTaken: true, PredictedPC: 0x110,
			})
			result := ex.Execute(&idex, 1, 1)

			Expect(result.Prediction.Mispredict).To(BeFalse())
			Expect(result.Prediction.ActualTaken).To(BeTrue())
			Expect(result.Prediction.ActualTarget).To(Equal(uint32(0x110)))
		})

		It("should mispredict on a wrong cached target", func() {
			idex := idexFor(branch, 0x100, pipeline.PredictionInfo{
				BTBHit: true, PredictTaken: true, PredictedPC: 0x200,
			})
			result := ex.Execute(&idex, 1, 1)

			Expect(result.Prediction.Mispredict).To(BeTrue())
			Expect(result.Prediction.CorrectPC).To(Equal(uint32(0x110)))
		})

		It("should mispredict a taken branch predicted not taken on a BTB hit", func() {
			idex := idexFor(branch, 0x100, pipeline.PredictionInfo{
				BTBHit: true, PredictTaken: false, PredictedPC: 0x104,
			})
			result := ex.Execute(&idex, 1, 1)

			Expect(result.Prediction.Mispredict).To(BeTrue())
		})

		It("should mispredict a taken branch on a BTB miss", func() {
			idex := idexFor(branch, 0x100, pipeline.PredictionInfo{PredictedPC: 0x104})
			result := ex.Execute(&idex, 1, 1)

			Expect(result.Prediction.Mispredict).To(BeTrue())
			Expect(result.Prediction.CorrectPC).To(Equal(uint32(0x110)))
		})

		It("should accept a not-taken branch on a BTB miss", func() {
			// BEQ with unequal operands: not taken.
			idex := idexFor(branch, 0x100, pipeline.PredictionInfo{PredictedPC: 0x104})
			result := ex.Execute(&idex, 1, 2)

			Expect(result.Prediction.Mispredict).To(BeFalse())
			Expect(result.Prediction.ActualTaken).To(BeFalse())
			Expect(result.Prediction.CorrectPC).To(Equal(uint32(0x104)))
		})
	})

	Describe("jumps", func() {
		It("should always flush JAL with the link in the ALU result", func() {
			idex := idexFor(jal(1, 0x20), 0x100, pipeline.PredictionInfo{})
			result := ex.Execute(&idex, 0, 0)

			Expect(result.Prediction.Mispredict).To(BeTrue())
			Expect(result.Prediction.IsJump).To(BeTrue())
			Expect(result.Prediction.CorrectPC).To(Equal(uint32(0x120)))
			Expect(result.ALUResult).To(Equal(uint32(0x104)))
		})

		It("should clear bit 0 of the JALR target", func() {
			idex := idexFor(jalr(0, 5, 3), 0x100, pipeline.PredictionInfo{})
			result := ex.Execute(&idex, 0x1000, 0)

			Expect(result.Prediction.IsJALR).To(BeTrue())
			Expect(result.Prediction.CorrectPC).To(Equal(uint32(0x1002)))
		})
	})

	Describe("untagged BTB aliasing", func() {
		It("should squash a redirect carried by a non-branch", func() {
			idex := idexFor(addi(10, 0, 7), 0x100, pipeline.PredictionInfo{
				BTBHit: true, PredictTaken: true, PredictedPC: 0x40,
			})
			result := ex.Execute(&idex, 0, 0)

			Expect(result.Prediction.Mispredict).To(BeTrue())
			Expect(result.Prediction.IsBranch).To(BeFalse())
			Expect(result.Prediction.CorrectPC).To(Equal(uint32(0x104)))
			Expect(result.ALUResult).To(Equal(uint32(7)))
		})

		It("should not disturb a non-branch without a redirect", func() {
			idex := idexFor(addi(10, 0, 7), 0x100, pipeline.PredictionInfo{
				BTBHit: true, PredictTaken: false, PredictedPC: 0x104,
			})
			result := ex.Execute(&idex, 0, 0)

			Expect(result.Prediction.Mispredict).To(BeFalse())
		})
	})

	It("should carry the forwarded rs2 as store data", func() {
		idex := idexFor(sw(6, 5, 4), 0x100, pipeline.PredictionInfo{})
		result := ex.Execute(&idex, 0x40, 0xDEAD)

		Expect(result.ALUResult).To(Equal(uint32(0x44)))
		Expect(result.StoreValue).To(Equal(uint32(0xDEAD)))
	})
})

var _ = Describe("MemoryStage and WritebackStage", func() {
	var (
		dmem *emu.DataMemory
		mem  *pipeline.MemoryStage
		rf   *emu.RegFile
		wb   *pipeline.WritebackStage
	)

	BeforeEach(func() {
		dmem = emu.NewDataMemory(256)
		mem = pipeline.NewMemoryStage(dmem)
		rf = &emu.RegFile{}
		wb = pipeline.NewWritebackStage(rf)
	})

	It("should pass non-memory instructions through", func() {
		exmem := pipeline.EXMEMRegister{
			Valid: true, Inst: insts.NewDecoder().Decode(addi(5, 0, 1)),
			ALUResult: 42,
		}
		data, err := mem.Access(&exmem)
		Expect(err).ToNot(HaveOccurred())
		Expect(data).To(Equal(uint32(0)))
	})

	It("should deliver the stored word to a later load", func() {
		store := pipeline.EXMEMRegister{
			Valid: true, Inst: insts.NewDecoder().Decode(sw(6, 5, 0)),
			MemWrite: true, ALUResult: 0x80, StoreValue: 0xFEED,
		}
		_, err := mem.Access(&store)
		Expect(err).ToNot(HaveOccurred())

		load := pipeline.EXMEMRegister{
			Valid: true, Inst: insts.NewDecoder().Decode(lw(7, 5, 0)),
			MemRead: true, ALUResult: 0x80,
		}
		data, err := mem.Access(&load)
		Expect(err).ToNot(HaveOccurred())
		Expect(data).To(Equal(uint32(0xFEED)))
	})

	It("should select memory data for loads at writeback", func() {
		memwb := pipeline.MEMWBRegister{
			Valid: true, RegWrite: true, MemToReg: true,
			Rd: 7, ALUResult: 0x80, MemData: 0xBEEF,
		}
		value, wrote := wb.Writeback(&memwb)
		Expect(wrote).To(BeTrue())
		Expect(value).To(Equal(uint32(0xBEEF)))
		Expect(rf.Read(7)).To(Equal(uint32(0xBEEF)))
	})

	It("should not write back bubbles or x0", func() {
		_, wrote := wb.Writeback(&pipeline.MEMWBRegister{})
		Expect(wrote).To(BeFalse())

		memwb := pipeline.MEMWBRegister{Valid: true, RegWrite: true, Rd: 0, ALUResult: 9}
		_, wrote = wb.Writeback(&memwb)
		Expect(wrote).To(BeFalse())
		Expect(rf.Read(0)).To(Equal(uint32(0)))
	})
})
