package pipeline

import (
	"fmt"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// FetchStage handles instruction fetch and the fetch-time predictor lookup.
type FetchStage struct {
	imem *emu.InstructionMemory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(imem *emu.InstructionMemory) *FetchStage {
	return &FetchStage{imem: imem}
}

// Fetch reads the instruction word at the given PC.
func (s *FetchStage) Fetch(pc uint32) (uint32, error) {
	return s.imem.Fetch(pc)
}

// DecodeStage handles instruction decode and register read.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// Decode decodes the fetched word and reads the register file. Because
// writeback runs earlier in the same driver cycle, a same-cycle WB write is
// visible to the read (the classic write-first-half register file).
func (s *DecodeStage) Decode(ifid *IFIDRegister) IDEXRegister {
	inst := s.decoder.Decode(ifid.InstructionWord)

	return IDEXRegister{
		Valid:      true,
		PC:         ifid.PC,
		Inst:       inst,
		Rs1Value:   s.regFile.Read(inst.Rs1),
		Rs2Value:   s.regFile.Read(inst.Rs2),
		Rd:         inst.Rd,
		Rs1:        inst.Rs1,
		Rs2:        inst.Rs2,
		Imm:        inst.Imm,
		Prediction: ifid.Prediction,
	}
}

// ExecuteResult holds the result of the execute stage for a single-cycle
// instruction.
type ExecuteResult struct {
	// ALUResult is the computed value: ALU output, load/store address,
	// upper immediate, or link address.
	ALUResult uint32

	// StoreValue is the forwarded rs2 value (store data).
	StoreValue uint32

	// Prediction is the verification verdict for branches and jumps.
	Prediction PredictionResult
}

// ExecuteStage handles ALU operations, address calculation, and branch
// resolution with prediction verification.
type ExecuteStage struct {
	alu *ALU
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{alu: NewALU()}
}

// Execute runs the instruction in ID/EX with forwarded operand values.
// Multi-cycle multiply/divide operations are issued by the driver and do
// not pass through here.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rs1, rs2 uint32) ExecuteResult {
	result := ExecuteResult{StoreValue: rs2}
	ctrl := idex.Control()

	switch {
	case ctrl.IsBranch:
		s.resolveBranch(idex, rs1, rs2, &result)
	case ctrl.IsJump:
		result.ALUResult = idex.PC + 4
		result.Prediction = PredictionResult{
			Mispredict:   true,
			ActualTaken:  true,
			ActualTarget: idex.PC + idex.Imm,
			CorrectPC:    idex.PC + idex.Imm,
			PC:           idex.PC,
			IsJump:       true,
		}
	case ctrl.IsJALR:
		target := (rs1 + idex.Imm) &^ 1
		result.ALUResult = idex.PC + 4
		result.Prediction = PredictionResult{
			Mispredict:   true,
			ActualTaken:  true,
			ActualTarget: target,
			CorrectPC:    target,
			PC:           idex.PC,
			IsJALR:       true,
		}
	case ctrl.IsLUI:
		result.ALUResult = idex.Imm
		result.Prediction = verifyNonBranch(idex)
	case ctrl.IsAUIPC:
		result.ALUResult = idex.PC + idex.Imm
		result.Prediction = verifyNonBranch(idex)
	default:
		b := rs2
		if ctrl.ALUSrcImm {
			b = idex.Imm
		}
		result.ALUResult = s.alu.Execute(ctrl.ALUOp, rs1, b)
		result.Prediction = verifyNonBranch(idex)
	}

	return result
}

// verifyNonBranch squashes a fetch redirect caused by BTB aliasing: the
// tables are direct-indexed without tags, so a non-branch can hit a trained
// entry and steer fetch to another branch's target. The instruction itself
// is fine; everything younger is on the wrong path and fetch must resume at
// PC+4.
func verifyNonBranch(idex *IDEXRegister) PredictionResult {
	if idex.Prediction.BTBHit && idex.Prediction.PredictTaken {
		return PredictionResult{
			Mispredict: true,
			CorrectPC:  idex.PC + 4,
			PC:         idex.PC,
		}
	}
	return PredictionResult{}
}

// resolveBranch evaluates the branch and verifies the fetch-time
// prediction:
//   - BTB hit, predicted taken: correct iff taken and the predicted target
//     matches the executed one.
//   - BTB hit, predicted not taken: correct iff not taken.
//   - BTB miss: correct iff not taken.
func (s *ExecuteStage) resolveBranch(idex *IDEXRegister, rs1, rs2 uint32, result *ExecuteResult) {
	ctrl := idex.Control()
	taken := s.alu.BranchTaken(ctrl.BranchOp, rs1, rs2)
	target := idex.PC + idex.Imm

	correctPC := idex.PC + 4
	if taken {
		correctPC = target
	}

	pred := idex.Prediction
	var correct bool
	switch {
	case pred.BTBHit && pred.PredictTaken:
		correct = taken && pred.PredictedPC == correctPC
	default:
		correct = !taken
	}

	result.Prediction = PredictionResult{
		Mispredict:   !correct,
		CorrectPC:    correctPC,
		ActualTaken:  taken,
		ActualTarget: target,
		PC:           idex.PC,
		IsBranch:     true,
	}
}

// MemoryStage handles the data memory access.
type MemoryStage struct {
	dmem *emu.DataMemory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(dmem *emu.DataMemory) *MemoryStage {
	return &MemoryStage{dmem: dmem}
}

// Access performs the load or store of the instruction in EX/MEM. For a
// load it issues the synchronous word read and returns the lane-extracted
// value; the driver latches it into MEM/WB, where it becomes visible next
// cycle. Alignment and bounds violations surface as errors that halt the
// simulation.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (uint32, error) {
	if !exmem.Valid {
		return 0, nil
	}

	addr := exmem.ALUResult
	ctrl := exmem.Inst.Control

	switch {
	case exmem.MemRead:
		if err := checkLoadAlignment(addr, ctrl.LoadSize); err != nil {
			return 0, err
		}
		word, err := s.dmem.ReadWord(addr &^ 3)
		if err != nil {
			return 0, err
		}
		return extractLoad(word, addr, ctrl.LoadSize, ctrl.LoadUnsigned), nil

	case exmem.MemWrite:
		switch ctrl.StoreSize {
		case insts.SizeByte:
			return 0, s.dmem.WriteByte(addr, exmem.StoreValue)
		case insts.SizeHalf:
			return 0, s.dmem.WriteHalf(addr, exmem.StoreValue)
		default:
			return 0, s.dmem.WriteWord(addr, exmem.StoreValue)
		}
	}

	return 0, nil
}

// checkLoadAlignment validates a load address against its access width.
func checkLoadAlignment(addr uint32, size insts.MemSize) error {
	switch size {
	case insts.SizeHalf:
		if addr%2 != 0 {
			return alignmentError(addr)
		}
	case insts.SizeWord:
		if addr%4 != 0 {
			return alignmentError(addr)
		}
	}
	return nil
}

func alignmentError(addr uint32) error {
	return fmt.Errorf("data memory access at 0x%08x: %w", addr, emu.ErrUnaligned)
}

// extractLoad selects the addressed lanes from the read word and sign- or
// zero-extends them.
func extractLoad(word, addr uint32, size insts.MemSize, unsigned bool) uint32 {
	switch size {
	case insts.SizeByte:
		b := (word >> ((addr & 3) * 8)) & 0xFF
		if unsigned {
			return b
		}
		return uint32(int32(b<<24) >> 24)
	case insts.SizeHalf:
		h := (word >> ((addr & 2) * 8)) & 0xFFFF
		if unsigned {
			return h
		}
		return uint32(int32(h<<16) >> 16)
	default:
		return word
	}
}

// WritebackStage handles register file writeback.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits the instruction in MEM/WB to the register file.
// It returns the committed value and whether a write happened.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) (uint32, bool) {
	if !memwb.Valid || !memwb.RegWrite || memwb.Rd == 0 {
		return 0, false
	}

	value := memwb.WritebackValue()
	s.regFile.Write(memwb.Rd, value)
	return value, true
}
