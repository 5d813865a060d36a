// Package pipeline provides the 5-stage RV32IM pipeline implementation for
// cycle-accurate timing simulation.
package pipeline

import "github.com/sarchlab/rv32sim/insts"

// PredictionInfo carries the fetch-time branch prediction through IF/ID and
// ID/EX so the execute stage can verify it.
type PredictionInfo struct {
	// BTBHit indicates the BTB entry for this PC was valid.
	BTBHit bool

	// PredictTaken indicates the BHT counter predicted taken.
	PredictTaken bool

	// PredictedPC is the PC fetch redirected to (target on a taken
	// prediction, PC+4 otherwise).
	PredictedPC uint32
}

// PredictionResult is the execute-stage verdict on a prediction.
type PredictionResult struct {
	// Mispredict indicates the fetch-time prediction disagreed with the
	// executed outcome (direction or target).
	Mispredict bool

	// CorrectPC is where fetch must resume after a flush.
	CorrectPC uint32

	// ActualTaken is the executed branch direction.
	ActualTaken bool

	// ActualTarget is the executed branch target.
	ActualTarget uint32

	// PC is the branch's own PC, used to index the BTB/BHT update.
	PC uint32

	// Instruction class, for flush decisions. JAL and JALR always flush.
	IsBranch bool
	IsJump   bool
	IsJALR   bool
}

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32

	// Prediction is the fetch-time branch prediction for this PC.
	Prediction PredictionInfo
}

// Clear resets the IF/ID register to the bubble state.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction, carrying the control vector.
	Inst *insts.Instruction

	// Register values read from the register file.
	Rs1Value uint32
	Rs2Value uint32

	// Register numbers for hazard detection.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm is the sign-extended immediate.
	Imm uint32

	// Prediction is propagated from IF/ID.
	Prediction PredictionInfo
}

// Clear resets the ID/EX register to the bubble state.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// Control returns the instruction's control vector, or the zero (NOP)
// vector for a bubble.
func (r *IDEXRegister) Control() insts.Control {
	if r.Inst == nil {
		return insts.Control{}
	}
	return r.Inst.Control
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the ALU output (address for loads/stores, value
	// otherwise).
	ALUResult uint32

	// StoreValue is the forwarded rs2 value for store instructions.
	StoreValue uint32

	// Rd is the destination register number.
	Rd uint8

	// Control signals propagated from ID/EX.
	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool

	// Prediction is the execute-stage verification verdict.
	Prediction PredictionResult
}

// Clear resets the EX/MEM register to the bubble state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the ALU output for non-load instructions.
	ALUResult uint32

	// MemData is the lane-extracted result of the synchronous read issued
	// by the MEM stage in the previous cycle.
	MemData uint32

	// Rd is the destination register number.
	Rd uint8

	// Control signals.
	RegWrite bool
	MemToReg bool
}

// Clear resets the MEM/WB register to the bubble state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}

// WritebackValue returns the value this instruction commits: memory data
// for loads, the ALU result otherwise.
func (r *MEMWBRegister) WritebackValue() uint32 {
	if r.MemToReg {
		return r.MemData
	}
	return r.ALUResult
}
