package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// DoneSentinel is the canonical termination instruction word: jal x0, 0,
// an unconditional jump to itself at the end of the loaded image. Any JAL
// with a zero offset terminates the simulation.
const DoneSentinel = 0x0000006F

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// LoadUseStalls is the number of stalls caused by load-use hazards.
	LoadUseStalls uint64
	// MulStalls is the number of stall cycles waiting on the multiplier.
	MulStalls uint64
	// DivStalls is the number of stall cycles waiting on the divider.
	DivStalls uint64
	// Flushes is the number of pipeline flushes (mispredicts and
	// JAL/JALR redirects).
	Flushes uint64
	// DataHazards is the number of cycles an operand was forwarded.
	DataHazards uint64
	// BranchPredictions is the number of branches verified in EX.
	BranchPredictions uint64
	// BranchMispredictions is the number of branch mispredictions.
	BranchMispredictions uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// MispredictRate returns the branch misprediction rate as a percentage.
func (s Statistics) MispredictRate() float64 {
	if s.BranchPredictions == 0 {
		return 0
	}
	return float64(s.BranchMispredictions) / float64(s.BranchPredictions) * 100
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithTrace enables per-cycle stage tracing to the given sink.
func WithTrace(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.trace = NewTraceLogger(w)
	}
}

// WithOutput sets the writer receiving the termination sentinel line.
// The default is os.Stdout.
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.out = w
	}
}

// WithMaxCycles sets the cycle-count threshold. Zero means unlimited.
// Exceeding the threshold halts with a non-zero exit code.
func WithMaxCycles(n uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxCycles = n
	}
}

// WithBranchPredictorConfig overrides the branch predictor configuration.
func WithBranchPredictorConfig(config BranchPredictorConfig) PipelineOption {
	return func(p *Pipeline) {
		p.predictor = NewBranchPredictor(config)
	}
}

// WithLogger sets the slog logger used for diagnostics.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline implements the cycle-accurate 5-stage in-order RV32IM pipeline:
// Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB).
//
// The driver exclusively owns all state. Each Tick computes the next value
// of every pipeline register from snapshots of the current values and
// commits them atomically at the end of the cycle.
type Pipeline struct {
	// Pipeline registers.
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages.
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Hazard detection and forwarding.
	hazardUnit *HazardUnit

	// Branch prediction.
	predictor *BranchPredictor

	// Multi-cycle functional units. unitInst/unitPC identify the issued
	// instruction so its result entry survives an unrelated flush of the
	// ID/EX register.
	multiplier *Multiplier
	divider    *Divider
	unitInst   *insts.Instruction
	unitPC     uint32

	// Shared resources.
	regFile *emu.RegFile
	imem    *emu.InstructionMemory
	dmem    *emu.DataMemory

	// Program counter.
	pc uint32

	// Execution state. draining is set once the termination sentinel
	// reaches EX; fetch stops and in-flight instructions retire before
	// the sentinel line is emitted.
	halted   bool
	finished bool
	draining bool
	fault    error

	maxCycles uint64

	trace  *TraceLogger
	out    io.Writer
	logger *slog.Logger

	stats Statistics
}

// NewPipeline creates a new 5-stage pipeline over the given architectural
// state.
func NewPipeline(
	regFile *emu.RegFile,
	imem *emu.InstructionMemory,
	dmem *emu.DataMemory,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		fetchStage:     NewFetchStage(imem),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(dmem),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(),
		predictor:      NewBranchPredictor(DefaultBranchPredictorConfig()),
		multiplier:     NewMultiplier(),
		divider:        NewDivider(),
		regFile:        regFile,
		imem:           imem,
		dmem:           dmem,
		out:            os.Stdout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// SetPC sets the program counter.
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
}

// RegFile returns the architectural register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// DataMemory returns the data memory, for inspection.
func (p *Pipeline) DataMemory() *emu.DataMemory {
	return p.dmem
}

// Predictor returns the branch predictor, for inspection.
func (p *Pipeline) Predictor() *BranchPredictor {
	return p.predictor
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Halted returns true if the pipeline has halted for any reason.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Finished returns true if the pipeline halted on the termination sentinel.
func (p *Pipeline) Finished() bool {
	return p.finished
}

// Err returns the fault that halted the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.fault
}

// ExitCode returns 0 for a sentinel halt and 1 for any faulted or external
// halt.
func (p *Pipeline) ExitCode() int {
	if p.finished && p.fault == nil {
		return 0
	}
	return 1
}

// Halt stops the simulation externally.
func (p *Pipeline) Halt() {
	p.halted = true
}

// Run executes the pipeline until it halts and returns the exit code.
func (p *Pipeline) Run() int {
	for !p.halted {
		p.Tick()
	}
	return p.ExitCode()
}

// RunCycles executes at most the given number of cycles. It returns true
// if the pipeline is still running.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Tick executes one pipeline cycle.
//
// Stages are evaluated in reverse order (WB -> MEM -> EX -> ID -> IF) over
// the current pipeline register values; the proposed next values are
// committed together at the end of the cycle, so all register updates are
// semantically simultaneous. Because writeback runs before decode, a WB
// write and an ID read of the same register in one cycle observe the
// write (the register file's internal forward). The predictor lookup for
// this cycle's fetch is taken before any EX-side predictor update, so a
// simultaneous read and write at one index returns the pre-write value.
//
// Hazard handling:
//   - Full operand forwarding from EX/MEM and MEM/WB into EX.
//   - Load-use stall: one bubble, then the MEM/WB forward.
//   - Multi-cycle multiply/divide hold IF/ID/EX while the unit is busy.
//   - Branch mispredicts and JAL/JALR flush IF/ID and ID/EX and redirect
//     fetch to the corrected PC. Flush overrides stall overrides advance.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.stats.Cycles++
	if p.maxCycles > 0 && p.stats.Cycles > p.maxCycles {
		p.fault = fmt.Errorf("cycle threshold of %d exceeded at pc 0x%08x", p.maxCycles, p.pc)
		p.logger.Error("simulation halted", "err", p.fault)
		p.halted = true
		return
	}

	// Fetch-time predictor lookup, before EX-side updates.
	fetchPred := p.predictor.Predict(p.pc)

	// Hazard conditions over the current register snapshots.
	loadUse := p.hazardUnit.DetectLoadUse(&p.idex, &p.exmem)

	// Stage 5: Writeback.
	if value, wrote := p.writebackStage.Writeback(&p.memwb); wrote {
		p.trace.Logf(p.stats.Cycles, "WB", "x%d <= 0x%08x", p.memwb.Rd, value)
	}
	if p.memwb.Valid {
		p.stats.Instructions++
	}

	// Stage 4: Memory.
	var nextMEMWB MEMWBRegister
	if p.exmem.Valid {
		memData, err := p.memoryStage.Access(&p.exmem)
		if err != nil {
			p.fail(err)
			return
		}
		if p.exmem.MemRead || p.exmem.MemWrite {
			p.trace.Logf(p.stats.Cycles, "MEM", "%s addr=0x%08x",
				p.exmem.Inst, p.exmem.ALUResult)
		}
		nextMEMWB = MEMWBRegister{
			Valid:     true,
			PC:        p.exmem.PC,
			Inst:      p.exmem.Inst,
			ALUResult: p.exmem.ALUResult,
			MemData:   memData,
			Rd:        p.exmem.Rd,
			RegWrite:  p.exmem.RegWrite,
			MemToReg:  p.exmem.MemToReg,
		}
	}

	// Stage 3: Execute.
	nextEXMEM, flush, correctPC, unitBusy, sentinel, cancelUnits := p.execute(loadUse)

	if sentinel {
		p.draining = true
	}

	stall := p.hazardUnit.ComputeStalls(loadUse, unitBusy, flush)
	if stall.StallIF {
		p.stats.Stalls++
		if loadUse && !unitBusy {
			p.stats.LoadUseStalls++
		}
	}
	if flush {
		p.stats.Flushes++
	}

	// Stages 2 and 1: Decode and Fetch, gated by the stall/flush masks.
	var nextIFID IFIDRegister
	var nextIDEX IDEXRegister
	nextPC := p.pc

	switch {
	case p.draining:
		// Sentinel reached EX: stop fetching, let MEM/WB retire.
	case stall.FlushIF:
		// Redirect fetch; the wrong-path IF/ID and ID/EX become bubbles.
		nextPC = correctPC
	case stall.StallIF:
		nextIFID = p.ifid
		nextIDEX = p.idex
		if nextIDEX.Valid && nextIDEX.Inst != nil {
			// The register file read stays live while the instruction
			// holds in ID/EX; a writeback landing during the stall must
			// be visible when it finally executes.
			nextIDEX.Rs1Value = p.regFile.Read(nextIDEX.Rs1)
			nextIDEX.Rs2Value = p.regFile.Read(nextIDEX.Rs2)
		}
	default:
		if p.ifid.Valid {
			nextIDEX = p.decodeStage.Decode(&p.ifid)
			if nextIDEX.Inst.Op == insts.OpUnknown {
				p.logger.Warn("unknown instruction treated as nop",
					"pc", fmt.Sprintf("0x%08x", p.ifid.PC),
					"word", fmt.Sprintf("0x%08x", p.ifid.InstructionWord))
			}
			p.trace.Logf(p.stats.Cycles, "ID", "pc=0x%08x %s",
				p.ifid.PC, nextIDEX.Inst.Disassemble())
		}

		word, err := p.fetchStage.Fetch(p.pc)
		if err != nil {
			p.fail(err)
			return
		}
		nextIFID = IFIDRegister{
			Valid:           true,
			PC:              p.pc,
			InstructionWord: word,
			Prediction: PredictionInfo{
				BTBHit:       fetchPred.BTBHit,
				PredictTaken: fetchPred.Taken,
				PredictedPC:  fetchPred.NextPC,
			},
		}
		nextPC = fetchPred.NextPC
		p.trace.Logf(p.stats.Cycles, "IF", "pc=0x%08x instr=0x%08x", p.pc, word)
	}

	// Cycle boundary: commit all pipeline registers atomically.
	p.ifid = nextIFID
	p.idex = nextIDEX
	p.exmem = nextEXMEM
	p.memwb = nextMEMWB
	p.pc = nextPC

	if flush && cancelUnits {
		// An in-flight multiply/divide belongs to the flushed path.
		p.multiplier.Cancel()
		p.divider.Cancel()
	}

	if p.draining && !p.exmem.Valid && !p.memwb.Valid {
		p.finish()
	}
}

// execute evaluates the EX stage for one cycle: multi-cycle unit progress,
// new multiply/divide issue, or single-cycle execution with prediction
// verification.
func (p *Pipeline) execute(loadUse bool) (
	nextEXMEM EXMEMRegister, flush bool, correctPC uint32,
	unitBusy bool, sentinel bool, cancelUnits bool,
) {
	switch {
	case p.multiplier.Busy():
		if p.multiplier.Tick() {
			nextEXMEM = p.unitResult(p.multiplier.Rd(), p.multiplier.Result())
			p.trace.Logf(p.stats.Cycles, "EX", "mul complete x%d <= 0x%08x",
				p.multiplier.Rd(), p.multiplier.Result())
		} else {
			unitBusy = true
			p.stats.MulStalls++
		}

	case p.divider.Busy():
		if p.divider.Tick() {
			nextEXMEM = p.unitResult(p.divider.Rd(), p.divider.Result())
			p.trace.Logf(p.stats.Cycles, "EX", "div complete x%d <= 0x%08x",
				p.divider.Rd(), p.divider.Result())
		} else {
			unitBusy = true
			p.stats.DivStalls++
		}

	case !p.idex.Valid || p.idex.Inst == nil:
		// Bubble.

	case loadUse:
		// The consumer waits in ID/EX; EX emits a bubble.

	case p.idex.Inst.Control.IsMul():
		rs1, rs2 := p.forwardOperands()
		p.multiplier.Start(p.idex.Inst.Control.MulOp, rs1, rs2, p.idex.Rd)
		p.unitInst = p.idex.Inst
		p.unitPC = p.idex.PC
		unitBusy = true
		p.stats.MulStalls++
		flush, correctPC = p.aliasRedirect()
		p.trace.Logf(p.stats.Cycles, "EX", "%s issue a=0x%08x b=0x%08x",
			p.idex.Inst, rs1, rs2)

	case p.idex.Inst.Control.IsDiv():
		rs1, rs2 := p.forwardOperands()
		p.divider.Start(p.idex.Inst.Control.DivOp, rs1, rs2, p.idex.Rd)
		p.unitInst = p.idex.Inst
		p.unitPC = p.idex.PC
		unitBusy = true
		p.stats.DivStalls++
		flush, correctPC = p.aliasRedirect()
		p.trace.Logf(p.stats.Cycles, "EX", "%s issue a=0x%08x b=0x%08x",
			p.idex.Inst, rs1, rs2)

	default:
		rs1, rs2 := p.forwardOperands()
		result := p.executeStage.Execute(&p.idex, rs1, rs2)
		ctrl := p.idex.Control()

		nextEXMEM = EXMEMRegister{
			Valid:      true,
			PC:         p.idex.PC,
			Inst:       p.idex.Inst,
			ALUResult:  result.ALUResult,
			StoreValue: result.StoreValue,
			Rd:         p.idex.Rd,
			RegWrite:   ctrl.RegWrite,
			MemRead:    ctrl.MemRead,
			MemWrite:   ctrl.MemWrite,
			MemToReg:   ctrl.MemToReg,
			Prediction: result.Prediction,
		}

		pr := result.Prediction
		if pr.IsBranch {
			p.stats.BranchPredictions++
			if pr.Mispredict {
				p.stats.BranchMispredictions++
			}
			p.predictor.Update(pr.PC, pr.ActualTaken, pr.ActualTarget)
			p.trace.Logf(p.stats.Cycles, "EX",
				"%s pc=0x%08x taken=%t target=0x%08x mispredict=%t",
				p.idex.Inst, p.idex.PC, pr.ActualTaken, pr.ActualTarget, pr.Mispredict)
		} else {
			p.trace.Logf(p.stats.Cycles, "EX", "%s pc=0x%08x result=0x%08x",
				p.idex.Inst, p.idex.PC, result.ALUResult)
		}

		if ctrl.IsJump && p.idex.Imm == 0 {
			// jal to itself: the canonical done marker.
			sentinel = true
		} else if pr.Mispredict {
			flush = true
			correctPC = pr.CorrectPC
			cancelUnits = true
		}
	}

	return nextEXMEM, flush, correctPC, unitBusy, sentinel, cancelUnits
}

// aliasRedirect squashes a fetch redirect caused by an untagged-BTB alias
// hit on the issuing multiply/divide. The operation itself proceeds; the
// younger wrong-path fetches are flushed and fetch resumes at PC+4.
func (p *Pipeline) aliasRedirect() (bool, uint32) {
	if p.idex.Prediction.BTBHit && p.idex.Prediction.PredictTaken {
		return true, p.idex.PC + 4
	}
	return false, 0
}

// unitResult builds the EX/MEM register entry delivering a multi-cycle
// unit's result.
func (p *Pipeline) unitResult(rd uint8, value uint32) EXMEMRegister {
	return EXMEMRegister{
		Valid:     true,
		PC:        p.unitPC,
		Inst:      p.unitInst,
		ALUResult: value,
		Rd:        rd,
		RegWrite:  rd != 0,
	}
}

// forwardOperands resolves the EX-stage source operands through the
// forwarding network.
func (p *Pipeline) forwardOperands() (uint32, uint32) {
	fw := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &p.memwb)
	if fw.Forwarded() {
		p.stats.DataHazards++
	}
	rs1 := p.hazardUnit.GetForwardedValue(fw.ForwardRs1, p.idex.Rs1Value, &p.exmem, &p.memwb)
	rs2 := p.hazardUnit.GetForwardedValue(fw.ForwardRs2, p.idex.Rs2Value, &p.exmem, &p.memwb)
	return rs1, rs2
}

// fail halts the simulation on an architectural fault.
func (p *Pipeline) fail(err error) {
	p.fault = err
	p.halted = true
	p.logger.Error("simulation halted", "err", err)
}

// finish emits the termination sentinel line and halts. The drain ensures
// every instruction older than the sentinel has committed, so x10 is the
// final architectural value.
func (p *Pipeline) finish() {
	p.finished = true
	p.halted = true
	fmt.Fprintf(p.out, "Finish Execution. The result is %d\n", int32(p.regFile.Read(10)))
}

// DumpRegisters writes all 32 GPRs and the PC to w.
func (p *Pipeline) DumpRegisters(w io.Writer) {
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(w, "x%-2d=0x%08x  x%-2d=0x%08x  x%-2d=0x%08x  x%-2d=0x%08x\n",
			i, p.regFile.Read(uint8(i)),
			i+1, p.regFile.Read(uint8(i+1)),
			i+2, p.regFile.Read(uint8(i+2)),
			i+3, p.regFile.Read(uint8(i+3)))
	}
	fmt.Fprintf(w, "pc =0x%08x\n", p.pc)
}
