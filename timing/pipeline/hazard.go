package pipeline

// ForwardSource indicates where a forwarded operand value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use the register file value
	// read at decode.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from the EX/MEM pipeline register.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from the MEM/WB pipeline register.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs1 specifies the forwarding source for the rs1 operand.
	ForwardRs1 ForwardSource
	// ForwardRs2 specifies the forwarding source for the rs2 operand.
	// For stores this also covers the store data.
	ForwardRs2 ForwardSource
}

// Forwarded reports whether any operand is bypassed this cycle.
func (f ForwardingResult) Forwarded() bool {
	return f.ForwardRs1 != ForwardNone || f.ForwardRs2 != ForwardNone
}

// StallResult contains stall and flush control signals for one cycle.
// Priority: flush overrides stall overrides normal advance.
type StallResult struct {
	// StallIF holds the PC and the IF/ID register.
	StallIF bool
	// StallID holds the ID/EX register.
	StallID bool
	// BubbleEX inserts a bubble into EX/MEM.
	BubbleEX bool
	// FlushIF invalidates the IF/ID register.
	FlushIF bool
	// FlushID invalidates the ID/EX register.
	FlushID bool
}

// HazardUnit detects data hazards and produces forwarding and stall/flush
// signals. It is a pure function over pipeline register snapshots; the
// driver applies its outputs.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines operand bypassing for the instruction in
// ID/EX. EX/MEM has priority over MEM/WB because it holds the more recent
// value.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{
		ForwardRs1: ForwardNone,
		ForwardRs2: ForwardNone,
	}

	if !idex.Valid || idex.Inst == nil {
		return result
	}

	ctrl := idex.Control()
	if ctrl.NeedsRs1 {
		result.ForwardRs1 = h.detectForwardForReg(idex.Rs1, exmem, memwb)
	}
	if ctrl.NeedsRs2 {
		result.ForwardRs2 = h.detectForwardForReg(idex.Rs2, exmem, memwb)
	}

	return result
}

// detectForwardForReg checks if a specific source register needs forwarding.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	// x0 always reads as 0, never forwarded.
	if reg == 0 {
		return ForwardNone
	}

	if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
		return ForwardFromEXMEM
	}

	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// GetForwardedValue resolves a forwarding decision to an operand value.
// The MEM/WB path forwards the same value writeback commits, including
// lane-extracted load data.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue uint32,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) uint32 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		return memwb.WritebackValue()
	default:
		return originalValue
	}
}

// DetectLoadUse detects the load-use hazard: a load in EX/MEM whose
// destination is a source of the instruction in ID/EX. The loaded value is
// not available until it reaches MEM/WB, so the consumer must stall one
// cycle and then take the MEM/WB forward.
func (h *HazardUnit) DetectLoadUse(idex *IDEXRegister, exmem *EXMEMRegister) bool {
	if !exmem.Valid || !exmem.MemRead || exmem.Rd == 0 {
		return false
	}
	if !idex.Valid || idex.Inst == nil {
		return false
	}

	ctrl := idex.Control()
	if ctrl.NeedsRs1 && idex.Rs1 == exmem.Rd {
		return true
	}
	if ctrl.NeedsRs2 && idex.Rs2 == exmem.Rd {
		return true
	}

	return false
}

// ComputeStalls combines the hazard conditions of one cycle into stall and
// flush signals. A flush (mispredict or JAL/JALR redirect) overrides any
// stall: the stalled instruction is being discarded anyway.
func (h *HazardUnit) ComputeStalls(loadUse, unitBusy, flush bool) StallResult {
	result := StallResult{}

	if flush {
		result.FlushIF = true
		result.FlushID = true
		return result
	}

	if loadUse || unitBusy {
		result.StallIF = true
		result.StallID = true
		result.BubbleEX = true
	}

	return result
}
