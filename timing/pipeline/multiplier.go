package pipeline

import "github.com/sarchlab/rv32sim/insts"

// MulLatency is the fixed issue-to-result latency of the multiplier in
// EX-stage cycles.
const MulLatency = 3

// Multiplier models a 3-cycle Wallace-tree multiplier serving the four
// RV32M multiply variants.
//
// The three stages mirror the hardware reduction tree:
//
//	Stage 1 (issue cycle): generate the 32 partial-product rows from the
//	  extended operands and reduce them to at most 10 rows through 3:2
//	  carry-save layers.
//	Stage 2: reduce the surviving rows to a 2-row carry-save pair.
//	Stage 3: final carry-propagate add; select the low or high word.
//
// Rows are kept as 64-bit values modulo 2^64, so the two-row sum is the
// exact 64-bit two's-complement product for every operand signedness
// combination; MUL selects bits [31:0] and the MULH variants bits [63:32].
type Multiplier struct {
	busy  bool
	stage int

	kind insts.MulOp
	rd   uint8

	rows []uint64

	result uint32
}

// NewMultiplier creates an idle multiplier.
func NewMultiplier() *Multiplier {
	return &Multiplier{}
}

// Busy reports whether an operation is in flight.
func (m *Multiplier) Busy() bool {
	return m.busy
}

// Rd returns the destination register of the pending operation.
func (m *Multiplier) Rd() uint8 {
	return m.rd
}

// Start issues a multiply. It performs the stage-1 work of the issue cycle:
// partial-product generation and the first carry-save reduction layers.
// The caller must not issue while Busy.
func (m *Multiplier) Start(kind insts.MulOp, a, b uint32, rd uint8) {
	m.busy = true
	m.stage = 1
	m.kind = kind
	m.rd = rd

	aSigned, bSigned := operandSigns(kind)
	rows := partialProducts(a, b, aSigned, bSigned)
	m.rows = reduceRows(rows, 10)
}

// Tick advances the multiplier by one cycle. It returns true on the cycle
// the result becomes visible at EX; the unit is idle again afterwards.
func (m *Multiplier) Tick() bool {
	if !m.busy {
		return false
	}

	switch m.stage {
	case 1:
		m.rows = reduceRows(m.rows, 2)
		m.stage = 2
		return false
	default:
		product := finalAdd(m.rows)
		if m.kind == insts.MulMUL {
			m.result = uint32(product)
		} else {
			m.result = uint32(product >> 32)
		}
		m.busy = false
		m.rows = nil
		return true
	}
}

// Result returns the value computed by the completed operation.
func (m *Multiplier) Result() uint32 {
	return m.result
}

// Cancel discards the in-flight operation (flush of the originating
// instruction).
func (m *Multiplier) Cancel() {
	m.busy = false
	m.stage = 0
	m.rows = nil
}

// operandSigns maps a multiply variant to its operand signedness.
func operandSigns(kind insts.MulOp) (aSigned, bSigned bool) {
	switch kind {
	case insts.MulMUL, insts.MulMULH:
		return true, true
	case insts.MulMULHSU:
		return true, false
	default: // MULHU
		return false, false
	}
}

// extend sign- or zero-extends a 32-bit operand to 64 bits.
func extend(v uint32, signed bool) uint64 {
	if signed {
		return uint64(int64(int32(v)))
	}
	return uint64(v)
}

// partialProducts generates the 32 weighted rows of a*b. For a signed
// multiplier operand the top row carries the negative weight of bit 31
// (two's-complement weighting), so the mod-2^64 row sum equals the exact
// product for every signedness combination.
func partialProducts(a, b uint32, aSigned, bSigned bool) []uint64 {
	aExt := extend(a, aSigned)

	rows := make([]uint64, 32)
	for i := 0; i < 32; i++ {
		if (b>>i)&1 == 0 {
			continue
		}
		row := aExt << i
		if i == 31 && bSigned {
			row = -row
		}
		rows[i] = row
	}
	return rows
}

// csa is a single 3:2 carry-save adder over full rows: three addends become
// a sum row and a carry row with the same total.
func csa(a, b, c uint64) (sum, carry uint64) {
	sum = a ^ b ^ c
	carry = ((a & b) | (b & c) | (a & c)) << 1
	return sum, carry
}

// reduceRows applies 3:2 carry-save layers until at most target rows
// remain.
func reduceRows(rows []uint64, target int) []uint64 {
	for len(rows) > target {
		next := make([]uint64, 0, (len(rows)*2+2)/3)
		i := 0
		for ; i+2 < len(rows); i += 3 {
			sum, carry := csa(rows[i], rows[i+1], rows[i+2])
			next = append(next, sum, carry)
		}
		next = append(next, rows[i:]...)
		rows = next
	}
	return rows
}

// finalAdd performs the carry-propagate addition of the remaining rows.
func finalAdd(rows []uint64) uint64 {
	var total uint64
	for _, r := range rows {
		total += r
	}
	return total
}
