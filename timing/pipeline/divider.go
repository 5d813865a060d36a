package pipeline

import "github.com/sarchlab/rv32sim/insts"

// DivLatency is the fixed issue-to-result latency of the divider in
// EX-stage cycles: one setup cycle, sixteen radix-4 iterations, one
// correction cycle.
const DivLatency = 18

// divIterations is the number of radix-4 iteration cycles; each retires
// two quotient bits.
const divIterations = 16

// Divider models an 18-cycle radix-4 SRT divider serving the four RV32M
// divide variants.
//
// The issue cycle takes absolute values, records result signs, and guards
// the RISC-V special cases (division by zero, signed overflow). Each of the
// sixteen iteration cycles performs two non-restoring steps, retiring one
// redundant radix-4 quotient digit. The final cycle converts the redundant
// quotient to conventional binary, corrects a negative partial remainder,
// and applies the result signs per the RISC-V rules (quotient sign is the
// XOR of the operand signs; remainder sign follows the dividend).
type Divider struct {
	busy bool
	iter int

	kind insts.DivOp
	rd   uint8

	absDividend uint32
	absDivisor  uint32
	negQuotient bool
	negRemainder bool

	// special short-circuits the iteration for divide-by-zero and signed
	// overflow; the unit still runs its full latency.
	special   bool
	quotient  uint32
	remainder uint32

	rem   int64
	qbits uint32

	result uint32
}

// NewDivider creates an idle divider.
func NewDivider() *Divider {
	return &Divider{}
}

// Busy reports whether an operation is in flight.
func (d *Divider) Busy() bool {
	return d.busy
}

// Rd returns the destination register of the pending operation.
func (d *Divider) Rd() uint8 {
	return d.rd
}

// Start issues a divide. It performs the setup cycle: operand sign
// handling and special-case detection. The caller must not issue while
// Busy.
func (d *Divider) Start(kind insts.DivOp, dividend, divisor uint32, rd uint8) {
	d.busy = true
	d.iter = 0
	d.kind = kind
	d.rd = rd
	d.rem = 0
	d.qbits = 0
	d.special = false

	signed := kind == insts.DivDIV || kind == insts.DivREM

	d.absDividend = dividend
	d.absDivisor = divisor
	d.negQuotient = false
	d.negRemainder = false
	if signed {
		if int32(dividend) < 0 {
			d.absDividend = uint32(-int32(dividend))
			d.negRemainder = true
		}
		if int32(divisor) < 0 {
			d.absDivisor = uint32(-int32(divisor))
		}
		d.negQuotient = (int32(dividend) < 0) != (int32(divisor) < 0)
	}

	// RISC-V special cases resolve without iterating.
	if divisor == 0 {
		d.special = true
		d.quotient = 0xFFFFFFFF
		d.remainder = dividend
		return
	}
	if signed && dividend == 0x80000000 && divisor == 0xFFFFFFFF {
		d.special = true
		d.quotient = 0x80000000
		d.remainder = 0
	}
}

// Tick advances the divider by one cycle. It returns true on the cycle the
// result becomes visible at EX; the unit is idle again afterwards.
func (d *Divider) Tick() bool {
	if !d.busy {
		return false
	}

	d.iter++
	if d.iter <= divIterations {
		if !d.special {
			// One radix-4 digit: two cascaded non-restoring steps.
			shift := uint(32 - 2*d.iter)
			d.step(int64((d.absDividend >> (shift + 1)) & 1))
			d.step(int64((d.absDividend >> shift) & 1))
		}
		return false
	}

	d.finish()
	d.busy = false
	return true
}

// step performs one non-restoring division step: the recorded quotient bit
// is the sign of the incoming partial remainder, which selects subtract or
// add of the divisor after the shift.
func (d *Divider) step(bit int64) {
	if d.rem >= 0 {
		d.qbits = d.qbits<<1 | 1
		d.rem = (d.rem<<1 | bit) - int64(d.absDivisor)
	} else {
		d.qbits = d.qbits << 1
		d.rem = (d.rem<<1 | bit) + int64(d.absDivisor)
	}
}

// finish converts the redundant quotient, corrects the remainder, applies
// signs, and selects the quotient or remainder per the variant.
func (d *Divider) finish() {
	if !d.special {
		// The recorded bits encode digits {+1,-1}; in 32-bit
		// arithmetic the conversion 2*Q - (2^32 - 1) is 2*Q + 1.
		q := d.qbits<<1 + 1
		r := d.rem
		if r < 0 {
			q--
			r += int64(d.absDivisor)
		}

		d.quotient = q
		d.remainder = uint32(r)
		if d.negQuotient {
			d.quotient = -d.quotient
		}
		if d.negRemainder {
			d.remainder = -d.remainder
		}
	}

	switch d.kind {
	case insts.DivDIV, insts.DivDIVU:
		d.result = d.quotient
	default:
		d.result = d.remainder
	}
}

// Result returns the value computed by the completed operation.
func (d *Divider) Result() uint32 {
	return d.result
}

// Cancel discards the in-flight operation (flush of the originating
// instruction).
func (d *Divider) Cancel() {
	d.busy = false
	d.iter = 0
}
