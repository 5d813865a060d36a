package emu

import (
	"errors"
	"fmt"
)

// Memory access faults. Both halt the simulation when they reach the
// pipeline driver.
var (
	// ErrOutOfBounds marks an access beyond the configured memory size.
	ErrOutOfBounds = errors.New("address out of bounds")
	// ErrUnaligned marks an access not aligned to its width.
	ErrUnaligned = errors.New("unaligned access")
)

// DefaultDataMemoryWords is the default data memory capacity (16 KiB).
const DefaultDataMemoryWords = 4096

// DataMemory models a word-addressed synchronous-read SRAM. A word read
// issued in cycle N is valid in cycle N+1; the pipeline realizes that
// latency by latching the read value into the MEM/WB register. Byte and
// halfword stores modify only the selected lanes within the addressed word.
type DataMemory struct {
	words []uint32
}

// NewDataMemory creates a data memory holding numWords 32-bit words.
// A non-positive size falls back to the 16 KiB default.
func NewDataMemory(numWords int) *DataMemory {
	if numWords <= 0 {
		numWords = DefaultDataMemoryWords
	}
	return &DataMemory{words: make([]uint32, numWords)}
}

// LoadWords initializes memory contents starting at word address 0.
func (m *DataMemory) LoadWords(words []uint32) error {
	if len(words) > len(m.words) {
		return fmt.Errorf("data image of %d words exceeds memory of %d words: %w",
			len(words), len(m.words), ErrOutOfBounds)
	}
	copy(m.words, words)
	return nil
}

// Size returns the capacity in words.
func (m *DataMemory) Size() int {
	return len(m.words)
}

func (m *DataMemory) check(addr uint32, align uint32) error {
	if addr%align != 0 {
		return fmt.Errorf("data memory access at 0x%08x: %w", addr, ErrUnaligned)
	}
	if addr>>2 >= uint32(len(m.words)) {
		return fmt.Errorf("data memory access at 0x%08x: %w", addr, ErrOutOfBounds)
	}
	return nil
}

// ReadWord performs the synchronous word read for the addressed word. The
// address must be word-aligned.
func (m *DataMemory) ReadWord(addr uint32) (uint32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	return m.words[addr>>2], nil
}

// WriteWord stores a full 32-bit word.
func (m *DataMemory) WriteWord(addr uint32, value uint32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	m.words[addr>>2] = value
	return nil
}

// WriteHalf stores the low 16 bits of value into the addressed halfword
// lane, preserving the other lane of the word.
func (m *DataMemory) WriteHalf(addr uint32, value uint32) error {
	if err := m.check(addr, 2); err != nil {
		return err
	}
	shift := (addr & 0x2) * 8
	mask := uint32(0xFFFF) << shift
	word := m.words[addr>>2]
	m.words[addr>>2] = (word &^ mask) | ((value & 0xFFFF) << shift)
	return nil
}

// WriteByte stores the low 8 bits of value into the addressed byte lane,
// preserving the other lanes of the word.
func (m *DataMemory) WriteByte(addr uint32, value uint32) error {
	if err := m.check(addr, 1); err != nil {
		return err
	}
	shift := (addr & 0x3) * 8
	mask := uint32(0xFF) << shift
	word := m.words[addr>>2]
	m.words[addr>>2] = (word &^ mask) | ((value & 0xFF) << shift)
	return nil
}

// Word returns the word at the given word-aligned address without modeling
// the read port. It is intended for inspection (tests, register dumps, the
// interactive console).
func (m *DataMemory) Word(addr uint32) uint32 {
	if addr>>2 >= uint32(len(m.words)) {
		return 0
	}
	return m.words[addr>>2]
}
