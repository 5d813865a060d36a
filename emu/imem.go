package emu

import "fmt"

// DefaultInstructionMemoryWords is the default instruction memory capacity.
const DefaultInstructionMemoryWords = 2048

// InstructionMemory is a read-only, word-addressed instruction store. The
// word at address PC>>2 holds the instruction fetched at PC.
type InstructionMemory struct {
	words []uint32
}

// NewInstructionMemory creates an instruction memory holding numWords
// 32-bit instruction words. A non-positive size falls back to the default.
func NewInstructionMemory(numWords int) *InstructionMemory {
	if numWords <= 0 {
		numWords = DefaultInstructionMemoryWords
	}
	return &InstructionMemory{words: make([]uint32, numWords)}
}

// LoadWords installs the program image starting at word address 0.
func (m *InstructionMemory) LoadWords(words []uint32) error {
	if len(words) > len(m.words) {
		return fmt.Errorf("program of %d words exceeds instruction memory of %d words: %w",
			len(words), len(m.words), ErrOutOfBounds)
	}
	copy(m.words, words)
	return nil
}

// Size returns the capacity in words.
func (m *InstructionMemory) Size() int {
	return len(m.words)
}

// Fetch reads the instruction word at the given PC.
func (m *InstructionMemory) Fetch(pc uint32) (uint32, error) {
	if pc%4 != 0 {
		return 0, fmt.Errorf("instruction fetch at 0x%08x: %w", pc, ErrUnaligned)
	}
	if pc>>2 >= uint32(len(m.words)) {
		return 0, fmt.Errorf("instruction fetch at 0x%08x: %w", pc, ErrOutOfBounds)
	}
	return m.words[pc>>2], nil
}
