// Package config provides simulation configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// SimConfig holds the sizing and limit parameters of a simulation run.
type SimConfig struct {
	// InstructionMemoryWords is the instruction memory capacity in 32-bit
	// words. Default: 2048.
	InstructionMemoryWords int `json:"instruction_memory_words"`

	// DataMemoryWords is the data memory capacity in 32-bit words.
	// Default: 4096 (16 KiB).
	DataMemoryWords int `json:"data_memory_words"`

	// MaxCycles is the cycle-count threshold; exceeding it halts the
	// simulation with a non-zero exit code. Zero means unlimited.
	MaxCycles uint64 `json:"max_cycles"`

	// BTBEntries is the number of branch predictor entries. Must be a
	// power of 2. Default: 64.
	BTBEntries uint32 `json:"btb_entries"`
}

// DefaultSimConfig returns a SimConfig with default values.
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		InstructionMemoryWords: 2048,
		DataMemoryWords:        4096,
		MaxCycles:              0,
		BTBEntries:             64,
	}
}

// Load reads a SimConfig from a JSON file. Missing fields keep their
// default values.
func Load(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultSimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *SimConfig) Validate() error {
	if c.InstructionMemoryWords <= 0 {
		return fmt.Errorf("instruction_memory_words must be positive, got %d",
			c.InstructionMemoryWords)
	}
	if c.DataMemoryWords <= 0 {
		return fmt.Errorf("data_memory_words must be positive, got %d",
			c.DataMemoryWords)
	}
	if c.BTBEntries == 0 || c.BTBEntries&(c.BTBEntries-1) != 0 {
		return fmt.Errorf("btb_entries must be a power of 2, got %d", c.BTBEntries)
	}
	return nil
}
