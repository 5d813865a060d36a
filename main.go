// Package main provides the entry point for rv32sim.
// rv32sim is a cycle-accurate RV32IM 5-stage pipeline CPU simulator.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32IM 5-stage pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <instruction_image> [<data_image>]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -m, --max-cycles N     Halt after N cycles")
	fmt.Println("  -t, --trace            Emit per-cycle stage trace")
	fmt.Println("  -r, --dump-regs-on-halt  Dump registers on halt")
	fmt.Println("  -i, --interactive      Start the interactive console")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
