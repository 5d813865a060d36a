// Package main provides the entry point for rv32sim, a cycle-accurate
// RV32IM 5-stage pipeline simulator.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Simulation configuration JSON file")
	optMaxCycles := getopt.Uint64Long("max-cycles", 'm', 0, "Halt after N cycles (0 = unlimited)")
	optTrace := getopt.BoolLong("trace", 't', "Emit per-cycle stage trace to stdout")
	optDumpRegs := getopt.BoolLong("dump-regs-on-halt", 'r', "Dump the register file on halt")
	optInteractive := getopt.BoolLong("interactive", 'i', "Start the interactive console")
	optEngine := getopt.BoolLong("engine", 'e', "Run under the Akita serial engine")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("<instruction_image> [<data_image>]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) < 1 {
		getopt.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultSimConfig()
	if *optConfig != "" {
		var err error
		cfg, err = config.Load(*optConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
			os.Exit(1)
		}
	}
	if *optMaxCycles != 0 {
		cfg.MaxCycles = *optMaxCycles
	}

	p, err := buildPipeline(cfg, args, *optTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}

	exitCode := run(p, *optInteractive, *optEngine)

	if *optDumpRegs {
		p.DumpRegisters(os.Stdout)
	}

	os.Exit(exitCode)
}

// buildPipeline loads the images and assembles the simulated machine.
func buildPipeline(cfg *config.SimConfig, args []string, trace bool) (*pipeline.Pipeline, error) {
	program, err := loader.LoadInstructionImage(args[0])
	if err != nil {
		return nil, err
	}

	imem := emu.NewInstructionMemory(cfg.InstructionMemoryWords)
	if err := imem.LoadWords(program); err != nil {
		return nil, err
	}

	dmem := emu.NewDataMemory(cfg.DataMemoryWords)
	if len(args) > 1 {
		data, err := loader.LoadDataImage(args[1])
		if err != nil {
			return nil, err
		}
		if err := dmem.LoadWords(data); err != nil {
			return nil, err
		}
	}

	opts := []pipeline.PipelineOption{
		pipeline.WithMaxCycles(cfg.MaxCycles),
		pipeline.WithBranchPredictorConfig(pipeline.BranchPredictorConfig{
			Entries: cfg.BTBEntries,
		}),
		pipeline.WithLogger(slog.Default()),
	}
	if trace {
		opts = append(opts, pipeline.WithTrace(os.Stdout))
	}

	regFile := &emu.RegFile{}
	return pipeline.NewPipeline(regFile, imem, dmem, opts...), nil
}

// run drives the pipeline in the selected mode and returns the exit code.
func run(p *pipeline.Pipeline, interactive, engine bool) int {
	switch {
	case interactive:
		if err := runConsole(p, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
			return 1
		}
		return p.ExitCode()

	case engine:
		exitCode, err := core.Run(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
			return 1
		}
		return exitCode

	default:
		return p.Run()
	}
}
