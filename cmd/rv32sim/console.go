package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/sarchlab/rv32sim/timing/pipeline"
)

const consoleHelp = `Commands:
  step [n], s [n]   advance n cycles (default 1)
  run, continue     run until halt
  regs              dump the register file
  mem <addr> [n]    dump n data words starting at addr (default 8)
  btb <pc>          show the predictor entry covering pc
  stats             show pipeline statistics
  help              this text
  quit, exit        leave the console`

var consoleCommands = []string{
	"step", "run", "continue", "regs", "mem", "btb", "stats", "help", "quit", "exit",
}

// runConsole drives the pipeline interactively. Commands read through
// liner, with history and completion.
func runConsole(p *pipeline.Pipeline, out io.Writer) error {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var matches []string
		for _, cmd := range consoleCommands {
			if strings.HasPrefix(cmd, strings.ToLower(prefix)) {
				matches = append(matches, cmd)
			}
		}
		return matches
	})

	fmt.Fprintln(out, "rv32sim interactive console. Type 'help' for commands.")

	for {
		input, err := line.Prompt("rv32sim> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		switch fields[0] {
		case "step", "s":
			n := uint64(1)
			if len(fields) > 1 {
				if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
					n = v
				}
			}
			p.RunCycles(n)
			fmt.Fprintf(out, "cycle %d pc=0x%08x halted=%t\n",
				p.Stats().Cycles, p.PC(), p.Halted())

		case "run", "continue":
			p.Run()
			fmt.Fprintf(out, "halted after %d cycles, exit code %d\n",
				p.Stats().Cycles, p.ExitCode())

		case "regs":
			p.DumpRegisters(out)

		case "mem":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: mem <addr> [n]")
				continue
			}
			dumpMemory(p, out, fields[1:])

		case "btb":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: btb <pc>")
				continue
			}
			pc, err := parseAddr(fields[1])
			if err != nil {
				fmt.Fprintf(out, "bad pc %q\n", fields[1])
				continue
			}
			target, valid, counter := p.Predictor().Entry(pc)
			fmt.Fprintf(out, "entry for pc 0x%08x: valid=%t target=0x%08x bht=%d\n",
				pc, valid, target, counter)

		case "stats":
			printStats(p, out)

		case "help":
			fmt.Fprintln(out, consoleHelp)

		case "quit", "exit":
			return nil

		default:
			fmt.Fprintf(out, "unknown command %q, try 'help'\n", fields[0])
		}

		if p.Halted() && p.Err() != nil {
			fmt.Fprintf(out, "fault: %v\n", p.Err())
		}
	}
}

func dumpMemory(p *pipeline.Pipeline, out io.Writer, args []string) {
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad address %q\n", args[0])
		return
	}
	n := 8
	if len(args) > 1 {
		if v, err := strconv.Atoi(args[1]); err == nil && v > 0 {
			n = v
		}
	}
	dmem := p.DataMemory()
	for i := 0; i < n; i++ {
		a := addr + uint32(i*4)
		fmt.Fprintf(out, "0x%08x: 0x%08x\n", a, dmem.Word(a))
	}
}

func printStats(p *pipeline.Pipeline, out io.Writer) {
	stats := p.Stats()
	fmt.Fprintf(out, "Cycles:              %d\n", stats.Cycles)
	fmt.Fprintf(out, "Instructions:        %d\n", stats.Instructions)
	fmt.Fprintf(out, "CPI:                 %.2f\n", stats.CPI())
	fmt.Fprintf(out, "Stalls:              %d\n", stats.Stalls)
	fmt.Fprintf(out, "  load-use:          %d\n", stats.LoadUseStalls)
	fmt.Fprintf(out, "  multiplier:        %d\n", stats.MulStalls)
	fmt.Fprintf(out, "  divider:           %d\n", stats.DivStalls)
	fmt.Fprintf(out, "Flushes:             %d\n", stats.Flushes)
	fmt.Fprintf(out, "Branches:            %d\n", stats.BranchPredictions)
	fmt.Fprintf(out, "Mispredictions:      %d (%.1f%%)\n",
		stats.BranchMispredictions, stats.MispredictRate())
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}
