// Package core integrates the pipeline with the Akita simulation framework.
// It wraps the cycle-accurate pipeline as a ticking component so the CPU can
// run under an Akita event engine, alone or alongside other components.
package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// Comp is the RV32 CPU core as an Akita ticking component. Each engine tick
// advances the pipeline by one cycle.
type Comp struct {
	*sim.TickingComponent

	pipeline *pipeline.Pipeline
}

// NewComp creates a core component driven by the given engine at the given
// frequency.
func NewComp(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	p *pipeline.Pipeline,
) *Comp {
	c := &Comp{pipeline: p}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)
	return c
}

// Pipeline returns the wrapped pipeline.
func (c *Comp) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Tick advances the pipeline one cycle. It returns false once the pipeline
// has halted so the engine stops scheduling tick events.
func (c *Comp) Tick() bool {
	if c.pipeline.Halted() {
		return false
	}
	c.pipeline.Tick()
	return !c.pipeline.Halted()
}

// Run drives the pipeline to completion under a serial Akita engine and
// returns the pipeline's exit code.
func Run(p *pipeline.Pipeline) (int, error) {
	engine := sim.NewSerialEngine()
	comp := NewComp("CPU", engine, 1*sim.GHz, p)

	comp.TickLater()
	if err := engine.Run(); err != nil {
		return 1, err
	}

	return p.ExitCode(), nil
}
