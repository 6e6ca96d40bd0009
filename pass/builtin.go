package pass

import (
	"fmt"
	"io"

	"github.com/nickng/loopopt/internal/logging"
	"github.com/nickng/loopopt/licm"
	"github.com/nickng/loopopt/loop"
	"github.com/nickng/loopopt/loopstats"
)

// LICM hoists loop-invariant code and writes each hoisted instruction to its
// output.
type LICM struct {
	w      io.Writer
	logger *logging.Logger
}

func NewLICM(w io.Writer) *LICM {
	return &LICM{w: w}
}

func (p *LICM) Name() string { return "licm" }

// SetLogger sets logger for LICM.
func (p *LICM) SetLogger(l *logging.Logger) { p.logger = l }

func (p *LICM) RunOnLoop(l *loop.Loop, a *Analyses) bool {
	e := licm.New(a.Dom)
	if p.logger != nil {
		e.SetLogger(p.logger)
	}
	modified, hoisted := e.Run(l)
	for _, instr := range hoisted {
		fmt.Fprintln(p.w, instr)
	}
	return modified
}

// LoopStats reports statistics of every loop.
type LoopStats struct {
	c *loopstats.Collector
	w loopstats.Writer
}

func NewLoopStats(seq *loopstats.Sequence, w loopstats.Writer) *LoopStats {
	return &LoopStats{c: loopstats.New(seq), w: w}
}

func (p *LoopStats) Name() string { return "loopstats" }

// SetLogger sets logger for LoopStats.
func (p *LoopStats) SetLogger(l *logging.Logger) { p.c.SetLogger(l) }

func (p *LoopStats) RunOnLoop(l *loop.Loop, a *Analyses) bool {
	if err := p.w.Write(p.c.Run(l)); err != nil {
		p.c.Warnf("%s %s: cannot write report: %v", p.c.Module(), a.Func.Name, err)
	}
	return false
}

// Finish flushes buffered reports.
func (p *LoopStats) Finish() error { return p.w.Flush() }
