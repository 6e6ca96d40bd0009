// Package loopstats collects per-loop statistics.
//
// Blocks and branches are counted in the loop's own body, without the blocks
// of its nested loops. Instructions and atomics are counted in every member
// block, nested loops included.
package loopstats

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/nickng/loopopt/internal/logging"
	"github.com/nickng/loopopt/loop"
)

// Report is the statistics of one loop.
type Report struct {
	ID             int64  // Position of the loop in visiting order.
	Function       string // Function of the loop header.
	Depth          int    // Nesting depth, 0 for an outermost loop.
	HasNestedLoops bool
	Blocks         int // Blocks of the loop, excluding nested loops.
	Instrs         int
	Atomics        int
	Branches       int // Branches of the loop, excluding nested loops.
}

func (r Report) String() string {
	return fmt.Sprintf("%d: func=%s, depth=%d, subLoops=%t, BBs=%d, instrs=%d, atomics=%d, branches=%d",
		r.ID, r.Function, r.Depth, r.HasNestedLoops, r.Blocks, r.Instrs, r.Atomics, r.Branches)
}

// Collector computes Reports, numbering the loops with a Sequence.
type Collector struct {
	seq *Sequence
	*logging.Logger
}

// New returns a Collector drawing IDs from seq.
func New(seq *Sequence) *Collector {
	return &Collector{seq: seq, Logger: logging.Nop()}
}

// SetLogger sets logger for Collector.
func (c *Collector) SetLogger(l *logging.Logger) {
	c.Logger = l.Tagged("stats", color.FgCyan)
}

// Run returns the statistics of l. It does not modify l.
func (c *Collector) Run(l *loop.Loop) Report {
	r := Report{
		ID:             c.seq.Next(),
		Depth:          l.Depth() - 1,
		HasNestedLoops: len(l.SubLoops()) > 0,
	}
	if fn := l.Header().Parent(); fn != nil {
		r.Function = fn.Name
	}
	for _, b := range l.Blocks() {
		own := !loop.InSubLoop(l, b)
		if own {
			r.Blocks++
		}
		r.Instrs += len(b.Instrs)
		for _, instr := range b.Instrs {
			if instr.Atomic {
				r.Atomics++
			}
			if own && instr.Op.IsBranch() {
				r.Branches++
			}
		}
	}
	c.Debugf("%s %s: %s", c.Module(), l, r)
	return r
}
