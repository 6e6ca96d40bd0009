// Package licm implements loop-invariant code motion.
//
// The Engine makes a single sweep over the blocks of a loop in dominator tree
// preorder and moves every invariant instruction that is safe to execute
// unconditionally to the end of the loop preheader. An instruction that has
// been moved is defined outside the loop, so instructions later in the sweep
// that use it can be moved too. Dominators are visited first, hence a chain
// of invariant computations is moved in one sweep.
//
// Blocks of nested loops are skipped: they are handled when the Engine runs on
// the nested loop, which should happen first.
package licm

import (
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/nickng/loopopt/dom"
	"github.com/nickng/loopopt/internal/logging"
	"github.com/nickng/loopopt/ir"
	"github.com/nickng/loopopt/loop"
)

// ErrNoPreheader is the panic value of Run on a loop without preheader.
var ErrNoPreheader = errors.New("licm: loop has no preheader")

// Engine moves loop-invariant code of one function.
type Engine struct {
	dt *dom.Tree
	*logging.Logger
}

// New returns an Engine for the function of dt.
func New(dt *dom.Tree) *Engine {
	return &Engine{dt: dt, Logger: logging.Nop()}
}

// SetLogger sets logger for Engine.
func (e *Engine) SetLogger(l *logging.Logger) {
	e.Logger = l.Tagged("licm", color.FgGreen)
}

// Run hoists the invariant instructions of l to its preheader. It returns
// whether l was modified, and the moved instructions in the order they were
// moved.
//
// l must have a preheader.
func (e *Engine) Run(l *loop.Loop) (bool, []*ir.Instr) {
	ph := l.Preheader()
	if ph == nil || ph.Terminator() == nil {
		panic(ErrNoPreheader)
	}
	pos := ph.Terminator()

	var hoisted []*ir.Instr
	for _, b := range e.dt.Preorder() {
		if !l.Contains(b) || loop.InSubLoop(l, b) {
			continue
		}
		instrs := make([]*ir.Instr, len(b.Instrs))
		copy(instrs, b.Instrs)
		for _, instr := range instrs {
			if IsInvariant(l, instr) && IsSafe(l, e.dt, instr) {
				instr.MoveBefore(pos)
				hoisted = append(hoisted, instr)
				e.Debugf("%s %s: hoist %s from %s to %s", e.Module(), l.Header().Parent(), instr, b, ph)
			}
		}
	}
	return len(hoisted) > 0, hoisted
}
