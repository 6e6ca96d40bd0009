package licm

import (
	"github.com/nickng/loopopt/dom"
	"github.com/nickng/loopopt/ir"
	"github.com/nickng/loopopt/loop"
)

// IsSafe returns true if instr can be executed in the preheader of l. It
// holds if instr cannot trap, or if it is already executed on every path that
// leaves l.
func IsSafe(l *loop.Loop, dt *dom.Tree, instr *ir.Instr) bool {
	return instr.Speculatable || DominatesExits(l, dt, instr.Block())
}

// DominatesExits returns true if b dominates every exit block of l.
// A loop without exits is never left, and no block dominates its exits.
func DominatesExits(l *loop.Loop, dt *dom.Tree, b *ir.Block) bool {
	exits := l.ExitBlocks()
	if len(exits) == 0 {
		return false
	}
	dominates := true
	for _, exit := range exits {
		dominates = dominates && dt.Dominates(b, exit)
	}
	return dominates
}
