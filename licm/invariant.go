package licm

import (
	"github.com/nickng/loopopt/ir"
	"github.com/nickng/loopopt/loop"
)

// IsInvariant returns true if instr computes the same value on every
// iteration of l: instr is an arithmetic, shift, select, cast or address
// computation, and all of its operands are constants or defined outside l.
func IsInvariant(l *loop.Loop, instr *ir.Instr) bool {
	switch instr.Op {
	case ir.OpBinary, ir.OpShift, ir.OpSelect, ir.OpCast, ir.OpAddr:
	default:
		return false
	}
	for _, v := range instr.Operands {
		if _, ok := v.(*ir.Const); ok {
			continue
		}
		if !l.IsLoopInvariant(v) {
			return false
		}
	}
	return true
}
