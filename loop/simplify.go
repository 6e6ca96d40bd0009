package loop

import (
	"github.com/nickng/loopopt/ir"
)

// InsertPreheaders gives every loop of li without a preheader a new one, and
// returns the number of blocks inserted. A loop whose header has no
// predecessor outside the loop is left alone.
//
// The edges into the header from outside the loop are redirected to the new
// block, which jumps to the header. Header phis get a single incoming value
// from the preheader: the common outside value, or a new phi in the
// preheader if the outside values differ.
//
// li is stale afterwards: the dominator tree and loop nest must be
// recomputed.
func InsertPreheaders(fn *ir.Function, li *Info) int {
	n := 0
	for _, l := range li.Loops() {
		if l.Preheader() != nil {
			continue
		}
		if insertPreheader(fn, l) {
			n++
		}
	}
	return n
}

func insertPreheader(fn *ir.Function, l *Loop) bool {
	h := l.Header()
	var outside []int // Positions of outside preds in h.Preds.
	for i, p := range h.Preds {
		if !l.Contains(p) {
			outside = append(outside, i)
		}
	}
	if len(outside) == 0 {
		return false
	}
	comment := "preheader"
	if h.Comment != "" {
		comment = h.Comment + ".preheader"
	}
	ph := fn.NewBlock(comment)
	for _, i := range outside {
		ph.Preds = append(ph.Preds, h.Preds[i])
	}

	for _, instr := range h.Instrs {
		if instr.Op != ir.OpPhi {
			continue
		}
		incoming := make([]ir.Value, len(outside))
		for j, i := range outside {
			incoming[j] = instr.Operands[i]
		}
		v := incoming[0]
		if !allSame(incoming) {
			phi := ir.NewInstr(ir.OpPhi, "phi", incoming...)
			phi.SetName(instr.Name() + ".ph")
			v = ph.Append(phi)
		}
		instr.Operands = spliceOutside(instr.Operands, outside, v)
	}
	ph.Append(ir.NewInstr(ir.OpBr, "jump"))
	ph.Succs = []*ir.Block{h}

	retargeted := make(map[*ir.Block]bool)
	for _, i := range outside {
		p := h.Preds[i]
		if retargeted[p] {
			continue
		}
		retargeted[p] = true
		for k, succ := range p.Succs {
			if succ == h {
				p.Succs[k] = ph
			}
		}
	}
	h.Preds = spliceOutside(h.Preds, outside, ph)
	return true
}

// spliceOutside replaces the first of the positions outside in s with v and
// drops the rest.
func spliceOutside[T any](s []T, outside []int, v T) []T {
	drop := make(map[int]bool, len(outside))
	for _, i := range outside[1:] {
		drop[i] = true
	}
	out := make([]T, 0, len(s)-len(outside)+1)
	for i, x := range s {
		switch {
		case i == outside[0]:
			out = append(out, v)
		case !drop[i]:
			out = append(out, x)
		}
	}
	return out
}

func allSame(vs []ir.Value) bool {
	for _, v := range vs[1:] {
		if !sameValue(v, vs[0]) {
			return false
		}
	}
	return true
}

func sameValue(a, b ir.Value) bool {
	if a == b {
		return true
	}
	ca, ok := a.(*ir.Const)
	cb, ok2 := b.(*ir.Const)
	return ok && ok2 && ca.Lit == cb.Lit
}
