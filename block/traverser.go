// Package block provides traversals over the blocks of an ir.Function.
package block

import (
	"github.com/nickng/loopopt/ir"
)

// Postorder returns the blocks reachable from the entry of fn in depth-first
// postorder.
func Postorder(fn *ir.Function) []*ir.Block {
	if len(fn.Blocks) == 0 {
		return nil
	}
	order := make([]*ir.Block, 0, len(fn.Blocks))
	seen := make([]bool, len(fn.Blocks))

	// Explicit stack of (block, next successor index) avoids deep recursion
	// on long chains of blocks.
	type frame struct {
		b    *ir.Block
		next int
	}
	entry := fn.Blocks[0]
	seen[entry.Index] = true
	stack := []frame{{b: entry}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			succ := top.b.Succs[top.next]
			top.next++
			if !seen[succ.Index] {
				seen[succ.Index] = true
				stack = append(stack, frame{b: succ})
			}
			continue
		}
		order = append(order, top.b)
		stack = stack[:len(stack)-1]
	}
	return order
}

// ReversePostorder returns the blocks reachable from the entry of fn in
// reverse depth-first postorder.
func ReversePostorder(fn *ir.Function) []*ir.Block {
	order := Postorder(fn)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
