package loop

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/nickng/loopopt/dom"
	"github.com/nickng/loopopt/ir"
)

// Info is the loop nest forest of a function.
type Info struct {
	fn    *ir.Function
	loops []*Loop // In dominator tree preorder of their headers.
	top   []*Loop
	b2l   map[*ir.Block]*Loop // Innermost loop of each block.
}

// Analyse finds the natural loops of fn. dt must be the dominator tree of fn
// in its current shape.
func Analyse(fn *ir.Function, dt *dom.Tree) *Info {
	info := &Info{fn: fn, b2l: make(map[*ir.Block]*Loop)}

	// Enclosing loops have headers that dominate, so they are discovered
	// first, and blocks of inner loops overwrite the outer entries of b2l.
	for _, h := range dt.Preorder() {
		var latches []*ir.Block
		for _, p := range h.Preds {
			if dt.Reachable(p) && dt.Dominates(h, p) {
				latches = append(latches, p)
			}
		}
		if len(latches) == 0 {
			continue
		}
		l := &Loop{header: h, members: map[*ir.Block]bool{h: true}, depth: 1}
		if parent := info.b2l[h]; parent != nil {
			l.parent = parent
			l.depth = parent.depth + 1
			parent.subLoops = append(parent.subLoops, l)
		} else {
			info.top = append(info.top, l)
		}

		stack := NewStack()
		for _, latch := range latches {
			stack.Push(latch)
		}
		for !stack.IsEmpty() {
			b, _ := stack.Pop()
			if l.members[b] {
				continue
			}
			l.members[b] = true
			for _, p := range b.Preds {
				if dt.Reachable(p) && !l.members[p] {
					stack.Push(p)
				}
			}
		}
		for b := range l.members {
			info.b2l[b] = l
		}
		l.blocks = sortedMembers(l)
		l.exits = exitBlocks(l)
		info.loops = append(info.loops, l)
	}
	return info
}

func sortedMembers(l *Loop) []*ir.Block {
	blocks := make([]*ir.Block, 0, len(l.members))
	for b := range l.members {
		if b != l.header {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Index < blocks[j].Index })
	return append([]*ir.Block{l.header}, blocks...)
}

func exitBlocks(l *Loop) []*ir.Block {
	var exits []*ir.Block
	seen := make(map[*ir.Block]bool)
	for _, b := range l.blocks {
		for _, succ := range b.Succs {
			if !l.members[succ] && !seen[succ] {
				seen[succ] = true
				exits = append(exits, succ)
			}
		}
	}
	return exits
}

// Func returns the function of the loop nest.
func (info *Info) Func() *ir.Function { return info.fn }

// LoopFor returns the innermost loop containing b, or nil.
func (info *Info) LoopFor(b *ir.Block) *Loop { return info.b2l[b] }

// TopLevel returns the outermost loops.
func (info *Info) TopLevel() []*Loop { return info.top }

// Loops returns every loop, enclosing loops before the loops they contain.
func (info *Info) Loops() []*Loop { return info.loops }

// Postorder returns every loop, nested loops before the loops containing
// them.
func (info *Info) Postorder() []*Loop {
	order := make([]*Loop, 0, len(info.loops))
	var visit func(l *Loop)
	visit = func(l *Loop) {
		for _, sub := range l.subLoops {
			visit(sub)
		}
		order = append(order, l)
	}
	for _, l := range info.top {
		visit(l)
	}
	return order
}

// String returns the loop nest as indented text.
func (info *Info) String() string {
	var buf bytes.Buffer
	var write func(l *Loop)
	write = func(l *Loop) {
		fmt.Fprintf(&buf, "%*s%s\n", 4*(l.depth-1), "", l)
		for _, sub := range l.subLoops {
			write(sub)
		}
	}
	for _, l := range info.top {
		write(l)
	}
	return buf.String()
}
