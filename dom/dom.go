// Package dom computes dominator trees of ir.Functions.
package dom

// Dominator tree construction ----------------------------------------
//
// Immediate dominators are computed with the iterative algorithm of
// Cooper, Harvey & Kennedy, A Simple, Fast Dominance Algorithm, over the
// reverse postorder of the reachable blocks. The tree is then numbered in
// pre- and post-order so that dominance queries take constant time.

import (
	"bytes"
	"fmt"

	"github.com/nickng/loopopt/block"
	"github.com/nickng/loopopt/ir"
)

// Tree is the dominator tree of a function.
type Tree struct {
	fn       *ir.Function
	info     []domInfo   // Indexed by Block.Index.
	preorder []*ir.Block // Reachable blocks in dominator tree preorder.
}

// domInfo contains a block's dominance information.
type domInfo struct {
	idom      *ir.Block   // immediate dominator (parent in domtree)
	children  []*ir.Block // nodes immediately dominated by this one
	pre, post int32       // pre- and post-order numbering within domtree
	reachable bool
}

// Build computes the dominator tree of fn.
// Blocks not reachable from the entry are left out of the tree.
func Build(fn *ir.Function) *Tree {
	t := &Tree{fn: fn, info: make([]domInfo, len(fn.Blocks))}
	if len(fn.Blocks) == 0 {
		return t
	}

	po := block.Postorder(fn)
	post := make([]int, len(fn.Blocks)) // postorder number of reachable blocks
	for i, b := range po {
		post[b.Index] = i
		t.info[b.Index].reachable = true
	}

	entry := fn.Blocks[0]
	idoms := make([]*ir.Block, len(fn.Blocks))
	idoms[entry.Index] = entry
	for changed := true; changed; {
		changed = false
		// Reverse postorder, skipping the entry block (last in po).
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			var newIdom *ir.Block
			for _, p := range b.Preds {
				if idoms[p.Index] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				finger1, finger2 := p, newIdom
				for finger1 != finger2 {
					for post[finger1.Index] < post[finger2.Index] {
						finger1 = idoms[finger1.Index]
					}
					for post[finger2.Index] < post[finger1.Index] {
						finger2 = idoms[finger2.Index]
					}
				}
				newIdom = finger1
			}
			if idoms[b.Index] != newIdom {
				idoms[b.Index] = newIdom
				changed = true
			}
		}
	}

	// Children are appended in block order for a stable preorder.
	for _, b := range fn.Blocks {
		idom := idoms[b.Index]
		if idom == nil || b == entry {
			continue
		}
		t.info[b.Index].idom = idom
		t.info[idom.Index].children = append(t.info[idom.Index].children, b)
	}

	t.preorder = make([]*ir.Block, 0, len(po))
	t.number(entry, 0, 0)
	return t
}

// number sets the pre- and post-order numbers of a depth-first traversal of
// the dominator tree rooted at v.
func (t *Tree) number(v *ir.Block, pre, post int32) (int32, int32) {
	t.info[v.Index].pre = pre
	t.preorder = append(t.preorder, v)
	pre++
	for _, child := range t.info[v.Index].children {
		pre, post = t.number(child, pre, post)
	}
	t.info[v.Index].post = post
	post++
	return pre, post
}

// Func returns the function of the tree.
func (t *Tree) Func() *ir.Function { return t.fn }

// Idom returns the block that immediately dominates b: its parent in the
// dominator tree. The entry block and unreachable blocks have none.
func (t *Tree) Idom(b *ir.Block) *ir.Block { return t.info[b.Index].idom }

// Children returns the blocks that b immediately dominates.
func (t *Tree) Children(b *ir.Block) []*ir.Block { return t.info[b.Index].children }

// Reachable returns true if b is reachable from the entry block.
func (t *Tree) Reachable(b *ir.Block) bool {
	return b.Index < len(t.info) && t.info[b.Index].reachable
}

// Dominates reports whether a dominates b. Every block dominates itself; an
// unreachable block dominates, and is dominated by, nothing else.
func (t *Tree) Dominates(a, b *ir.Block) bool {
	if a == b {
		return true
	}
	if !t.Reachable(a) || !t.Reachable(b) {
		return false
	}
	x, y := t.info[a.Index], t.info[b.Index]
	return x.pre <= y.pre && y.post <= x.post
}

// Preorder returns the reachable blocks in dominator tree preorder: every
// block appears after all of its dominators.
// The returned slice must not be modified.
func (t *Tree) Preorder() []*ir.Block { return t.preorder }

// String returns the tree as indented text.
func (t *Tree) String() string {
	var buf bytes.Buffer
	if entry := t.fn.Entry(); entry != nil {
		t.printText(&buf, entry, 0)
	}
	return buf.String()
}

func (t *Tree) printText(buf *bytes.Buffer, v *ir.Block, indent int) {
	fmt.Fprintf(buf, "%*s%s\n", 4*indent, "", v)
	for _, child := range t.info[v.Index].children {
		t.printText(buf, child, indent+1)
	}
}
