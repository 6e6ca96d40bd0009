package loop

import (
	"fmt"
	"strings"

	"github.com/nickng/loopopt/ir"
)

// Loop is a natural loop.
type Loop struct {
	header   *ir.Block
	blocks   []*ir.Block // Header first, then by block index.
	members  map[*ir.Block]bool
	parent   *Loop
	subLoops []*Loop
	depth    int
	exits    []*ir.Block
}

// Header returns the single entry block of the loop.
func (l *Loop) Header() *ir.Block { return l.header }

// Blocks returns the member blocks of l, including those of nested loops.
func (l *Loop) Blocks() []*ir.Block { return l.blocks }

// Contains returns true if b is a member of l or of a loop nested in l.
func (l *Loop) Contains(b *ir.Block) bool { return l.members[b] }

// Parent returns the loop immediately enclosing l, or nil.
func (l *Loop) Parent() *Loop { return l.parent }

// SubLoops returns the loops immediately nested in l.
func (l *Loop) SubLoops() []*Loop { return l.subLoops }

// Depth returns the nesting depth of l. An outermost loop has depth 1.
func (l *Loop) Depth() int { return l.depth }

// ExitBlocks returns the unique blocks outside l that are successors of a
// member, in the order they are first seen.
func (l *Loop) ExitBlocks() []*ir.Block { return l.exits }

// Preheader returns the preheader of l: the only predecessor of the header
// from outside the loop, provided the header is its only successor.
// It returns nil if l has no preheader.
func (l *Loop) Preheader() *ir.Block {
	var pred *ir.Block
	for _, p := range l.header.Preds {
		if l.Contains(p) {
			continue
		}
		if pred != nil && pred != p {
			return nil
		}
		pred = p
	}
	if pred == nil || len(pred.Succs) != 1 {
		return nil
	}
	return pred
}

// IsLoopInvariant returns true if v is computed outside of l.
func (l *Loop) IsLoopInvariant(v ir.Value) bool {
	if instr, ok := v.(*ir.Instr); ok {
		return !l.Contains(instr.Block())
	}
	return true
}

func (l *Loop) String() string {
	names := make([]string, len(l.blocks))
	for i, b := range l.blocks {
		names[i] = b.String()
	}
	return fmt.Sprintf("loop %s depth=%d blocks=[%s]", l.header, l.depth, strings.Join(names, " "))
}

// InSubLoop returns true if b, a member of l, belongs to one of the loops
// immediately nested in l.
func InSubLoop(l *Loop, b *ir.Block) bool {
	for _, sub := range l.subLoops {
		if sub.Contains(b) {
			return true
		}
	}
	return false
}
