package block

import (
	"testing"

	"github.com/nickng/loopopt/ir"
)

// diamondLoop builds
//
//	b0 → b1 → b2 → b4
//	     b1 → b3 → b4
//	     b4 → b1, b4 → b5
//	b6 (unreachable)
func diamondLoop() *ir.Function {
	b := ir.NewBuilder("f")
	c := b.Param("c")
	blks := make([]*ir.Block, 7)
	for i := range blks {
		blks[i] = b.NewBlock("")
	}
	b.SetBlock(blks[0])
	b.Jump(blks[1])
	b.SetBlock(blks[1])
	b.If(c, blks[2], blks[3])
	b.SetBlock(blks[2])
	b.Jump(blks[4])
	b.SetBlock(blks[3])
	b.Jump(blks[4])
	b.SetBlock(blks[4])
	b.If(c, blks[1], blks[5])
	b.SetBlock(blks[5])
	b.Return()
	b.SetBlock(blks[6])
	b.Jump(blks[5])
	return b.Function()
}

func indices(blks []*ir.Block) []int {
	idx := make([]int, len(blks))
	for i, b := range blks {
		idx[i] = b.Index
	}
	return idx
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPostorder(t *testing.T) {
	fn := diamondLoop()
	if want, got := []int{5, 4, 2, 3, 1, 0}, indices(Postorder(fn)); !equal(want, got) {
		t.Errorf("Postorder mismatch\nwant: %v\ngot:  %v", want, got)
	}
	if want, got := []int{0, 1, 3, 2, 4, 5}, indices(ReversePostorder(fn)); !equal(want, got) {
		t.Errorf("ReversePostorder mismatch\nwant: %v\ngot:  %v", want, got)
	}
}

func TestPostorderEmpty(t *testing.T) {
	if got := Postorder(ir.NewFunction("empty")); got != nil {
		t.Errorf("Postorder of function without body should be nil, got %v", got)
	}
}
