package ir

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrNoBody is returned by Verify for a function without blocks.
var ErrNoBody = errors.New("function has no body")

// Verify checks the structural consistency of fn: block numbering and
// ownership, symmetric predecessor and successor edges, terminators last in
// their block, a branch at the end of every block with successors, and phis
// with one operand per predecessor.
// All problems found are returned together.
func Verify(fn *Function) error {
	if len(fn.Blocks) == 0 {
		return ErrNoBody
	}
	var err error
	for i, b := range fn.Blocks {
		if b.Index != i {
			err = multierr.Append(err, errors.Errorf("%s: block at position %d", b, i))
		}
		if b.parent != fn {
			err = multierr.Append(err, errors.Errorf("%s: block belongs to another function", b))
		}
		for _, succ := range unique(b.Succs) {
			if count(b.Succs, succ) != count(succ.Preds, b) {
				err = multierr.Append(err, errors.Errorf("%s: edge to %s missing from its preds", b, succ))
			}
		}
		for _, pred := range unique(b.Preds) {
			if count(b.Preds, pred) != count(pred.Succs, b) {
				err = multierr.Append(err, errors.Errorf("%s: edge from %s missing from its succs", b, pred))
			}
		}
		if len(b.Succs) > 0 {
			if t := b.Terminator(); t == nil || !t.Op.IsBranch() {
				err = multierr.Append(err, errors.Errorf("%s: has successors but does not end in a branch", b))
			}
		}
		for j, instr := range b.Instrs {
			if instr.block != b {
				err = multierr.Append(err, errors.Errorf("%s: %q belongs to another block", b, instr))
			}
			if instr.Op.IsTerminator() && j != len(b.Instrs)-1 {
				err = multierr.Append(err, errors.Errorf("%s: terminator %q is not last", b, instr))
			}
			if instr.Op == OpPhi && len(instr.Operands) != len(b.Preds) {
				err = multierr.Append(err, errors.Errorf("%s: %q has %d edges for %d preds",
					b, instr, len(instr.Operands), len(b.Preds)))
			}
		}
	}
	return err
}

func count(blocks []*Block, b *Block) int {
	n := 0
	for _, x := range blocks {
		if x == b {
			n++
		}
	}
	return n
}

func unique(blocks []*Block) []*Block {
	var u []*Block
	for _, b := range blocks {
		if count(u, b) == 0 {
			u = append(u, b)
		}
	}
	return u
}
