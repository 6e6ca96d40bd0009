package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestVerify(t *testing.T) {
	b := NewBuilder("f")
	x := b.Param("x")
	entry, loop, exit := b.NewBlock("entry"), b.NewBlock("loop"), b.NewBlock("exit")
	b.SetBlock(entry)
	b.Jump(loop)
	b.SetBlock(loop)
	phi := b.Phi(x, nil)
	inc := b.Binary("add", phi, NewConst("1"))
	phi.Operands[1] = inc
	b.If(x, loop, exit)
	b.SetBlock(exit)
	b.Return(phi)

	assert.NoError(t, Verify(b.Function()))
}

func TestVerifyErrors(t *testing.T) {
	assert.Equal(t, ErrNoBody, Verify(NewFunction("external")))

	b := NewBuilder("f")
	x := b.Param("x")
	entry, exit := b.NewBlock("entry"), b.NewBlock("exit")
	b.SetBlock(entry)
	b.Jump(exit)
	b.Binary("add", x, x) // After the terminator, so entry does not end in a branch.
	b.SetBlock(exit)
	b.Phi(x) // Two preds after the bad edge below.
	b.Return()
	exit.Preds = append(exit.Preds, entry) // Edge not in entry.Succs.

	err := Verify(b.Function())
	assert.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5, "%v", err)
}

func TestVerifyFallthrough(t *testing.T) {
	b := NewBuilder("f")
	x := b.Param("x")
	entry, exit := b.NewBlock("entry"), b.NewBlock("exit")
	b.SetBlock(entry)
	b.Binary("add", x, x)
	AddEdge(entry, exit) // Edge without a branch.
	b.SetBlock(exit)
	b.Return()

	err := Verify(b.Function())
	if assert.Len(t, multierr.Errors(err), 1, "%v", err) {
		assert.Contains(t, err.Error(), "b0: has successors but does not end in a branch")
	}

	b.SetBlock(entry)
	b.Emit(OpReturn, "return")
	assert.Error(t, Verify(b.Function()), "a return with successors is not a branch")
}
