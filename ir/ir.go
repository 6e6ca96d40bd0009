// Package ir defines the control flow graph representation the loop passes
// work on.
//
// A Function owns an ordered list of Blocks, and each Block owns an ordered
// list of Instrs ending in a terminator. Operands are Values: constants,
// function parameters, or the results of other instructions.
//
// Unlike golang.org/x/tools/go/ssa, instructions can be relocated between
// blocks (see Instr.MoveBefore), which is what code motion needs.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is an operand of an instruction.
type Value interface {
	Name() string   // Name of the value as used in operand position.
	String() string // Description of the value.
}

// Const is a compile-time constant.
type Const struct {
	Lit  string // Literal form, e.g. "1:int".
	zero bool
}

// NewConst returns a constant with literal lit.
// The constant is treated as zero if lit parses as a number equal to 0.
func NewConst(lit string) *Const {
	num := lit
	if i := strings.IndexByte(lit, ':'); i >= 0 {
		num = lit[:i]
	}
	f, err := strconv.ParseFloat(num, 64)
	return &Const{Lit: lit, zero: err == nil && f == 0}
}

// NewTypedConst returns a constant with literal lit, with zero-ness decided by
// the caller.
func NewTypedConst(lit string, zero bool) *Const {
	return &Const{Lit: lit, zero: zero}
}

func (c *Const) Name() string   { return c.Lit }
func (c *Const) String() string { return c.Lit }

// IsZero returns true if the constant is a numeric zero (or nil).
func (c *Const) IsZero() bool { return c.zero }

// Param is a value defined outside of any block, e.g. a function parameter or
// a captured free variable.
type Param struct {
	name string
}

// NewParam returns a new parameter called name.
func NewParam(name string) *Param { return &Param{name: name} }

func (p *Param) Name() string   { return p.name }
func (p *Param) String() string { return p.name }

// Function is a control flow graph of Blocks.
type Function struct {
	Name   string
	Params []*Param
	Blocks []*Block // Blocks[0] is the entry block.
}

// NewFunction returns an empty function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// NewBlock appends a new block to fn.
func (fn *Function) NewBlock(comment string) *Block {
	b := &Block{Index: len(fn.Blocks), Comment: comment, parent: fn}
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// Entry returns the entry block, or nil if fn has no body.
func (fn *Function) Entry() *Block {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return fn.Blocks[0]
}

func (fn *Function) String() string { return fn.Name }

// Block is a basic block.
type Block struct {
	Index   int    // Index of the block in the parent function.
	Comment string // Optional description, e.g. "for.body".
	Instrs  []*Instr
	Preds   []*Block
	Succs   []*Block

	parent *Function
}

// Parent returns the function the block belongs to.
func (b *Block) Parent() *Function { return b.parent }

// Terminator returns the last instruction of b if it is a terminator.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	if last := b.Instrs[len(b.Instrs)-1]; last.Op.IsTerminator() {
		return last
	}
	return nil
}

func (b *Block) String() string { return fmt.Sprintf("b%d", b.Index) }

// Append adds instr to the end of b. instr must not belong to a block.
func (b *Block) Append(instr *Instr) *Instr {
	instr.block = b
	b.Instrs = append(b.Instrs, instr)
	return instr
}

// AddEdge adds the CFG edge from → to.
func AddEdge(from, to *Block) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// indexOf returns the position of instr in b, or -1.
func (b *Block) indexOf(instr *Instr) int {
	for i, in := range b.Instrs {
		if in == instr {
			return i
		}
	}
	return -1
}

func (b *Block) remove(instr *Instr) {
	if i := b.indexOf(instr); i >= 0 {
		b.Instrs = append(b.Instrs[:i], b.Instrs[i+1:]...)
	}
}

// Instr is an instruction. Instructions that produce a result are Values.
type Instr struct {
	Op           Op
	Mnemonic     string  // Operation detail, e.g. "add" or "shl".
	Operands     []Value // Ordered operands. Phi operands are parallel to Block().Preds.
	Speculatable bool    // No side effects and cannot trap under any operand values.
	Atomic       bool

	name  string
	block *Block
}

// NewInstr returns a new instruction that does not belong to any block.
// Speculatable and Atomic take the defaults of op.
func NewInstr(op Op, mnemonic string, operands ...Value) *Instr {
	return &Instr{
		Op:           op,
		Mnemonic:     mnemonic,
		Operands:     operands,
		Speculatable: op.speculatable(),
		Atomic:       op.atomic(),
	}
}

// Name returns the name of the result, or "" if instr has no result.
func (instr *Instr) Name() string { return instr.name }

// SetName renames the result of instr.
func (instr *Instr) SetName(name string) *Instr {
	instr.name = name
	return instr
}

// SetSpeculatable overrides the speculative safety of instr.
func (instr *Instr) SetSpeculatable(safe bool) *Instr {
	instr.Speculatable = safe
	return instr
}

// SetAtomic overrides the atomicity of instr.
func (instr *Instr) SetAtomic(atomic bool) *Instr {
	instr.Atomic = atomic
	return instr
}

// Block returns the block instr currently belongs to.
func (instr *Instr) Block() *Block { return instr.block }

// MoveBefore unlinks instr from its block and inserts it immediately before
// pos, in the block of pos. The operands of instr are unchanged.
func (instr *Instr) MoveBefore(pos *Instr) {
	if instr == pos {
		return
	}
	if instr.block != nil {
		instr.block.remove(instr)
	}
	dst := pos.block
	i := dst.indexOf(pos)
	dst.Instrs = append(dst.Instrs, nil)
	copy(dst.Instrs[i+1:], dst.Instrs[i:])
	dst.Instrs[i] = instr
	instr.block = dst
}

// String returns the textual form of instr.
func (instr *Instr) String() string {
	var buf strings.Builder
	if instr.name != "" {
		buf.WriteString(instr.name)
		buf.WriteString(" = ")
	}
	buf.WriteString(instr.Mnemonic)
	for i, v := range instr.Operands {
		if i == 0 {
			buf.WriteByte(' ')
		} else {
			buf.WriteString(", ")
		}
		buf.WriteString(v.Name())
	}
	if instr.Op.IsBranch() && instr.block != nil && len(instr.block.Succs) > 0 {
		buf.WriteString(" ->")
		for i, succ := range instr.block.Succs {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte(' ')
			buf.WriteString(succ.String())
		}
	}
	return buf.String()
}
