package ir

import "fmt"

// Builder constructs a Function block by block.
type Builder struct {
	fn  *Function
	blk *Block // Current insertion block.
	n   int    // Counter for generated value names.
}

// NewBuilder returns a Builder for a new function called name.
func NewBuilder(name string) *Builder {
	return &Builder{fn: NewFunction(name)}
}

// Function returns the function being built.
func (b *Builder) Function() *Function { return b.fn }

// Param adds a parameter to the function.
func (b *Builder) Param(name string) *Param {
	p := NewParam(name)
	b.fn.Params = append(b.fn.Params, p)
	return p
}

// NewBlock appends a new block. The insertion block is unchanged.
func (b *Builder) NewBlock(comment string) *Block {
	return b.fn.NewBlock(comment)
}

// SetBlock sets the block new instructions are appended to.
func (b *Builder) SetBlock(blk *Block) { b.blk = blk }

// Emit appends a new instruction to the insertion block.
// Value-producing instructions get a fresh name "tN".
func (b *Builder) Emit(op Op, mnemonic string, operands ...Value) *Instr {
	if b.blk == nil {
		panic("ir: Builder.Emit called without insertion block")
	}
	instr := NewInstr(op, mnemonic, operands...)
	if op.HasValue() {
		instr.name = fmt.Sprintf("t%d", b.n)
		b.n++
	}
	return b.blk.Append(instr)
}

// Binary emits a binary operation. Trapping divisions are speculatable only
// when the divisor is a non-zero constant.
func (b *Builder) Binary(mnemonic string, x, y Value) *Instr {
	instr := b.Emit(OpBinary, mnemonic, x, y)
	if IsTrappingDivision(mnemonic) {
		c, ok := y.(*Const)
		instr.Speculatable = ok && !c.IsZero()
	}
	return instr
}

func (b *Builder) Shift(mnemonic string, x, y Value) *Instr {
	return b.Emit(OpShift, mnemonic, x, y)
}

func (b *Builder) Select(cond, x, y Value) *Instr {
	return b.Emit(OpSelect, "select", cond, x, y)
}

func (b *Builder) Cast(mnemonic string, x Value) *Instr {
	return b.Emit(OpCast, mnemonic, x)
}

// Addr emits an address computation from base and offsets.
func (b *Builder) Addr(base Value, offsets ...Value) *Instr {
	return b.Emit(OpAddr, "addr", append([]Value{base}, offsets...)...)
}

func (b *Builder) Compare(mnemonic string, x, y Value) *Instr {
	return b.Emit(OpCompare, mnemonic, x, y)
}

// Phi emits a phi with edges parallel to the predecessors of the block.
func (b *Builder) Phi(edges ...Value) *Instr {
	return b.Emit(OpPhi, "phi", edges...)
}

func (b *Builder) Load(addr Value) *Instr {
	return b.Emit(OpLoad, "load", addr)
}

func (b *Builder) Store(addr, val Value) *Instr {
	return b.Emit(OpStore, "store", addr, val)
}

func (b *Builder) Call(callee Value, args ...Value) *Instr {
	return b.Emit(OpCall, "call", append([]Value{callee}, args...)...)
}

// AtomicRMW emits an atomic read-modify-write of addr.
func (b *Builder) AtomicRMW(mnemonic string, addr, val Value) *Instr {
	return b.Emit(OpAtomicRMW, mnemonic, addr, val)
}

// Jump terminates the insertion block with an unconditional branch to target.
func (b *Builder) Jump(target *Block) *Instr {
	instr := b.Emit(OpBr, "jump")
	AddEdge(b.blk, target)
	return instr
}

// If terminates the insertion block with a conditional branch.
func (b *Builder) If(cond Value, then, els *Block) *Instr {
	instr := b.Emit(OpBr, "if", cond)
	AddEdge(b.blk, then)
	AddEdge(b.blk, els)
	return instr
}

// Switch terminates the insertion block with a multi-way branch on v.
func (b *Builder) Switch(v Value, targets ...*Block) *Instr {
	instr := b.Emit(OpSwitch, "switch", v)
	for _, t := range targets {
		AddEdge(b.blk, t)
	}
	return instr
}

func (b *Builder) Return(results ...Value) *Instr {
	return b.Emit(OpReturn, "return", results...)
}
