package ir

// Op is the kind of an instruction.
type Op int

const (
	OpInvalid Op = iota
	OpBinary     // Binary arithmetic or logical operation.
	OpShift      // Shift left or right.
	OpSelect     // Ternary choice.
	OpCast       // Conversion between types.
	OpAddr       // Address computation, no dereference.
	OpCompare    // Comparison yielding a boolean.
	OpPhi
	OpLoad
	OpStore
	OpAlloc
	OpCall
	OpAtomicRMW
	OpCmpXchg
	OpFence
	OpBr         // Conditional or unconditional branch.
	OpIndirectBr // Branch to a computed address.
	OpSwitch
	OpReturn
	OpPanic
	OpOther
)

var opNames = [...]string{
	OpInvalid:    "invalid",
	OpBinary:     "binary",
	OpShift:      "shift",
	OpSelect:     "select",
	OpCast:       "cast",
	OpAddr:       "addr",
	OpCompare:    "compare",
	OpPhi:        "phi",
	OpLoad:       "load",
	OpStore:      "store",
	OpAlloc:      "alloc",
	OpCall:       "call",
	OpAtomicRMW:  "atomicrmw",
	OpCmpXchg:    "cmpxchg",
	OpFence:      "fence",
	OpBr:         "br",
	OpIndirectBr: "indirectbr",
	OpSwitch:     "switch",
	OpReturn:     "return",
	OpPanic:      "panic",
	OpOther:      "other",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "invalid"
	}
	return opNames[op]
}

// IsTerminator returns true if op ends a block.
func (op Op) IsTerminator() bool {
	switch op {
	case OpBr, OpIndirectBr, OpSwitch, OpReturn, OpPanic:
		return true
	}
	return false
}

// IsBranch returns true for branch, indirect branch and switch.
func (op Op) IsBranch() bool {
	switch op {
	case OpBr, OpIndirectBr, OpSwitch:
		return true
	}
	return false
}

// HasValue returns true if instructions of kind op produce a result.
func (op Op) HasValue() bool {
	switch op {
	case OpStore, OpFence, OpBr, OpIndirectBr, OpSwitch, OpReturn, OpPanic:
		return false
	}
	return true
}

// speculatable is the default speculative safety of instructions of kind op.
// Trapping divisions are handled by the Builder.
func (op Op) speculatable() bool {
	switch op {
	case OpBinary, OpShift, OpSelect, OpCast, OpAddr, OpCompare:
		return true
	}
	return false
}

// atomic is the default atomicity of instructions of kind op.
func (op Op) atomic() bool {
	switch op {
	case OpAtomicRMW, OpCmpXchg, OpFence:
		return true
	}
	return false
}

// IsTrappingDivision returns true if a Binary instruction with the given
// mnemonic may fault when its divisor is zero.
func IsTrappingDivision(mnemonic string) bool {
	switch mnemonic {
	case "div", "sdiv", "udiv", "rem", "srem", "urem":
		return true
	}
	return false
}
