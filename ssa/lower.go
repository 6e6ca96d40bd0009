package ssa

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ssa"

	"github.com/nickng/loopopt/ir"
)

// Lower translates the body of fn to ir.
//
// Blocks keep their index, comment and edges, and instructions keep their
// names. Instructions are classified by what they may do at runtime: integer
// division, dereference, field and index addressing, and shifts by a signed
// variable count may panic, so they are not speculatable. Conversions that
// make a new slice are allocations. Calls to package sync/atomic are atomic.
// Debug references are dropped.
func Lower(fn *ssa.Function) (*ir.Function, error) {
	if len(fn.Blocks) == 0 {
		return nil, errors.Wrap(ir.ErrNoBody, fn.String())
	}
	l := &lowerer{
		out:    ir.NewFunction(fn.String()),
		values: make(map[ssa.Value]ir.Value),
	}
	for _, p := range fn.Params {
		l.param(p)
	}
	for _, fv := range fn.FreeVars {
		l.param(fv)
	}

	blocks := make([]*ir.Block, len(fn.Blocks))
	for i, b := range fn.Blocks {
		blocks[i] = l.out.NewBlock(b.Comment)
	}
	for i, b := range fn.Blocks {
		for _, pred := range b.Preds {
			blocks[i].Preds = append(blocks[i].Preds, blocks[pred.Index])
		}
		for _, succ := range b.Succs {
			blocks[i].Succs = append(blocks[i].Succs, blocks[succ.Index])
		}
	}

	// Operands may refer to instructions further down, e.g. phi edges from
	// latches, so every instruction is created before operands are set.
	for i, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if _, ok := instr.(*ssa.DebugRef); ok {
				continue
			}
			out := lowerInstr(instr)
			if v, ok := instr.(ssa.Value); ok {
				out.SetName(v.Name())
				l.values[v] = out
			}
			l.instrs = append(l.instrs, loweredInstr{in: instr, out: out})
			blocks[i].Append(out)
		}
	}
	for _, li := range l.instrs {
		ops, err := l.operands(li.in)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", fn, li.in)
		}
		li.out.Operands = ops
		classify(li.in, li.out)
	}

	if err := ir.Verify(l.out); err != nil {
		return nil, errors.Wrapf(err, "lowered %s", fn)
	}
	return l.out, nil
}

type loweredInstr struct {
	in  ssa.Instruction
	out *ir.Instr
}

type lowerer struct {
	out    *ir.Function
	values map[ssa.Value]ir.Value
	instrs []loweredInstr
}

func (l *lowerer) param(v ssa.Value) {
	p := ir.NewParam(v.Name())
	l.out.Params = append(l.out.Params, p)
	l.values[v] = p
}

// value returns the lowered operand v.
func (l *lowerer) value(v ssa.Value) (ir.Value, error) {
	if lv, ok := l.values[v]; ok {
		return lv, nil
	}
	switch v := v.(type) {
	case *ssa.Const:
		zero := v.Value == nil
		if !zero {
			switch v.Value.Kind() {
			case constant.Int, constant.Float, constant.Complex:
				zero = constant.Sign(v.Value) == 0
			}
		}
		return ir.NewTypedConst(v.Name(), zero), nil
	case *ssa.Global, *ssa.Function, *ssa.Builtin:
		// Addresses of globals and functions do not change.
		return ir.NewTypedConst(v.String(), false), nil
	}
	return nil, errors.Errorf("operand %s (%T) is not defined", v.Name(), v)
}

func (l *lowerer) operands(instr ssa.Instruction) ([]ir.Value, error) {
	var vals []ssa.Value
	switch instr := instr.(type) {
	case *ssa.UnOp:
		vals = []ssa.Value{instr.X}
		switch instr.Op {
		case token.SUB:
			return l.withConst(ir.NewTypedConst("0", true), vals, true)
		case token.XOR:
			return l.withConst(ir.NewTypedConst("-1", false), vals, false)
		case token.NOT:
			return l.withConst(ir.NewTypedConst("true", false), vals, false)
		}
	case *ssa.FieldAddr:
		return l.withConst(ir.NewTypedConst(fmt.Sprintf("%d", instr.Field), instr.Field == 0), []ssa.Value{instr.X}, false)
	case *ssa.Phi:
		vals = instr.Edges
	case ssa.CallInstruction:
		common := instr.Common()
		vals = append([]ssa.Value{common.Value}, common.Args...)
	default:
		for _, op := range instr.Operands(nil) {
			if op != nil && *op != nil {
				vals = append(vals, *op)
			}
		}
	}
	ops := make([]ir.Value, len(vals))
	for i, v := range vals {
		lv, err := l.value(v)
		if err != nil {
			return nil, err
		}
		ops[i] = lv
	}
	return ops, nil
}

// withConst lowers vals and adds c as the first (or last) operand.
func (l *lowerer) withConst(c *ir.Const, vals []ssa.Value, first bool) ([]ir.Value, error) {
	var ops []ir.Value
	for _, v := range vals {
		lv, err := l.value(v)
		if err != nil {
			return nil, err
		}
		ops = append(ops, lv)
	}
	if first {
		return append([]ir.Value{c}, ops...), nil
	}
	return append(ops, c), nil
}

// lowerInstr returns a new instruction with the kind of instr.
func lowerInstr(instr ssa.Instruction) *ir.Instr {
	switch instr := instr.(type) {
	case *ssa.BinOp:
		return lowerBinOp(instr)
	case *ssa.UnOp:
		switch instr.Op {
		case token.SUB:
			return ir.NewInstr(ir.OpBinary, "sub")
		case token.XOR, token.NOT:
			return ir.NewInstr(ir.OpBinary, "xor")
		case token.MUL:
			return ir.NewInstr(ir.OpLoad, "load")
		}
		return ir.NewInstr(ir.OpOther, "recv")
	case *ssa.Convert:
		// string to []byte or []rune makes a new slice on every execution.
		if isSlice(instr.Type()) {
			return ir.NewInstr(ir.OpAlloc, "convert")
		}
		return ir.NewInstr(ir.OpCast, "convert")
	case *ssa.ChangeType:
		return ir.NewInstr(ir.OpCast, "changetype")
	case *ssa.MultiConvert:
		// Some instance of the type parameters may convert string to slice.
		return ir.NewInstr(ir.OpAlloc, "multiconvert")
	case *ssa.SliceToArrayPointer:
		return ir.NewInstr(ir.OpCast, "slicetoarrayptr")
	case *ssa.FieldAddr:
		return ir.NewInstr(ir.OpAddr, "fieldaddr")
	case *ssa.IndexAddr:
		return ir.NewInstr(ir.OpAddr, "indexaddr")
	case *ssa.Store:
		return ir.NewInstr(ir.OpStore, "store")
	case *ssa.MapUpdate:
		return ir.NewInstr(ir.OpStore, "mapupdate")
	case *ssa.Call:
		if instr.Call.IsInvoke() {
			return ir.NewInstr(ir.OpCall, "invoke "+instr.Call.Method.Name())
		}
		return ir.NewInstr(ir.OpCall, "call")
	case *ssa.Go:
		return ir.NewInstr(ir.OpCall, "go")
	case *ssa.Defer:
		return ir.NewInstr(ir.OpCall, "defer")
	case *ssa.RunDefers:
		return ir.NewInstr(ir.OpCall, "rundefers")
	case *ssa.Alloc:
		if instr.Heap {
			return ir.NewInstr(ir.OpAlloc, "new")
		}
		return ir.NewInstr(ir.OpAlloc, "local")
	case *ssa.MakeSlice:
		return ir.NewInstr(ir.OpAlloc, "makeslice")
	case *ssa.MakeMap:
		return ir.NewInstr(ir.OpAlloc, "makemap")
	case *ssa.MakeChan:
		return ir.NewInstr(ir.OpAlloc, "makechan")
	case *ssa.MakeClosure:
		return ir.NewInstr(ir.OpAlloc, "makeclosure")
	case *ssa.MakeInterface:
		return ir.NewInstr(ir.OpAlloc, "makeinterface")
	case *ssa.Phi:
		return ir.NewInstr(ir.OpPhi, "phi")
	case *ssa.If:
		return ir.NewInstr(ir.OpBr, "if")
	case *ssa.Jump:
		return ir.NewInstr(ir.OpBr, "jump")
	case *ssa.Return:
		return ir.NewInstr(ir.OpReturn, "return")
	case *ssa.Panic:
		return ir.NewInstr(ir.OpPanic, "panic")
	case *ssa.Select:
		return ir.NewInstr(ir.OpOther, "chanselect")
	}
	// e.g. *ssa.Extract becomes "extract".
	name := strings.TrimPrefix(fmt.Sprintf("%T", instr), "*ssa.")
	return ir.NewInstr(ir.OpOther, strings.ToLower(name))
}

var binOps = map[token.Token]string{
	token.ADD:     "add",
	token.SUB:     "sub",
	token.MUL:     "mul",
	token.AND:     "and",
	token.OR:      "or",
	token.XOR:     "xor",
	token.AND_NOT: "andnot",
	token.SHL:     "shl",
	token.SHR:     "shr",
	token.EQL:     "eq",
	token.NEQ:     "ne",
	token.LSS:     "lt",
	token.LEQ:     "le",
	token.GTR:     "gt",
	token.GEQ:     "ge",
}

func lowerBinOp(instr *ssa.BinOp) *ir.Instr {
	switch instr.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return ir.NewInstr(ir.OpCompare, binOps[instr.Op])
	case token.SHL, token.SHR:
		return ir.NewInstr(ir.OpShift, binOps[instr.Op])
	case token.QUO, token.REM:
		mnemonic := "div"
		if instr.Op == token.REM {
			mnemonic = "rem"
		}
		switch {
		case !isInteger(instr.X.Type()):
			return ir.NewInstr(ir.OpBinary, "f"+mnemonic)
		case isUnsigned(instr.X.Type()):
			return ir.NewInstr(ir.OpBinary, "u"+mnemonic)
		}
		return ir.NewInstr(ir.OpBinary, "s"+mnemonic)
	}
	return ir.NewInstr(ir.OpBinary, binOps[instr.Op])
}

// classify sets the flags of out once its operands are known.
func classify(in ssa.Instruction, out *ir.Instr) {
	switch in := in.(type) {
	case *ssa.BinOp:
		switch {
		case ir.IsTrappingDivision(out.Mnemonic):
			c, ok := out.Operands[1].(*ir.Const)
			out.SetSpeculatable(ok && !c.IsZero())
		case out.Op == ir.OpShift:
			_, isConst := in.Y.(*ssa.Const)
			out.SetSpeculatable(isConst || isUnsigned(in.Y.Type()))
		}
	case *ssa.FieldAddr, *ssa.IndexAddr, *ssa.SliceToArrayPointer:
		out.SetSpeculatable(false)
	case ssa.CallInstruction:
		out.SetAtomic(isAtomicCall(in.Common()))
	}
}

func isAtomicCall(call *ssa.CallCommon) bool {
	callee := call.StaticCallee()
	if callee == nil {
		return false
	}
	if origin := callee.Origin(); origin != nil {
		callee = origin
	}
	obj := callee.Object()
	return obj != nil && obj.Pkg() != nil && obj.Pkg().Path() == "sync/atomic"
}

func basicInfo(t types.Type) types.BasicInfo {
	if b, ok := t.Underlying().(*types.Basic); ok {
		return b.Info()
	}
	return 0
}

func isSlice(t types.Type) bool {
	_, ok := t.Underlying().(*types.Slice)
	return ok
}

func isInteger(t types.Type) bool  { return basicInfo(t)&types.IsInteger != 0 }
func isUnsigned(t types.Type) bool { return basicInfo(t)&types.IsUnsigned != 0 }

// LowerAll lowers fns in parallel, at most jobs at a time (jobs <= 0 means no
// limit). The lowered functions are returned in the order of fns. Functions
// that cannot be lowered are left out, and their errors are returned
// together.
func LowerAll(fns []*ssa.Function, jobs int) ([]*ir.Function, error) {
	lowered := make([]*ir.Function, len(fns))
	errs := make([]error, len(fns))
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			lowered[i], errs[i] = Lower(fn)
			return nil
		})
	}
	g.Wait() // Failures are kept per function in errs.

	var out []*ir.Function
	for _, fn := range lowered {
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out, multierr.Combine(errs...)
}
